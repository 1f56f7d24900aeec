package util

import (
	"strings"
	"testing"
	"time"
)

func TestNewID_Ordered(t *testing.T) {
	prev := NewID()
	for i := 0; i < 100; i++ {
		next := NewID()
		if !IsValidID(next) {
			t.Fatalf("NewID() = %q is not a UUID", next)
		}
		if next <= prev {
			t.Fatalf("NewID() not increasing: %s after %s", next, prev)
		}
		prev = next
	}
}

func TestParseID(t *testing.T) {
	if _, err := ParseID("not-a-uuid"); err == nil {
		t.Error("ParseID accepted garbage")
	}
	id := NewUUID()
	got, err := ParseID(strings.ToUpper(id))
	if err != nil || got != id {
		t.Errorf("ParseID(%q) = %q, %v", id, got, err)
	}
}

func TestRefGenerator_Next(t *testing.T) {
	fixed := time.UnixMilli(1700000000000)
	g := &RefGenerator{now: func() time.Time { return fixed }}

	first := g.Next(PrefixPrep)
	second := g.Next(PrefixPrep)

	if first != "PREP-1700000000000" {
		t.Errorf("first = %q", first)
	}
	if second != "PREP-1700000000001" {
		t.Errorf("second = %q, want the next millisecond", second)
	}
}

func TestParseRef(t *testing.T) {
	prefix, at, err := ParseRef("ADJ-1700000000000")
	if err != nil {
		t.Fatalf("ParseRef: %v", err)
	}
	if prefix != PrefixAdjustment {
		t.Errorf("prefix = %q", prefix)
	}
	if !at.Equal(time.UnixMilli(1700000000000)) {
		t.Errorf("at = %v", at)
	}

	for _, bad := range []string{"", "ADJ", "-123", "ADJ-abc"} {
		if _, _, err := ParseRef(bad); err == nil {
			t.Errorf("ParseRef(%q) succeeded", bad)
		}
	}
}
