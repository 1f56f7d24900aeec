package repository

import (
	"strings"
	"testing"
	"time"

	"github.com/prudhvimanvith/Gourmet/internal/testutil"
)

func TestParseTime(t *testing.T) {
	want := time.Date(2026, 3, 14, 9, 26, 53, 589000000, time.UTC)

	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{"Stored layout", "2026-03-14T09:26:53.589000Z", false},
		{"RFC 3339", "2026-03-14T09:26:53.589Z", false},
		{"RFC 3339 with offset", "2026-03-14T10:26:53.589+01:00", false},
		{"Empty", "", true},
		{"Garbage", "yesterday", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTime(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("parseTime(%q) = %v, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseTime(%q): %v", tt.in, err)
			}
			if !got.Equal(want) {
				t.Errorf("parseTime(%q) = %v, want %v", tt.in, got, want)
			}
		})
	}
}

func TestParseTime_RoundTrip(t *testing.T) {
	at := time.Date(2026, 10, 14, 18, 30, 0, 123456000, time.FixedZone("IST", 5*3600+1800))
	got, err := parseTime(formatTime(at))
	if err != nil {
		t.Fatalf("parseTime: %v", err)
	}
	if !got.Equal(at) {
		t.Errorf("round trip = %v, want %v", got, at)
	}
}

func TestItemRepository_CorruptTimestamp(t *testing.T) {
	repo, db, ctx := setupItemTest(t)

	item := testutil.FixtureItem()
	if err := repo.Create(ctx, nil, item); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := db.Exec("UPDATE items SET updated_at = 'last tuesday' WHERE id = ?", item.ID); err != nil {
		t.Fatalf("corrupting row: %v", err)
	}

	_, err := repo.GetByID(ctx, nil, item.ID)
	if err == nil {
		t.Fatal("expected an error for an unreadable updated_at")
	}
	if !strings.Contains(err.Error(), "updated_at") {
		t.Errorf("error %q should name the column", err)
	}
}
