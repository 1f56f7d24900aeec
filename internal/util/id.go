// Package util provides identifier and reference generation for Gourmet.
package util

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// NewID generates a new UUIDv7 identifier.
// UUIDv7 ids are time-ordered, so ledger rows sort in insertion order.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// NewUUID generates a standard UUIDv4 (random) identifier.
func NewUUID() string {
	return uuid.New().String()
}

// ParseID validates and parses a UUID string.
func ParseID(s string) (string, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("invalid ID format: %w", err)
	}
	return id.String(), nil
}

// IsValidID checks if a string is a valid UUID format.
func IsValidID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// Reference prefixes correlate ledger rows with the operation that wrote them.
const (
	PrefixAdjustment = "ADJ"
	PrefixPrep       = "PREP"
	PrefixPOS        = "POS"
	PrefixWastage    = "WST"
	PrefixPurchase   = "PUR"
)

// RefGenerator produces references of the form PREFIX-<unix millis>.
// Values are strictly increasing per generator, so two calls in the same
// millisecond still yield distinct references.
type RefGenerator struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewRefGenerator creates a reference generator on the wall clock.
func NewRefGenerator() *RefGenerator {
	return &RefGenerator{now: time.Now}
}

// Next returns the next reference for prefix.
func (g *RefGenerator) Next(prefix string) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := g.now().UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms

	return prefix + "-" + strconv.FormatInt(ms, 10)
}

// ParseRef splits a reference into its prefix and millisecond stamp.
func ParseRef(ref string) (prefix string, at time.Time, err error) {
	prefix, stamp, ok := strings.Cut(ref, "-")
	if !ok || prefix == "" {
		return "", time.Time{}, fmt.Errorf("invalid reference format: %q", ref)
	}
	ms, err := strconv.ParseInt(stamp, 10, 64)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("invalid reference stamp: %w", err)
	}
	return prefix, time.UnixMilli(ms).UTC(), nil
}
