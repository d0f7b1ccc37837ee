package services

import (
	"context"
	"encoding/hex"
	"errors"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/foxxcyber/shoe-compare/internal/models"
)

// IPHasher pseudonymises client addresses before they are stored
type IPHasher struct {
	key [32]byte
}

// NewIPHasher returns a hasher keyed by secret, or nil when secret is empty
func NewIPHasher(secret string) *IPHasher {
	if secret == "" {
		return nil
	}
	return &IPHasher{key: blake2b.Sum256([]byte(secret))}
}

// Hash returns the keyed BLAKE2b-256 digest of ip as hex
func (h *IPHasher) Hash(ip string) string {
	if h == nil || ip == "" {
		return ip
	}
	mac, err := blake2b.New256(h.key[:])
	if err != nil {
		return ""
	}
	mac.Write([]byte(ip))
	return hex.EncodeToString(mac.Sum(nil))
}

// SearchCounter tracks per-query search counts for trending
type SearchCounter interface {
	IncrementSearch(ctx context.Context, normalizedQuery string, resultCount int, at time.Time) error
}

// AnalyticsRecorder fans a search record out to the query log and the
// trending counter
type AnalyticsRecorder struct {
	sink    SearchLogger
	counter SearchCounter
	hasher  *IPHasher
	now     func() time.Time
}

// NewAnalyticsRecorder creates a recorder. Any dependency may be nil.
func NewAnalyticsRecorder(sink SearchLogger, counter SearchCounter, hasher *IPHasher) *AnalyticsRecorder {
	return &AnalyticsRecorder{
		sink:    sink,
		counter: counter,
		hasher:  hasher,
		now:     time.Now,
	}
}

// LogSearchQuery implements SearchLogger
func (r *AnalyticsRecorder) LogSearchQuery(ctx context.Context, entry models.SearchLogEntry) error {
	entry.UserIP = r.hasher.Hash(entry.UserIP)

	var errs []error
	if r.sink != nil {
		if err := r.sink.LogSearchQuery(ctx, entry); err != nil {
			errs = append(errs, err)
		}
	}

	// Only real matches feed trending
	if r.counter != nil && entry.NormalizedQuery != "" && entry.ResultCount > 0 {
		if err := r.counter.IncrementSearch(ctx, entry.NormalizedQuery, entry.ResultCount, r.now()); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
