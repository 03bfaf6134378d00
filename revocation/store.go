package revocation

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrStorage wraps every failure of the persistence collaborator. It lets callers tell
// "system unavailable" apart from an ordinary validity verdict.
var ErrStorage = errors.New("revocation storage failure")

// Record marks one credential as revoked before its natural expiry. The credential
// string itself is the key; ExpiresAt is copied from the credential so the reaper
// never has to decode it again.
type Record struct {
	Credential string
	SubjectID  string
	ExpiresAt  time.Time
}

// Watermark is the per-principal "logout everywhere" floor. Credentials issued at or
// before RevokedBefore are invalid.
type Watermark struct {
	SubjectID     string
	RevokedBefore time.Time
}

// Covers reports whether a credential issued at issuedAt falls under the watermark.
func (w Watermark) Covers(issuedAt time.Time) bool {
	return !issuedAt.After(w.RevokedBefore)
}

// Store is the durable home of revocation records and watermarks. Implementations
// must be safe for concurrent use and must not apply business rules.
type Store interface {
	// IsRevoked reports whether the exact credential string has been revoked
	IsRevoked(ctx context.Context, credential string) (bool, error)

	// Revoke inserts a record. Inserting the same credential twice is not an error.
	Revoke(ctx context.Context, record Record) error

	// SetWatermark creates or overwrites the subject's watermark with now
	SetWatermark(ctx context.Context, subjectID string, now time.Time) error

	// GetWatermark returns the subject's watermark; the bool is false when none exists
	GetWatermark(ctx context.Context, subjectID string) (Watermark, bool, error)

	// PurgeExpired deletes records whose ExpiresAt is strictly before now and returns
	// how many were removed. Watermarks are never purged.
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// StorageError wraps err with ErrStorage and an operation label.
func StorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}
