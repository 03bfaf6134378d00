package fakerevocationrepo

import (
	"context"
	"sync"
	"time"

	"github.com/jrsteele09/storefront-sessions/revocation"
)

var _ revocation.Store = (*FakeRevocationRepo)(nil)

// FakeRevocationRepo keeps revocation state in process memory. It backs the DEV
// environment and the unit tests.
type FakeRevocationRepo struct {
	records    map[string]revocation.Record
	watermarks map[string]time.Time
	lock       sync.RWMutex
}

func NewFakeRevocationRepo() *FakeRevocationRepo {
	return &FakeRevocationRepo{
		records:    make(map[string]revocation.Record),
		watermarks: make(map[string]time.Time),
	}
}

func (rr *FakeRevocationRepo) IsRevoked(_ context.Context, credential string) (bool, error) {
	rr.lock.RLock()
	defer rr.lock.RUnlock()

	_, ok := rr.records[credential]
	return ok, nil
}

func (rr *FakeRevocationRepo) Revoke(_ context.Context, record revocation.Record) error {
	rr.lock.Lock()
	defer rr.lock.Unlock()

	if _, ok := rr.records[record.Credential]; ok {
		return nil
	}
	rr.records[record.Credential] = record
	return nil
}

func (rr *FakeRevocationRepo) SetWatermark(_ context.Context, subjectID string, now time.Time) error {
	rr.lock.Lock()
	defer rr.lock.Unlock()

	rr.watermarks[subjectID] = now
	return nil
}

func (rr *FakeRevocationRepo) GetWatermark(_ context.Context, subjectID string) (revocation.Watermark, bool, error) {
	rr.lock.RLock()
	defer rr.lock.RUnlock()

	ts, ok := rr.watermarks[subjectID]
	if !ok {
		return revocation.Watermark{}, false, nil
	}
	return revocation.Watermark{SubjectID: subjectID, RevokedBefore: ts}, true, nil
}

func (rr *FakeRevocationRepo) PurgeExpired(_ context.Context, now time.Time) (int64, error) {
	rr.lock.Lock()
	defer rr.lock.Unlock()

	var removed int64
	for credential, record := range rr.records {
		if record.ExpiresAt.Before(now) {
			delete(rr.records, credential)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored revocation records
func (rr *FakeRevocationRepo) Len() int {
	rr.lock.RLock()
	defer rr.lock.RUnlock()
	return len(rr.records)
}
