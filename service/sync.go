package service

import (
	"context"
	"fmt"
	"time"
)

// SyncReport is the outcome of one reconciliation run.
type SyncReport struct {
	InSync        bool      `json:"inSync"`
	DatabaseCount int       `json:"databaseCount"`
	StorageCount  int       `json:"storageCount"`
	Discrepancies []string  `json:"discrepancies"`
	CheckedAt     time.Time `json:"checkedAt"`
}

// Sync diffs the asset ids recorded in the database against the ids actually
// present in the media store. The two reads are not atomic, so a concurrent
// create or delete can show up as a false discrepancy; the check is
// diagnostic, not authoritative. The storage side is a single listing capped
// at the configured maximum.
func (g *Gallery) Sync(ctx context.Context) (*SyncReport, error) {
	dbIDs, err := g.repo.AssetIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("load database asset ids: %w", err)
	}

	storeIDs, err := g.media.List(ctx, g.syncCap)
	if err != nil {
		return nil, fmt.Errorf("list storage assets: %w", err)
	}

	report := CompareAssetSets(dbIDs, storeIDs)
	report.CheckedAt = nowUTC()
	return report, nil
}

// CompareAssetSets computes the symmetric difference between the
// database-side and storage-side asset id sets. One discrepancy line per
// asymmetric element, database-only ids first, each side in input order.
// O(m+n) with hash-set membership tests.
func CompareAssetSets(dbIDs, storeIDs []string) *SyncReport {
	inDB := make(map[string]struct{}, len(dbIDs))
	for _, id := range dbIDs {
		inDB[id] = struct{}{}
	}
	inStore := make(map[string]struct{}, len(storeIDs))
	for _, id := range storeIDs {
		inStore[id] = struct{}{}
	}

	discrepancies := []string{}
	seen := make(map[string]struct{}, len(dbIDs))
	for _, id := range dbIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := inStore[id]; !ok {
			discrepancies = append(discrepancies, fmt.Sprintf("asset %s exists in database but not in storage", id))
		}
	}
	seen = make(map[string]struct{}, len(storeIDs))
	for _, id := range storeIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := inDB[id]; !ok {
			discrepancies = append(discrepancies, fmt.Sprintf("asset %s exists in storage but not in database", id))
		}
	}

	return &SyncReport{
		InSync:        len(discrepancies) == 0,
		DatabaseCount: len(inDB),
		StorageCount:  len(inStore),
		Discrepancies: discrepancies,
	}
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
