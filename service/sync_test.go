package service

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompareAssetSetsInSync(t *testing.T) {
	ids := []string{"gallery/a.jpg", "gallery/b.png", "gallery/c.gif"}

	report := CompareAssetSets(ids, []string{"gallery/c.gif", "gallery/a.jpg", "gallery/b.png"})

	assert.True(t, report.InSync)
	assert.Empty(t, report.Discrepancies)
	assert.Equal(t, 3, report.DatabaseCount)
	assert.Equal(t, 3, report.StorageCount)
}

func TestCompareAssetSetsBothEmpty(t *testing.T) {
	report := CompareAssetSets(nil, nil)

	assert.True(t, report.InSync)
	assert.Empty(t, report.Discrepancies)
	assert.Equal(t, 0, report.DatabaseCount)
	assert.Equal(t, 0, report.StorageCount)
}

func TestCompareAssetSetsDatabaseOnly(t *testing.T) {
	report := CompareAssetSets([]string{"gallery/a.jpg", "gallery/b.png"}, []string{"gallery/a.jpg"})

	assert.False(t, report.InSync)
	require.Len(t, report.Discrepancies, 1)
	assert.Equal(t, "asset gallery/b.png exists in database but not in storage", report.Discrepancies[0])
}

func TestCompareAssetSetsStorageOnly(t *testing.T) {
	report := CompareAssetSets([]string{"gallery/a.jpg"}, []string{"gallery/a.jpg", "gallery/z.png"})

	assert.False(t, report.InSync)
	require.Len(t, report.Discrepancies, 1)
	assert.Equal(t, "asset gallery/z.png exists in storage but not in database", report.Discrepancies[0])
}

func TestCompareAssetSetsBothSides(t *testing.T) {
	report := CompareAssetSets(
		[]string{"gallery/only-db-1", "gallery/shared", "gallery/only-db-2"},
		[]string{"gallery/shared", "gallery/only-store"},
	)

	assert.False(t, report.InSync)
	require.Len(t, report.Discrepancies, 3)
	// Database-only entries come first, each side in input order.
	assert.Equal(t, "asset gallery/only-db-1 exists in database but not in storage", report.Discrepancies[0])
	assert.Equal(t, "asset gallery/only-db-2 exists in database but not in storage", report.Discrepancies[1])
	assert.Equal(t, "asset gallery/only-store exists in storage but not in database", report.Discrepancies[2])
	assert.Equal(t, 3, report.DatabaseCount)
	assert.Equal(t, 2, report.StorageCount)
}

func TestCompareAssetSetsDuplicatesCountOnce(t *testing.T) {
	report := CompareAssetSets(
		[]string{"gallery/dup", "gallery/dup"},
		nil,
	)

	require.Len(t, report.Discrepancies, 1)
	assert.Equal(t, 1, report.DatabaseCount)
}

func TestCompareAssetSetsCountMatchesSymmetricDifference(t *testing.T) {
	for dbN := 0; dbN < 5; dbN++ {
		for storeN := 0; storeN < 5; storeN++ {
			var dbIDs, storeIDs []string
			for i := 0; i < dbN; i++ {
				dbIDs = append(dbIDs, fmt.Sprintf("gallery/db-%d", i))
			}
			for i := 0; i < storeN; i++ {
				storeIDs = append(storeIDs, fmt.Sprintf("gallery/store-%d", i))
			}
			// No overlap, so every element is asymmetric.
			report := CompareAssetSets(dbIDs, storeIDs)
			assert.Len(t, report.Discrepancies, dbN+storeN)
			assert.Equal(t, dbN+storeN == 0, report.InSync)
		}
	}
}
