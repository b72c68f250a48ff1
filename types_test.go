package tablebridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultScanConfig_MatchesSpecDefaults(t *testing.T) {
	cfg := DefaultScanConfig()
	assert.False(t, cfg.IncludeFilePathColumn)
	assert.True(t, cfg.WrapPartitionValues)
	assert.True(t, cfg.PushdownFilters)
	assert.Nil(t, cfg.OverrideSchema)
}

func TestNewMetrics_StartsWithMandatoryCountersAtZero(t *testing.T) {
	m := NewMetrics()
	assert.Equal(t, int64(0), m.Get("files_scanned"))
	assert.Equal(t, int64(0), m.Get("files_pruned"))
}

func TestMetrics_GetUnsetKeyIsZero(t *testing.T) {
	m := NewMetrics()
	assert.Equal(t, int64(0), m.Get("never_set"))
}

func TestMetrics_SetThenGetRoundTrips(t *testing.T) {
	m := NewMetrics()
	m.Set("files_scanned", 7)
	assert.Equal(t, int64(7), m.Get("files_scanned"))
}

func TestMetrics_SnapshotIsACopy(t *testing.T) {
	m := NewMetrics()
	m.Set("files_scanned", 3)

	snap := m.Snapshot()
	snap["files_scanned"] = 99
	assert.Equal(t, int64(3), m.Get("files_scanned"), "mutating the snapshot must not affect the source")
}
