package repository

import (
	"path/filepath"
	"testing"

	"github.com/monsoonlab/india-weather-collector/internal/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestArchive(t *testing.T) *SQLiteForecastRepository {
	t.Helper()
	repo, err := NewSQLiteForecastRepository(filepath.Join(t.TempDir(), "weather.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestArchiveSaveAndLoad(t *testing.T) {
	repo := newTestArchive(t)

	visibility := 10000
	delhi := delhiPoint(t)
	mumbai := delhiPoint(t)
	mumbai.City = "Mumbai"
	mumbai.Visibility = &visibility
	mumbai.Rainfall = 2.5

	require.NoError(t, repo.SaveForecastTable(entities.ForecastTable{delhi, mumbai}))

	loaded, err := repo.LoadForecastTable()
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	// Ordered by city, timestamp
	assert.Equal(t, delhi, loaded[0])
	assert.Equal(t, mumbai, loaded[1])
}

func TestArchiveConflictingInsertKeepsFirstRow(t *testing.T) {
	repo := newTestArchive(t)

	require.NoError(t, repo.SaveForecastTable(entities.ForecastTable{delhiPoint(t)}))

	updated := delhiPoint(t)
	updated.Temperature = 99.9
	require.NoError(t, repo.SaveForecastTable(entities.ForecastTable{updated}))

	loaded, err := repo.LoadForecastTable()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, 30.5, loaded[0].Temperature)
}

func TestArchiveLastUpdateTime(t *testing.T) {
	repo := newTestArchive(t)

	last, err := repo.LastUpdateTime()
	require.NoError(t, err)
	assert.True(t, last.IsZero())

	earlier := delhiPoint(t)
	later := delhiPoint(t)
	later.Timestamp = mustTime(t, "2024-06-02 09:00:00")
	require.NoError(t, repo.SaveForecastTable(entities.ForecastTable{earlier, later}))

	last, err = repo.LastUpdateTime()
	require.NoError(t, err)
	assert.Equal(t, later.Timestamp, last)
}
