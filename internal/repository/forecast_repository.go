// Package repository provides data access implementations
package repository

import (
	"github.com/monsoonlab/india-weather-collector/internal/entities"
)

// ForecastRepository defines the interface for forecast persistence operations
type ForecastRepository interface {
	// SaveForecastTable merges table with any previously saved rows,
	// deduplicating by (timestamp, city) with earlier rows winning.
	SaveForecastTable(table entities.ForecastTable) error
	// LoadForecastTable returns the currently persisted table.
	LoadForecastTable() (entities.ForecastTable, error)
	Close() error
}

// Verify that both stores implement the repository interface
var (
	_ ForecastRepository = (*CSVForecastRepository)(nil)
	_ ForecastRepository = (*SQLiteForecastRepository)(nil)
)
