// Package usecases contains the application's business logic
package usecases

import (
	"context"
	"fmt"
	"log"

	"github.com/monsoonlab/india-weather-collector/internal/entities"
	"github.com/monsoonlab/india-weather-collector/internal/repository"
)

// ForecastFetcher is the slice of the weather client the collector needs
type ForecastFetcher interface {
	FetchForecast(ctx context.Context, cityID string) (entities.ForecastTable, error)
}

// City pairs a display name with its OpenWeatherMap city identifier
type City struct {
	Name string
	ID   string
}

// CollectUseCase drives one collection run: fetch the forecast for every
// registered city, tag the rows with the city name, and persist the
// combined table once.
type CollectUseCase struct {
	fetcher ForecastFetcher
	store   repository.ForecastRepository
	archive repository.ForecastRepository // optional, nil when disabled
	cities  []City
}

// NewCollectUseCase creates a new collection use case. archive may be nil.
func NewCollectUseCase(fetcher ForecastFetcher, store repository.ForecastRepository, archive repository.ForecastRepository, cities []City) *CollectUseCase {
	return &CollectUseCase{
		fetcher: fetcher,
		store:   store,
		archive: archive,
		cities:  cities,
	}
}

// CollectWeatherData fetches forecasts for every city in registry order and
// persists whatever succeeded. A failed city is logged and skipped, never
// fatal. When no city succeeds, nothing is written and any existing file is
// left untouched. Only a failure of the primary store surfaces as an error;
// the archive is best effort.
func (uc *CollectUseCase) CollectWeatherData(ctx context.Context) error {
	log.Println("Fetching weather data for all registered cities...")

	var combined entities.ForecastTable
	fetched := 0
	for _, city := range uc.cities {
		log.Printf("Fetching weather data for %s...", city.Name)
		table, err := uc.fetcher.FetchForecast(ctx, city.ID)
		if err != nil {
			log.Printf("Failed to fetch weather data for %s: %v", city.Name, err)
			continue
		}
		combined = append(combined, table.Tagged(city.Name)...)
		fetched++
	}

	if fetched == 0 {
		log.Println("No weather data fetched for any city")
		return nil
	}
	log.Printf("Fetched forecasts for %d of %d cities (%d rows)", fetched, len(uc.cities), len(combined))

	if err := uc.store.SaveForecastTable(combined); err != nil {
		return fmt.Errorf("failed to save weather data: %v", err)
	}

	if uc.archive != nil {
		if err := uc.archive.SaveForecastTable(combined); err != nil {
			log.Printf("Warning: failed to archive weather data: %v", err)
		}
	}

	return nil
}
