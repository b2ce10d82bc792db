package repository

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/monsoonlab/india-weather-collector/internal/entities"
)

// DefaultCSVPath is where the collector writes its data when no explicit
// path is configured.
const DefaultCSVPath = "india_weather_data.csv"

// csvHeader is the stable column order of the persisted file.
var csvHeader = []string{
	"timestamp", "temperature", "humidity", "wind_speed", "pressure",
	"visibility", "rainfall", "cloud_cover", "icon", "description", "city",
}

// CSVForecastRepository persists forecast tables to a single CSV file,
// merging new rows with previously saved ones on every save.
type CSVForecastRepository struct {
	Path string
}

// NewCSVForecastRepository creates a CSV repository. An empty path selects
// DefaultCSVPath in the working directory.
func NewCSVForecastRepository(path string) *CSVForecastRepository {
	if path == "" {
		path = DefaultCSVPath
	}
	return &CSVForecastRepository{Path: path}
}

// Close is a no-op; the file is only held open during a save or load.
func (r *CSVForecastRepository) Close() error {
	return nil
}

// SaveForecastTable merges table with the rows already on disk, removes
// duplicate (timestamp, city) rows keeping the earlier occurrence (so
// previously saved data wins over fresh data for the same key), and rewrites
// the file in full. A missing or unreadable prior file is treated as an
// empty prior table.
func (r *CSVForecastRepository) SaveForecastTable(table entities.ForecastTable) error {
	prior, err := r.LoadForecastTable()
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: could not read existing data at %s, starting fresh: %v", r.Path, err)
		}
		prior = nil
	}

	merged := append(prior, table...).Deduplicate()

	// Write to a temp file in the target directory and rename into place so
	// a failed write never truncates previously collected data.
	tmp, err := os.CreateTemp(filepath.Dir(r.Path), ".weather-*.csv")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %v", err)
	}
	defer os.Remove(tmp.Name())

	writer := csv.NewWriter(tmp)
	if err := writer.Write(csvHeader); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write header: %v", err)
	}
	for _, p := range merged {
		if err := writer.Write(encodeRow(p)); err != nil {
			tmp.Close()
			return fmt.Errorf("failed to write row: %v", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to flush data: %v", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %v", err)
	}

	if err := os.Rename(tmp.Name(), r.Path); err != nil {
		return fmt.Errorf("failed to replace %s: %v", r.Path, err)
	}

	log.Printf("Weather data saved to %s (%d rows)", r.Path, len(merged))
	return nil
}

// LoadForecastTable reads the persisted table back from disk. A missing file
// surfaces as an os.IsNotExist error.
func (r *CSVForecastRepository) LoadForecastTable() (entities.ForecastTable, error) {
	f, err := os.Open(r.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %v", r.Path, err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	// Skip the header row.
	table := make(entities.ForecastTable, 0, len(records)-1)
	for i, record := range records[1:] {
		point, err := decodeRow(record)
		if err != nil {
			return nil, fmt.Errorf("invalid row %d in %s: %v", i+2, r.Path, err)
		}
		table = append(table, point)
	}
	return table, nil
}

// encodeRow serializes a point in csvHeader column order. A nil Visibility
// becomes an empty cell.
func encodeRow(p entities.ForecastPoint) []string {
	visibility := ""
	if p.Visibility != nil {
		visibility = strconv.Itoa(*p.Visibility)
	}
	return []string{
		p.Timestamp.Format(entities.TimestampLayout),
		strconv.FormatFloat(p.Temperature, 'f', -1, 64),
		strconv.Itoa(p.Humidity),
		strconv.FormatFloat(p.WindSpeed, 'f', -1, 64),
		strconv.Itoa(p.Pressure),
		visibility,
		strconv.FormatFloat(p.Rainfall, 'f', -1, 64),
		strconv.Itoa(p.CloudCover),
		p.Icon,
		p.Description,
		p.City,
	}
}

func decodeRow(record []string) (entities.ForecastPoint, error) {
	if len(record) != len(csvHeader) {
		return entities.ForecastPoint{}, fmt.Errorf("expected %d columns, got %d", len(csvHeader), len(record))
	}

	timestamp, err := time.Parse(entities.TimestampLayout, record[0])
	if err != nil {
		return entities.ForecastPoint{}, fmt.Errorf("invalid timestamp %q: %v", record[0], err)
	}
	temperature, err := strconv.ParseFloat(record[1], 64)
	if err != nil {
		return entities.ForecastPoint{}, fmt.Errorf("invalid temperature %q: %v", record[1], err)
	}
	humidity, err := strconv.Atoi(record[2])
	if err != nil {
		return entities.ForecastPoint{}, fmt.Errorf("invalid humidity %q: %v", record[2], err)
	}
	windSpeed, err := strconv.ParseFloat(record[3], 64)
	if err != nil {
		return entities.ForecastPoint{}, fmt.Errorf("invalid wind_speed %q: %v", record[3], err)
	}
	pressure, err := strconv.Atoi(record[4])
	if err != nil {
		return entities.ForecastPoint{}, fmt.Errorf("invalid pressure %q: %v", record[4], err)
	}
	var visibility *int
	if record[5] != "" {
		v, err := strconv.Atoi(record[5])
		if err != nil {
			return entities.ForecastPoint{}, fmt.Errorf("invalid visibility %q: %v", record[5], err)
		}
		visibility = &v
	}
	rainfall, err := strconv.ParseFloat(record[6], 64)
	if err != nil {
		return entities.ForecastPoint{}, fmt.Errorf("invalid rainfall %q: %v", record[6], err)
	}
	cloudCover, err := strconv.Atoi(record[7])
	if err != nil {
		return entities.ForecastPoint{}, fmt.Errorf("invalid cloud_cover %q: %v", record[7], err)
	}

	return entities.ForecastPoint{
		Timestamp:   timestamp,
		Temperature: temperature,
		Humidity:    humidity,
		WindSpeed:   windSpeed,
		Pressure:    pressure,
		Visibility:  visibility,
		Rainfall:    rainfall,
		CloudCover:  cloudCover,
		Icon:        record[8],
		Description: record[9],
		City:        record[10],
	}, nil
}
