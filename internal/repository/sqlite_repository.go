package repository

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/monsoonlab/india-weather-collector/internal/entities"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteForecastRepository archives forecast points in a SQLite database.
// It keeps the same (city, timestamp) dedup semantics as the CSV file: a
// conflicting insert is ignored, so the first row saved for a key wins.
type SQLiteForecastRepository struct {
	db     *sql.DB
	DBPath string
}

// NewSQLiteForecastRepository creates and initializes a new SQLite archive
func NewSQLiteForecastRepository(dbPath string) (*SQLiteForecastRepository, error) {
	if dbPath == "" {
		// Set default path if not specified
		dbDir := "data"
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %v", err)
		}
		dbPath = filepath.Join(dbDir, "weatherdata.db")
	}

	log.Printf("Opening archive database at %s", dbPath)
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS forecast_points (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		city TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		temperature REAL NOT NULL,
		humidity INTEGER NOT NULL,
		wind_speed REAL NOT NULL,
		pressure INTEGER NOT NULL,
		visibility INTEGER,
		rainfall REAL NOT NULL DEFAULT 0,
		cloud_cover INTEGER NOT NULL,
		icon TEXT NOT NULL,
		description TEXT NOT NULL,
		UNIQUE(city, timestamp)
	);
	CREATE INDEX IF NOT EXISTS idx_city ON forecast_points(city);
	CREATE INDEX IF NOT EXISTS idx_timestamp ON forecast_points(timestamp);`

	_, err = db.Exec(createTableSQL)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %v", err)
	}

	return &SQLiteForecastRepository{
		db:     db,
		DBPath: dbPath,
	}, nil
}

// Close closes the database connection
func (r *SQLiteForecastRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// SaveForecastTable stores forecast points in the database. Rows whose
// (city, timestamp) key is already present are left untouched.
func (r *SQLiteForecastRepository) SaveForecastTable(table entities.ForecastTable) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO forecast_points(
			city, timestamp, temperature, humidity, wind_speed,
			pressure, visibility, rainfall, cloud_cover, icon, description)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(city, timestamp) DO NOTHING
	`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare statement: %v", err)
	}
	defer stmt.Close()

	for _, p := range table {
		var visibility sql.NullInt64
		if p.Visibility != nil {
			visibility = sql.NullInt64{Int64: int64(*p.Visibility), Valid: true}
		}
		_, err := stmt.Exec(
			p.City,
			p.Timestamp.Format(entities.TimestampLayout),
			p.Temperature,
			p.Humidity,
			p.WindSpeed,
			p.Pressure,
			visibility,
			p.Rainfall,
			p.CloudCover,
			p.Icon,
			p.Description,
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert data for %s at %s: %v",
				p.City, p.Timestamp.Format(entities.TimestampLayout), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}

	log.Printf("Successfully archived %d forecast points", len(table))
	return nil
}

// LoadForecastTable retrieves all archived points ordered by city and time
func (r *SQLiteForecastRepository) LoadForecastTable() (entities.ForecastTable, error) {
	query := `
		SELECT city, timestamp, temperature, humidity, wind_speed,
		       pressure, visibility, rainfall, cloud_cover, icon, description
		FROM forecast_points
		ORDER BY city, timestamp`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query forecast points: %v", err)
	}
	defer rows.Close()

	var result entities.ForecastTable
	for rows.Next() {
		var p entities.ForecastPoint
		var timestampStr string
		var visibility sql.NullInt64
		if err := rows.Scan(
			&p.City,
			&timestampStr,
			&p.Temperature,
			&p.Humidity,
			&p.WindSpeed,
			&p.Pressure,
			&visibility,
			&p.Rainfall,
			&p.CloudCover,
			&p.Icon,
			&p.Description,
		); err != nil {
			return nil, fmt.Errorf("failed to scan row: %v", err)
		}
		p.Timestamp, err = time.Parse(entities.TimestampLayout, timestampStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse timestamp %q: %v", timestampStr, err)
		}
		if visibility.Valid {
			v := int(visibility.Int64)
			p.Visibility = &v
		}
		result = append(result, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %v", err)
	}

	return result, nil
}

// LastUpdateTime returns the most recent forecast timestamp in the archive,
// or the zero time when the archive is empty
func (r *SQLiteForecastRepository) LastUpdateTime() (time.Time, error) {
	var timestampStr sql.NullString
	err := r.db.QueryRow("SELECT MAX(timestamp) FROM forecast_points").Scan(&timestampStr)
	if err != nil {
		if err == sql.ErrNoRows {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("failed to get last update time: %v", err)
	}

	if !timestampStr.Valid || timestampStr.String == "" {
		return time.Time{}, nil
	}

	timestamp, err := time.Parse(entities.TimestampLayout, timestampStr.String)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %v", timestampStr.String, err)
	}
	return timestamp, nil
}
