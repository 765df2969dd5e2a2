// Package settings provides the repository for user-adjustable application
// settings. Settings are key-value pairs stored in the journal database and
// take precedence over environment variables.
package settings

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// Setting is one stored key-value pair
type Setting struct {
	Key         string  `json:"key"`
	Value       string  `json:"value"`
	Description *string `json:"description,omitempty"`
}

// Repository handles settings database operations
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new settings repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "settings").Logger(),
	}
}

// Get retrieves a setting value by key.
// Returns nil if the setting doesn't exist (not an error).
func (r *Repository) Get(key string) (*string, error) {
	var value string
	err := r.db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return &value, nil
}

// GetFloat retrieves a setting as a float, returning the fallback when the
// setting is missing or not numeric.
func (r *Repository) GetFloat(key string, fallback float64) (float64, error) {
	value, err := r.Get(key)
	if err != nil {
		return fallback, err
	}
	if value == nil {
		return fallback, nil
	}
	parsed, err := strconv.ParseFloat(*value, 64)
	if err != nil {
		r.log.Warn().Str("key", key).Str("value", *value).Msg("Setting is not numeric, using fallback")
		return fallback, nil
	}
	return parsed, nil
}

// GetAll retrieves every stored setting
func (r *Repository) GetAll() ([]Setting, error) {
	rows, err := r.db.Query("SELECT key, value, description FROM settings ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	defer rows.Close()

	var result []Setting
	for rows.Next() {
		var s Setting
		var description sql.NullString
		if err := rows.Scan(&s.Key, &s.Value, &description); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		if description.Valid {
			s.Description = &description.String
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settings: %w", err)
	}

	return result, nil
}

// Set upserts a setting value. The description is optional.
func (r *Repository) Set(key string, value string, description *string) error {
	now := time.Now().Unix()

	var err error
	if description != nil {
		_, err = r.db.Exec(`
			INSERT INTO settings (key, value, description, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET
				value = excluded.value,
				description = excluded.description,
				updated_at = excluded.updated_at
		`, key, value, *description, now)
	} else {
		_, err = r.db.Exec(`
			INSERT INTO settings (key, value, updated_at)
			VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET
				value = excluded.value,
				updated_at = excluded.updated_at
		`, key, value, now)
	}
	if err != nil {
		return fmt.Errorf("failed to set setting %s: %w", key, err)
	}

	r.log.Debug().Str("key", key).Msg("Setting updated")
	return nil
}
