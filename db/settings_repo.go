package db

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/tfkr-ae/trustreg/domain"
)

var _ domain.SettingsRepository = (*Repository)(nil)

// dbNestedValue represents a nested value as stored in the settings table.
type dbNestedValue struct {
	ID             uuid.UUID     `db:"id"`
	Section        string        `db:"section"`
	Subsection     string        `db:"subsection"`
	Key            string        `db:"key"`
	Value          string        `db:"value"`
	Priority       sql.NullInt64 `db:"priority"`
	AdditionalData Metadata      `db:"additional_data"`
	Position       int           `db:"position"`
}

// toDomainNestedValue converts a dbNestedValue to a domain.NestedValue.
func toDomainNestedValue(dbValue *dbNestedValue) *domain.NestedValue {
	value := &domain.NestedValue{
		Key:            dbValue.Key,
		Value:          dbValue.Value,
		AdditionalData: map[string]string(dbValue.AdditionalData),
	}
	if value.AdditionalData == nil {
		value.AdditionalData = make(map[string]string)
	}

	if dbValue.Priority.Valid {
		priority := int(dbValue.Priority.Int64)
		value.Priority = &priority
	}

	return value
}

// fromDomainNestedValue converts a domain.NestedValue to a dbNestedValue placed at position.
func fromDomainNestedValue(section, subsection string, position int, value *domain.NestedValue) (*dbNestedValue, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("creating uuid: %w", err)
	}

	dbValue := &dbNestedValue{
		ID:             id,
		Section:        section,
		Subsection:     subsection,
		Key:            value.Key,
		Value:          value.Value,
		AdditionalData: Metadata(value.AdditionalData),
		Position:       position,
	}

	if value.Priority != nil {
		dbValue.Priority = sql.NullInt64{Int64: int64(*value.Priority), Valid: true}
	}

	return dbValue, nil
}

// GetSubsections implements the domain.SettingsRepository interface.
// Subsection names are returned once each, in the order they were first written.
func (repo *Repository) GetSubsections(section string) ([]string, error) {
	var names []string
	query := `SELECT subsection FROM settings WHERE section = ? GROUP BY subsection ORDER BY MIN(rowid) ASC`

	err := repo.dbConn.Select(&names, query, section)
	if err != nil {
		return nil, fmt.Errorf("listing subsections of %s: %w", section, err)
	}

	if names == nil {
		names = make([]string, 0)
	}
	return names, nil
}

// GetNestedValues implements the domain.SettingsRepository interface.
// The subsection is matched case-insensitively.
func (repo *Repository) GetNestedValues(section string, subsection string) ([]*domain.NestedValue, error) {
	var dbValues []*dbNestedValue
	query := `SELECT id, section, subsection, key, value, priority, additional_data, position
	          FROM settings
	          WHERE section = ? AND subsection = ? COLLATE NOCASE
	          ORDER BY position ASC, rowid ASC`

	err := repo.dbConn.Select(&dbValues, query, section, subsection)
	if err != nil {
		return nil, fmt.Errorf("fetching nested values of %s/%s: %w", section, subsection, err)
	}

	values := make([]*domain.NestedValue, len(dbValues))
	for i, dbValue := range dbValues {
		values[i] = toDomainNestedValue(dbValue)
	}
	return values, nil
}

// SetNestedValues implements the domain.SettingsRepository interface.
// The existing values of the subsection are replaced inside a single transaction.
// When values repeat a key, the first occurrence wins.
func (repo *Repository) SetNestedValues(section string, subsection string, values []*domain.NestedValue) (err error) {
	tx, err := repo.dbConn.Beginx()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	_, err = tx.Exec(`DELETE FROM settings WHERE section = ? AND subsection = ? COLLATE NOCASE`, section, subsection)
	if err != nil {
		return fmt.Errorf("clearing %s/%s: %w", section, subsection, err)
	}

	query := `INSERT INTO settings (id, section, subsection, key, value, priority, additional_data, position)
	          VALUES (:id, :section, :subsection, :key, :value, :priority, :additional_data, :position)`

	written := make(map[string]struct{}, len(values))
	for i, value := range values {
		folded := strings.ToLower(value.Key)
		if _, ok := written[folded]; ok {
			continue
		}
		written[folded] = struct{}{}

		dbValue, err := fromDomainNestedValue(section, subsection, i, value)
		if err != nil {
			return err
		}
		_, err = tx.NamedExec(query, dbValue)
		if err != nil {
			return fmt.Errorf("inserting %s into %s/%s: %w", value.Key, section, subsection, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing %s/%s: %w", section, subsection, err)
	}
	return nil
}

// DeleteSection implements the domain.SettingsRepository interface.
func (repo *Repository) DeleteSection(section string) error {
	_, err := repo.dbConn.Exec(`DELETE FROM settings WHERE section = ?`, section)
	if err != nil {
		return fmt.Errorf("deleting section %s: %w", section, err)
	}
	return nil
}
