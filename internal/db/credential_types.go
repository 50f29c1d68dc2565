package db

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/fujie/v0-vcm/internal/models"
)

func scanCredentialType(rows *sql.Rows) (models.CredentialTypeDefinition, error) {
	var def models.CredentialTypeDefinition
	var schemaJSON string
	var isActive int
	if err := rows.Scan(&def.ID, &def.Name, &def.Description, &def.Version, &schemaJSON, &isActive, &def.CreatedAt, &def.UpdatedAt); err != nil {
		return def, err
	}
	def.IsActive = isActive != 0
	if err := json.Unmarshal([]byte(schemaJSON), &def.Schema); err != nil {
		return def, fmt.Errorf("decode schema for %s: %w", def.ID, err)
	}
	return def, nil
}

func queryCredentialTypes(d *sql.DB, query string, args ...any) ([]models.CredentialTypeDefinition, error) {
	rows, err := d.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var defs []models.CredentialTypeDefinition
	for rows.Next() {
		def, err := scanCredentialType(rows)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, rows.Err()
}

// ListCredentialTypes returns all credential type definitions in registry order.
func ListCredentialTypes(d *sql.DB) ([]models.CredentialTypeDefinition, error) {
	return queryCredentialTypes(d,
		"SELECT id, name, description, version, schema_json, is_active, created_at, updated_at FROM credential_types ORDER BY position")
}

// ListActiveCredentialTypes returns the active definitions in registry order.
func ListActiveCredentialTypes(d *sql.DB) ([]models.CredentialTypeDefinition, error) {
	return queryCredentialTypes(d,
		"SELECT id, name, description, version, schema_json, is_active, created_at, updated_at FROM credential_types WHERE is_active = 1 ORDER BY position")
}

// GetCredentialType retrieves a definition by ID, or nil when absent.
func GetCredentialType(d *sql.DB, id string) (*models.CredentialTypeDefinition, error) {
	defs, err := queryCredentialTypes(d,
		"SELECT id, name, description, version, schema_json, is_active, created_at, updated_at FROM credential_types WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(defs) == 0 {
		return nil, nil
	}
	return &defs[0], nil
}

// CountCredentialTypes returns the number of stored definitions.
func CountCredentialTypes(d *sql.DB) (int, error) {
	var count int
	err := d.QueryRow("SELECT COUNT(*) FROM credential_types").Scan(&count)
	return count, err
}

// ReplaceCredentialTypes atomically replaces the whole definition set,
// preserving the order of defs as the registry order.
func ReplaceCredentialTypes(d *sql.DB, defs []models.CredentialTypeDefinition) error {
	tx, err := d.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM credential_types"); err != nil {
		return fmt.Errorf("clear credential types: %w", err)
	}

	for i, def := range defs {
		schemaJSON, err := json.Marshal(def.Schema)
		if err != nil {
			return fmt.Errorf("encode schema for %s: %w", def.ID, err)
		}
		isActive := 0
		if def.IsActive {
			isActive = 1
		}
		_, err = tx.Exec(
			"INSERT INTO credential_types (id, name, description, version, schema_json, is_active, created_at, updated_at, position) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
			def.ID, def.Name, def.Description, def.Version, string(schemaJSON), isActive, def.CreatedAt, def.UpdatedAt, i,
		)
		if err != nil {
			return fmt.Errorf("insert credential type %s: %w", def.ID, err)
		}
	}

	return tx.Commit()
}
