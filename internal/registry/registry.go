// Package registry owns the canonical credential type records and the
// issued-credential ledger.
package registry

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fujie/v0-vcm/internal/db"
	"github.com/fujie/v0-vcm/internal/models"
	"github.com/fujie/v0-vcm/internal/schema"
)

// Registry is the record-store capability handlers depend on. The sync
// client-data path uses ReplaceAll; everything else reads.
type Registry interface {
	List() ([]models.CredentialTypeDefinition, error)
	ListActive() ([]models.CredentialTypeDefinition, error)
	Get(id string) (*models.CredentialTypeDefinition, error)
	ReplaceAll(defs []models.CredentialTypeDefinition) error

	SaveIssued(cred models.IssuedCredential) error
	GetIssued(id string) (*models.IssuedCredential, error)
	RevokeIssued(id, reason string, at time.Time) (bool, error)

	Counts() (types int, issued int, err error)
}

// SQLite is the sqlite-backed Registry.
type SQLite struct {
	DB *sql.DB
}

func NewSQLite(d *sql.DB) *SQLite {
	return &SQLite{DB: d}
}

// Seed populates an empty registry. A non-empty seedJSON is parsed as a
// definition list; when it is absent or malformed the built-in sample
// records are used instead. A non-empty registry is left untouched.
func (r *SQLite) Seed(seedJSON string) error {
	count, err := db.CountCredentialTypes(r.DB)
	if err != nil {
		return fmt.Errorf("count credential types: %w", err)
	}
	if count > 0 {
		return nil
	}

	defs := SampleCredentialTypes()
	if seedJSON != "" {
		var seeded []models.CredentialTypeDefinition
		if err := json.Unmarshal([]byte(seedJSON), &seeded); err == nil {
			defs = seeded
		}
	}
	return r.ReplaceAll(defs)
}

func (r *SQLite) List() ([]models.CredentialTypeDefinition, error) {
	return db.ListCredentialTypes(r.DB)
}

func (r *SQLite) ListActive() ([]models.CredentialTypeDefinition, error) {
	return db.ListActiveCredentialTypes(r.DB)
}

func (r *SQLite) Get(id string) (*models.CredentialTypeDefinition, error) {
	return db.GetCredentialType(r.DB, id)
}

// ReplaceAll atomically replaces the whole definition set. Definitions are
// validated first; a rejected set leaves the registry unchanged.
func (r *SQLite) ReplaceAll(defs []models.CredentialTypeDefinition) error {
	seen := make(map[string]bool, len(defs))
	for _, def := range defs {
		if err := schema.ValidateDefinition(def); err != nil {
			return err
		}
		if seen[def.ID] {
			return fmt.Errorf("duplicate credential type id %s", def.ID)
		}
		seen[def.ID] = true
	}
	return db.ReplaceCredentialTypes(r.DB, defs)
}

func (r *SQLite) SaveIssued(cred models.IssuedCredential) error {
	return db.InsertIssuedCredential(r.DB, cred)
}

func (r *SQLite) GetIssued(id string) (*models.IssuedCredential, error) {
	return db.GetIssuedCredential(r.DB, id)
}

func (r *SQLite) RevokeIssued(id, reason string, at time.Time) (bool, error) {
	return db.RevokeIssuedCredential(r.DB, id, reason, at.UTC().Format(time.RFC3339))
}

func (r *SQLite) Counts() (int, int, error) {
	types, err := db.CountCredentialTypes(r.DB)
	if err != nil {
		return 0, 0, err
	}
	issued, err := db.CountIssuedCredentials(r.DB)
	if err != nil {
		return 0, 0, err
	}
	return types, issued, nil
}

// SampleCredentialTypes returns the built-in sample records used when no
// seed data is configured.
func SampleCredentialTypes() []models.CredentialTypeDefinition {
	return []models.CredentialTypeDefinition{
		{
			ID:          "1",
			Name:        "学生証",
			Description: "大学の学生証明書",
			Version:     "1.0",
			Schema: models.CredentialSchema{
				Type: "object",
				Properties: map[string]models.Property{
					"studentId":      {Type: "string", Title: "学籍番号"},
					"name":           {Type: "string", Title: "氏名"},
					"department":     {Type: "string", Title: "学部"},
					"year":           {Type: "number", Title: "学年"},
					"enrollmentDate": {Type: "string", Format: "date", Title: "入学日"},
				},
				Required: []string{"studentId", "name", "department", "year"},
			},
			IsActive:  true,
			CreatedAt: "2024-01-15",
			UpdatedAt: "2024-01-15",
		},
		{
			ID:          "2",
			Name:        "卒業証明書",
			Description: "大学の卒業証明書",
			Version:     "1.0",
			Schema: models.CredentialSchema{
				Type: "object",
				Properties: map[string]models.Property{
					"studentId":      {Type: "string", Title: "学籍番号"},
					"name":           {Type: "string", Title: "氏名"},
					"department":     {Type: "string", Title: "学部"},
					"graduationDate": {Type: "string", Format: "date", Title: "卒業日"},
					"degree":         {Type: "string", Title: "学位"},
				},
				Required: []string{"studentId", "name", "department", "graduationDate", "degree"},
			},
			IsActive:  true,
			CreatedAt: "2024-01-20",
			UpdatedAt: "2024-01-20",
		},
	}
}
