package db

import (
	"database/sql"
	"encoding/json"

	"github.com/fujie/v0-vcm/internal/models"
)

// InsertIssuedCredential stores a newly issued credential.
func InsertIssuedCredential(d *sql.DB, cred models.IssuedCredential) error {
	var dataJSON *string
	if len(cred.Data) > 0 {
		s := string(cred.Data)
		dataJSON = &s
	}
	_, err := d.Exec(
		"INSERT INTO issued_credentials (id, credential_type_id, credential_type_name, recipient_id, recipient_name, issued_at, status, data_json) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		cred.ID, cred.CredentialTypeID, cred.CredentialTypeName, cred.RecipientID, cred.RecipientName, cred.IssuedAt, cred.Status, dataJSON,
	)
	return err
}

// GetIssuedCredential retrieves an issued credential by ID, or nil when absent.
func GetIssuedCredential(d *sql.DB, id string) (*models.IssuedCredential, error) {
	row := d.QueryRow(
		"SELECT id, credential_type_id, credential_type_name, recipient_id, recipient_name, issued_at, status, revoked_at, revocation_reason, data_json FROM issued_credentials WHERE id = ?",
		id,
	)
	var cred models.IssuedCredential
	var revokedAt, reason, dataJSON *string
	err := row.Scan(&cred.ID, &cred.CredentialTypeID, &cred.CredentialTypeName, &cred.RecipientID, &cred.RecipientName, &cred.IssuedAt, &cred.Status, &revokedAt, &reason, &dataJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if revokedAt != nil {
		cred.RevokedAt = *revokedAt
	}
	if reason != nil {
		cred.RevocationReason = *reason
	}
	if dataJSON != nil {
		cred.Data = json.RawMessage(*dataJSON)
	}
	return &cred, nil
}

// RevokeIssuedCredential marks a credential revoked. It reports whether a
// matching credential existed.
func RevokeIssuedCredential(d *sql.DB, id, reason, revokedAt string) (bool, error) {
	result, err := d.Exec(
		"UPDATE issued_credentials SET status = ?, revoked_at = ?, revocation_reason = ? WHERE id = ?",
		models.CredentialStatusRevoked, revokedAt, reason, id,
	)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CountIssuedCredentials returns the number of stored issued credentials.
func CountIssuedCredentials(d *sql.DB) (int, error) {
	var count int
	err := d.QueryRow("SELECT COUNT(*) FROM issued_credentials").Scan(&count)
	return count, err
}
