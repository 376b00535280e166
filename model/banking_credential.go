package model

import "time"

// BankingCredential is metadata about a credential held in the secret store.
// Only the opaque reference lives here; the secret value itself never touches
// this database.
type BankingCredential struct {
	CredentialID      string     `bson:"credential_id" json:"credential_id"`
	BankingSiteID     string     `bson:"banking_site_id" json:"banking_site_id"`
	InfisicalSecretID string     `bson:"infisical_secret_id" json:"infisical_secret_id"`
	Name              string     `bson:"name" json:"name"`
	IsActive          bool       `bson:"is_active" json:"is_active"`
	LastUsed          *time.Time `bson:"last_used,omitempty" json:"last_used,omitempty"`
	CreatedAt         time.Time  `bson:"created_at" json:"created_at"`
}
