package model

import "time"

// User mirrors the identity asserted by the external identity provider. The
// OAuth handshake lives outside this service; records here are synced from
// token claims and gate access to banking operations.
type User struct {
	UserID      string    `bson:"user_id" json:"user_id"`
	AuthentikID string    `bson:"authentik_id" json:"authentik_id"`
	Username    string    `bson:"username" json:"username"`
	Email       string    `bson:"email" json:"email"`
	FullName    string    `bson:"full_name,omitempty" json:"full_name,omitempty"`
	IsActive    bool      `bson:"is_active" json:"is_active"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updated_at"`
}
