package model

import "time"

const (
	AuditOutcomeSuccess = "success"
	AuditOutcomeFailure = "failure"

	// Actor recorded when no user context exists (startup, cleanup jobs).
	AuditActorSystem = "system"
)

// AuditLog is an append-only record of a state-changing action and its
// outcome. Entries are immutable once written.
type AuditLog struct {
	EntryID      string                 `bson:"entry_id" json:"entry_id"`
	Actor        string                 `bson:"actor" json:"actor"`
	Action       string                 `bson:"action" json:"action"`
	ResourceType string                 `bson:"resource_type,omitempty" json:"resource_type,omitempty"`
	ResourceID   string                 `bson:"resource_id,omitempty" json:"resource_id,omitempty"`
	IPAddress    string                 `bson:"ip_address,omitempty" json:"ip_address,omitempty"`
	UserAgent    string                 `bson:"user_agent,omitempty" json:"user_agent,omitempty"`
	Device       string                 `bson:"device,omitempty" json:"device,omitempty"`
	Outcome      string                 `bson:"outcome" json:"outcome"`
	Details      map[string]interface{} `bson:"details,omitempty" json:"details,omitempty"`
	CreatedAt    time.Time              `bson:"created_at" json:"created_at"`
}
