package model

import "time"

// Lifecycle states for a BankingSession. pending moves to active or failed
// after the login attempt; active moves to completed (or
// completed_with_warning when the remote teardown errored) via the end
// operation. failed, completed and completed_with_warning are terminal.
const (
	SessionStatusPending              = "pending"
	SessionStatusActive               = "active"
	SessionStatusFailed               = "failed"
	SessionStatusCompleted            = "completed"
	SessionStatusCompletedWithWarning = "completed_with_warning"
)

// BankingSession is the orchestration record for one remote banking
// workspace. Rows are never deleted, only moved to a terminal status.
type BankingSession struct {
	SessionID       string                 `bson:"session_id" json:"session_id"`
	UserID          string                 `bson:"user_id" json:"user_id"`
	BankingSiteID   string                 `bson:"banking_site_id" json:"banking_site_id"`
	SiteCode        string                 `bson:"site_code" json:"site_code"`
	KasmSessionID   string                 `bson:"kasm_session_id,omitempty" json:"kasm_session_id,omitempty"`
	KasmWorkspaceID string                 `bson:"kasm_workspace_id,omitempty" json:"kasm_workspace_id,omitempty"`
	KasmURL         string                 `bson:"kasm_url,omitempty" json:"kasm_url,omitempty"`
	Status          string                 `bson:"status" json:"status"`
	RecordingPath   string                 `bson:"recording_path,omitempty" json:"recording_path,omitempty"`
	ArtifactPath    string                 `bson:"artifact_path,omitempty" json:"artifact_path,omitempty"`
	StartedAt       time.Time              `bson:"started_at" json:"started_at"`
	EndedAt         *time.Time             `bson:"ended_at,omitempty" json:"ended_at,omitempty"`
	Metadata        map[string]interface{} `bson:"metadata,omitempty" json:"metadata,omitempty"`
}

// IsTerminal reports whether no further orchestration may touch the session.
func (s *BankingSession) IsTerminal() bool {
	switch s.Status {
	case SessionStatusFailed, SessionStatusCompleted, SessionStatusCompletedWithWarning:
		return true
	}
	return false
}
