package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"

	"webasset/model"
	"webasset/services"
	"webasset/utils"
)

// Stores and external collaborators are consumed through interfaces so
// handler and orchestration tests can inject stubs.

type UserStore interface {
	FindByID(userID string) (*model.User, error)
}

type SiteStore interface {
	FindByID(siteID string) (*model.BankingSite, error)
}

type CredentialStore interface {
	FindByID(credentialID string) (*model.BankingCredential, error)
	TouchLastUsed(credentialID string) error
}

type SessionStore interface {
	CreateSession(session *model.BankingSession) error
	GetSession(sessionID string) (*model.BankingSession, error)
	GetOwnedActiveSession(sessionID, userID string) (*model.BankingSession, error)
	GetUserActiveSessions(userID string) ([]*model.BankingSession, error)
	CountActiveSessions(userID string) (int, error)
	CountOpenSessions(userID string) (int, error)
	TransitionStatus(sessionID, userID, from, to string, extra bson.M) error
}

type AuditStore interface {
	Append(entry *model.AuditLog) error
	ListForResource(resourceType, resourceID string, limit int64) ([]*model.AuditLog, error)
}

type SecretResolver interface {
	GetSecret(ctx context.Context, secretID, environment string) (services.Credential, error)
}

type WorkspaceProvisioner interface {
	CreateSession(ctx context.Context, userEmail, imageID string, enableRecording bool) (*services.KasmSession, error)
	GetSession(ctx context.Context, kasmID string) (map[string]interface{}, error)
	GetUserSessions(ctx context.Context, userEmail string) ([]services.KasmSession, error)
	TerminateSession(ctx context.Context, kasmID string) error
	GetRecordings(ctx context.Context, kasmID string) ([]services.KasmRecording, error)
}

type LoginAutomator interface {
	PerformLogin(site *model.BankingSite, cred services.Credential, workspaceURL string, timeout time.Duration) services.LoginResult
	VerifySession(pageURL string) bool
}

// LaunchInput carries one launch request into the orchestrator.
type LaunchInput struct {
	UserID        string
	SiteID        string
	CredentialRef string
	ClientIP      string
	UserAgent     string
}

// LaunchResult is the caller-visible outcome of an accepted launch. Status
// is active or failed; a failed login is a valid session record, not an
// error.
type LaunchResult struct {
	SessionID string
	KasmURL   string
	Status    string
	Message   string
}

// EndInput carries one end-session request.
type EndInput struct {
	SessionID string
	UserID    string
	ClientIP  string
	UserAgent string
}

// EndResult reports the terminal status applied locally and any
// provisioner-side termination warning.
type EndResult struct {
	Status  string
	Warning string
}

// BankingService orchestrates remote banking sessions: quota enforcement,
// credential resolution, workspace provisioning, automated login, lifecycle
// transitions and one audit entry per outcome.
type BankingService struct {
	Users       UserStore
	Sites       SiteStore
	Credentials CredentialStore
	Sessions    SessionStore
	Audit       AuditStore
	Secrets     SecretResolver
	Workspaces  WorkspaceProvisioner
	Automation  LoginAutomator

	Environment        string
	MaxSessionsPerUser int
	LoginTimeout       time.Duration

	mu        sync.Mutex
	userLocks map[string]*sync.Mutex
}

// lockFor returns the serialization point for one user's quota check and
// pending-session insert. Without it two back-to-back launches could both
// pass the count before either session row exists.
func (s *BankingService) lockFor(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.userLocks == nil {
		s.userLocks = make(map[string]*sync.Mutex)
	}
	lock, ok := s.userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.userLocks[userID] = lock
	}
	return lock
}

// audit appends an entry, logging instead of failing: audit write errors
// must never mask the outcome they describe.
func (s *BankingService) audit(entry *model.AuditLog) {
	if err := s.Audit.Append(entry); err != nil {
		utils.TrackError("audit", "append_failed")
		log.Printf("Warning: failed to write audit entry for %s: %v", entry.Action, err)
	}
}

func (s *BankingService) launchAudit(in LaunchInput, resourceID, outcome string, details map[string]interface{}) {
	s.audit(&model.AuditLog{
		Actor:        in.UserID,
		Action:       "launch_session",
		ResourceType: "banking_session",
		ResourceID:   resourceID,
		IPAddress:    in.ClientIP,
		UserAgent:    in.UserAgent,
		Device:       utils.DeviceSummary(in.UserAgent),
		Outcome:      outcome,
		Details:      details,
	})
}

// Launch provisions a workspace and performs the automated login for one
// banking session. Failure at any step short-circuits the rest but still
// produces an audit entry; the resolved credential lives only for the
// duration of the login attempt and never reaches logs, audit detail or the
// result.
func (s *BankingService) Launch(ctx context.Context, in LaunchInput) (*LaunchResult, error) {
	if in.CredentialRef == "" {
		return nil, fmt.Errorf("credential reference cannot be empty")
	}

	user, err := s.Users.FindByID(in.UserID)
	if err != nil {
		return nil, fmt.Errorf("user lookup failed: %w", err)
	}
	if user == nil || !user.IsActive {
		return nil, ErrUserNotFound
	}

	// Everything up to the pending insert runs under the per-user lock so
	// concurrent launches cannot overshoot the quota.
	lock := s.lockFor(in.UserID)
	lock.Lock()

	count, err := s.Sessions.CountOpenSessions(in.UserID)
	if err != nil {
		lock.Unlock()
		return nil, fmt.Errorf("failed to check session count: %w", err)
	}
	if count >= s.MaxSessionsPerUser {
		lock.Unlock()
		utils.TrackLaunch("rejected")
		s.launchAudit(in, "", model.AuditOutcomeFailure, map[string]interface{}{
			"reason":       "quota_exceeded",
			"max_sessions": s.MaxSessionsPerUser,
		})
		return nil, ErrQuotaExceeded
	}

	site, err := s.Sites.FindByID(in.SiteID)
	if err != nil {
		lock.Unlock()
		return nil, fmt.Errorf("site lookup failed: %w", err)
	}
	if site == nil || !site.IsActive {
		lock.Unlock()
		return nil, ErrSiteNotFound
	}

	// A credential metadata record maps the opaque reference to the secret
	// store id; absent metadata the reference is used directly.
	secretID := in.CredentialRef
	if meta, metaErr := s.Credentials.FindByID(in.CredentialRef); metaErr == nil && meta != nil && meta.IsActive {
		secretID = meta.InfisicalSecretID
	}

	cred, err := s.Secrets.GetSecret(ctx, secretID, s.Environment)
	if err != nil {
		lock.Unlock()
		utils.TrackLaunch("rejected")
		s.launchAudit(in, "", model.AuditOutcomeFailure, map[string]interface{}{
			"reason":        "credential_unavailable",
			"banking_site":  site.Code,
			"credential_id": in.CredentialRef,
		})
		return nil, fmt.Errorf("%w: %v", ErrCredentialUnavailable, err)
	}

	kasm, err := s.Workspaces.CreateSession(ctx, user.Email, strings.ToLower(site.Code), true)
	if err != nil {
		cred.Zero()
		lock.Unlock()
		utils.TrackLaunch("rejected")
		s.launchAudit(in, "", model.AuditOutcomeFailure, map[string]interface{}{
			"reason":        "provisioning_failed",
			"banking_site":  site.Code,
			"credential_id": in.CredentialRef,
		})
		return nil, fmt.Errorf("%w: %v", ErrProvisioningFailed, err)
	}

	session := &model.BankingSession{
		SessionID:       uuid.New().String(),
		UserID:          in.UserID,
		BankingSiteID:   site.ID,
		SiteCode:        site.Code,
		KasmSessionID:   kasm.SessionID,
		KasmWorkspaceID: kasm.WorkspaceID,
		KasmURL:         kasm.URL,
		Status:          model.SessionStatusPending,
		StartedAt:       time.Now(),
		Metadata: map[string]interface{}{
			"device":    utils.DeviceSummary(in.UserAgent),
			"client_ip": in.ClientIP,
		},
	}
	if err := s.Sessions.CreateSession(session); err != nil {
		cred.Zero()
		lock.Unlock()
		s.cleanupWorkspace(kasm.SessionID)
		s.launchAudit(in, "", model.AuditOutcomeFailure, map[string]interface{}{
			"reason":        "session_persist_failed",
			"banking_site":  site.Code,
			"credential_id": in.CredentialRef,
		})
		return nil, fmt.Errorf("failed to persist banking session: %w", err)
	}
	lock.Unlock()

	if err := s.Credentials.TouchLastUsed(in.CredentialRef); err != nil {
		log.Printf("Warning: failed to touch credential %s: %v", in.CredentialRef, err)
	}

	// Abandoned launch: don't leave the workspace running, close the record.
	if ctx.Err() != nil {
		cred.Zero()
		s.cleanupWorkspace(kasm.SessionID)
		s.transition(session, model.SessionStatusFailed, bson.M{
			"metadata.failure": "launch cancelled",
		})
		s.launchAudit(in, session.SessionID, model.AuditOutcomeFailure, map[string]interface{}{
			"reason":        "cancelled",
			"banking_site":  site.Code,
			"credential_id": in.CredentialRef,
		})
		utils.TrackLaunch("failed")
		return nil, ctx.Err()
	}

	loginResult := s.Automation.PerformLogin(site, cred, kasm.URL, s.LoginTimeout)
	cred.Zero()

	status := model.SessionStatusFailed
	outcome := model.AuditOutcomeFailure
	if loginResult.Success {
		status = model.SessionStatusActive
		outcome = model.AuditOutcomeSuccess
	}

	extra := bson.M{}
	if kasm.RecordingPath != "" {
		extra["recording_path"] = kasm.RecordingPath
	}
	if loginResult.ArtifactPath != "" {
		extra["artifact_path"] = loginResult.ArtifactPath
	}
	if err := s.transition(session, status, extra); err != nil {
		log.Printf("Error: failed to record login outcome for session %s: %v", session.SessionID, err)
	}

	s.launchAudit(in, session.SessionID, outcome, map[string]interface{}{
		"banking_site":  site.Code,
		"credential_id": in.CredentialRef,
		"message":       loginResult.Message,
	})

	utils.TrackLaunch(status)
	if status == model.SessionStatusActive {
		utils.ActiveBankingSessions.Inc()
	}

	return &LaunchResult{
		SessionID: session.SessionID,
		KasmURL:   kasm.URL,
		Status:    status,
		Message:   loginResult.Message,
	}, nil
}

func (s *BankingService) transition(session *model.BankingSession, to string, extra bson.M) error {
	return s.Sessions.TransitionStatus(session.SessionID, session.UserID, session.Status, to, extra)
}

// cleanupWorkspace is the best-effort teardown used when a launch dies after
// provisioning. A fresh context so a cancelled launch can still clean up.
func (s *BankingService) cleanupWorkspace(kasmID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.Workspaces.TerminateSession(ctx, kasmID); err != nil {
		utils.TrackError("kasm", "cleanup_failed")
		log.Printf("Warning: failed to clean up workspace %s: %v", kasmID, err)
	}
}

// End terminates a session the caller owns. The local record always leaves
// active: completed on a clean remote teardown, completed_with_warning when
// the provisioner call failed, so the record never claims a clean close
// while a workspace may still run.
func (s *BankingService) End(ctx context.Context, in EndInput) (*EndResult, error) {
	session, err := s.Sessions.GetOwnedActiveSession(in.SessionID, in.UserID)
	if err != nil {
		return nil, fmt.Errorf("session lookup failed: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	terminationErr := s.Workspaces.TerminateSession(ctx, session.KasmSessionID)

	status := model.SessionStatusCompleted
	outcome := model.AuditOutcomeSuccess
	details := map[string]interface{}{
		"banking_site": session.SiteCode,
	}
	if terminationErr != nil {
		utils.TrackError("kasm", "termination_failed")
		status = model.SessionStatusCompletedWithWarning
		outcome = model.AuditOutcomeFailure
		details["termination_error"] = terminationErr.Error()
	}

	extra := bson.M{"ended_at": time.Now()}
	if recordingPath := s.lookupRecording(ctx, session.KasmSessionID); recordingPath != "" {
		extra["recording_path"] = recordingPath
	}

	if err := s.transition(session, status, extra); err != nil {
		return nil, fmt.Errorf("failed to close session record: %w", err)
	}

	s.audit(&model.AuditLog{
		Actor:        in.UserID,
		Action:       "end_session",
		ResourceType: "banking_session",
		ResourceID:   session.SessionID,
		IPAddress:    in.ClientIP,
		UserAgent:    in.UserAgent,
		Device:       utils.DeviceSummary(in.UserAgent),
		Outcome:      outcome,
		Details:      details,
	})

	utils.ActiveBankingSessions.Dec()

	result := &EndResult{Status: status}
	if terminationErr != nil {
		result.Warning = fmt.Sprintf("%v: %v", ErrTerminationFailed, terminationErr)
	}
	return result, nil
}

// lookupRecording asks the provisioner for recordings of a closing session.
// Best effort; a missing recording never blocks the close.
func (s *BankingService) lookupRecording(ctx context.Context, kasmID string) string {
	recordings, err := s.Workspaces.GetRecordings(ctx, kasmID)
	if err != nil {
		log.Printf("Warning: failed to fetch recordings for %s: %v", kasmID, err)
		return ""
	}
	if len(recordings) == 0 {
		return ""
	}
	return recordings[0].DownloadPath
}

// ListActive returns the caller's active sessions.
func (s *BankingService) ListActive(userID string) ([]*model.BankingSession, error) {
	if userID == "" {
		return nil, fmt.Errorf("userID cannot be empty")
	}
	return s.Sessions.GetUserActiveSessions(userID)
}

// ActiveCount returns the caller's active session count. Served from the
// count cache when one is configured, so dashboard polling stays off the
// database.
func (s *BankingService) ActiveCount(userID string) (int, error) {
	if userID == "" {
		return 0, fmt.Errorf("userID cannot be empty")
	}
	return s.Sessions.CountActiveSessions(userID)
}

// Get returns a session the caller owns, in any status, together with the
// provisioner-side workspace state for sessions that are still open.
func (s *BankingService) Get(ctx context.Context, sessionID, userID string) (*model.BankingSession, map[string]interface{}, error) {
	session, err := s.Sessions.GetSession(sessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("session lookup failed: %w", err)
	}
	if session == nil || session.UserID != userID {
		return nil, nil, ErrSessionNotFound
	}

	var workspace map[string]interface{}
	if !session.IsTerminal() && session.KasmSessionID != "" {
		workspace, err = s.Workspaces.GetSession(ctx, session.KasmSessionID)
		if err != nil {
			log.Printf("Warning: failed to fetch workspace state for %s: %v", session.KasmSessionID, err)
			workspace = nil
		}
	}

	return session, workspace, nil
}

// AuditTrail returns the audit entries recorded against a session the caller
// owns, newest first.
func (s *BankingService) AuditTrail(ctx context.Context, sessionID, userID string, limit int64) ([]*model.AuditLog, error) {
	session, err := s.Sessions.GetSession(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session lookup failed: %w", err)
	}
	if session == nil || session.UserID != userID {
		return nil, ErrSessionNotFound
	}
	return s.Audit.ListForResource("banking_session", sessionID, limit)
}

// VerifyResult reports whether an active session's workspace still exists on
// the provisioner and, when it does, whether the page still shows a logged-in
// state.
type VerifyResult struct {
	WorkspacePresent bool
	LoginVerified    bool
}

// Verify cross-checks an active session against the provisioner's session
// list and probes the workspace page for logged-in indicators.
func (s *BankingService) Verify(ctx context.Context, sessionID, userID string) (*VerifyResult, error) {
	session, err := s.Sessions.GetOwnedActiveSession(sessionID, userID)
	if err != nil {
		return nil, fmt.Errorf("session lookup failed: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	user, err := s.Users.FindByID(userID)
	if err != nil || user == nil {
		return nil, ErrUserNotFound
	}

	result := &VerifyResult{}
	kasms, err := s.Workspaces.GetUserSessions(ctx, user.Email)
	if err != nil {
		log.Printf("Warning: failed to list provisioner sessions for %s: %v", userID, err)
		return result, nil
	}
	for _, kasm := range kasms {
		if kasm.SessionID == session.KasmSessionID {
			result.WorkspacePresent = true
			break
		}
	}

	if result.WorkspacePresent && session.KasmURL != "" {
		result.LoginVerified = s.Automation.VerifySession(session.KasmURL)
	}

	return result, nil
}
