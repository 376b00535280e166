package handler

import (
	"errors"
	"log"

	"github.com/gin-gonic/gin"

	"webasset/dto"
	"webasset/usecase"
	"webasset/utils"
)

// LaunchBankingSession accepts a launch request, runs the orchestration and
// maps the error taxonomy to HTTP statuses. A failed login is returned as a
// normal response with status "failed".
func LaunchBankingSession(c *gin.Context, svc *usecase.BankingService) {
	userID, exists := c.Get("user_id")
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var req dto.LaunchSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.TrackError("banking", "invalid_launch_request")
		utils.BadRequest(c, "Missing required parameters")
		return
	}

	result, err := svc.Launch(c.Request.Context(), usecase.LaunchInput{
		UserID:        userID.(string),
		SiteID:        req.BankingSiteID,
		CredentialRef: req.CredentialID,
		ClientIP:      c.ClientIP(),
		UserAgent:     c.Request.UserAgent(),
	})
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrQuotaExceeded):
			utils.TooManyRequests(c, "Maximum concurrent sessions reached")
		case errors.Is(err, usecase.ErrSiteNotFound):
			utils.NotFound(c, "Banking site not found")
		case errors.Is(err, usecase.ErrUserNotFound):
			utils.Forbidden(c, "User not found or inactive")
		case errors.Is(err, usecase.ErrCredentialUnavailable):
			utils.BadGateway(c, "Failed to retrieve credentials")
		case errors.Is(err, usecase.ErrProvisioningFailed):
			utils.BadGateway(c, "Failed to provision remote workspace")
		default:
			log.Printf("Error launching banking session: %v", err)
			utils.InternalError(c, "Failed to launch banking session")
		}
		return
	}

	utils.Success(c, dto.LaunchSessionResponse{
		SessionID: result.SessionID,
		KasmURL:   result.KasmURL,
		Status:    result.Status,
		Message:   result.Message,
	})
}

// EndBankingSession terminates a session the caller owns.
func EndBankingSession(c *gin.Context, svc *usecase.BankingService) {
	userID, exists := c.Get("user_id")
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	sessionID := c.Param("id")
	if sessionID == "" {
		utils.BadRequest(c, "Missing session id")
		return
	}

	result, err := svc.End(c.Request.Context(), usecase.EndInput{
		SessionID: sessionID,
		UserID:    userID.(string),
		ClientIP:  c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		if errors.Is(err, usecase.ErrSessionNotFound) {
			utils.NotFound(c, "Session not found")
			return
		}
		log.Printf("Error ending session %s: %v", sessionID, err)
		utils.InternalError(c, "Failed to end session")
		return
	}

	response := gin.H{
		"message": "Session ended successfully",
		"status":  result.Status,
	}
	if result.Warning != "" {
		response["warning"] = result.Warning
	}
	utils.Success(c, response)
}

// GetBankingSession returns one session the caller owns, with the live
// workspace state attached while the session is still open.
func GetBankingSession(c *gin.Context, svc *usecase.BankingService) {
	userID, exists := c.Get("user_id")
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	session, workspace, err := svc.Get(c.Request.Context(), c.Param("id"), userID.(string))
	if err != nil {
		if errors.Is(err, usecase.ErrSessionNotFound) {
			utils.NotFound(c, "Session not found")
			return
		}
		log.Printf("Error fetching session %s: %v", c.Param("id"), err)
		utils.InternalError(c, "Failed to fetch session")
		return
	}

	response := gin.H{"session": dto.ToSessionResponse(session)}
	if workspace != nil {
		response["workspace"] = workspace
	}
	utils.Success(c, response)
}

// SessionAuditTrail returns the audit entries for a session the caller owns.
func SessionAuditTrail(c *gin.Context, svc *usecase.BankingService) {
	userID, exists := c.Get("user_id")
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	entries, err := svc.AuditTrail(c.Request.Context(), c.Param("id"), userID.(string), 100)
	if err != nil {
		if errors.Is(err, usecase.ErrSessionNotFound) {
			utils.NotFound(c, "Session not found")
			return
		}
		log.Printf("Error fetching audit trail for %s: %v", c.Param("id"), err)
		utils.InternalError(c, "Failed to fetch audit trail")
		return
	}

	utils.Success(c, gin.H{"entries": entries})
}

// VerifyBankingSession cross-checks an active session against the
// provisioner and reports whether the logged-in state still holds.
func VerifyBankingSession(c *gin.Context, svc *usecase.BankingService) {
	userID, exists := c.Get("user_id")
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	result, err := svc.Verify(c.Request.Context(), c.Param("id"), userID.(string))
	if err != nil {
		if errors.Is(err, usecase.ErrSessionNotFound) {
			utils.NotFound(c, "Session not found")
			return
		}
		log.Printf("Error verifying session %s: %v", c.Param("id"), err)
		utils.InternalError(c, "Failed to verify session")
		return
	}

	utils.Success(c, gin.H{
		"workspace_present": result.WorkspacePresent,
		"login_verified":    result.LoginVerified,
	})
}

// ListBankingSessions returns the caller's active sessions.
func ListBankingSessions(c *gin.Context, svc *usecase.BankingService) {
	userID, exists := c.Get("user_id")
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	sessions, err := svc.ListActive(userID.(string))
	if err != nil {
		log.Printf("Error listing sessions: %v", err)
		utils.InternalError(c, "Failed to fetch sessions")
		return
	}

	responses := make([]dto.SessionResponse, 0, len(sessions))
	for _, sess := range sessions {
		responses = append(responses, dto.ToSessionResponse(sess))
	}

	count, err := svc.ActiveCount(userID.(string))
	if err != nil {
		count = len(responses)
	}

	utils.Success(c, gin.H{"sessions": responses, "active_count": count})
}
