package usecase

import "errors"

// Orchestration error taxonomy. A failed login attempt is not represented
// here: it is a business outcome carried in LaunchResult, and the session
// record it produced is valid.
var (
	ErrQuotaExceeded         = errors.New("maximum concurrent sessions reached")
	ErrUserNotFound          = errors.New("user not found or inactive")
	ErrSiteNotFound          = errors.New("banking site not found")
	ErrCredentialUnavailable = errors.New("failed to retrieve credentials")
	ErrProvisioningFailed    = errors.New("failed to provision remote workspace")
	ErrTerminationFailed     = errors.New("failed to terminate remote workspace")
	ErrSessionNotFound       = errors.New("session not found")
)
