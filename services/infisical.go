package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"webasset/config"
	"webasset/utils"
)

// Credential is a transient username/password pair resolved just-in-time
// from the secret store. It is never persisted; callers must Zero it as soon
// as the login attempt finishes.
type Credential struct {
	Username string
	Password string
}

// Zero overwrites the credential value in place.
func (c *Credential) Zero() {
	c.Username = ""
	c.Password = ""
}

// SecretMeta is the non-sensitive listing entry for a stored secret.
type SecretMeta struct {
	SecretID string `json:"id"`
	Key      string `json:"secretKey"`
	Path     string `json:"path"`
}

// InfisicalClient resolves credentials from the Infisical secret store over
// bearer-token authenticated HTTP. Resolved values are returned to the
// caller and never logged.
type InfisicalClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewInfisicalClient builds a secret store client from explicit configuration.
func NewInfisicalClient(cfg config.InfisicalConfig) *InfisicalClient {
	return &InfisicalClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// GetSecret resolves a credential by its opaque reference. A single call, no
// silent retries; any transport or non-2xx result surfaces as an error.
func (i *InfisicalClient) GetSecret(ctx context.Context, secretID, environment string) (Credential, error) {
	timer := utils.TrackExternalCall("infisical", "get_secret")
	defer timer.ObserveDuration()

	if secretID == "" {
		return Credential{}, fmt.Errorf("secret id cannot be empty")
	}

	url := fmt.Sprintf("%s/api/v1/secret/%s?environment=%s", i.baseURL, secretID, environment)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Credential{}, fmt.Errorf("failed to build secret request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+i.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := i.httpClient.Do(req)
	if err != nil {
		utils.TrackError("infisical", "request_failed")
		return Credential{}, fmt.Errorf("secret store request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		utils.TrackError("infisical", "bad_status")
		return Credential{}, fmt.Errorf("secret store returned status %d", resp.StatusCode)
	}

	var payload struct {
		Secret struct {
			Username string `json:"username"`
			Password string `json:"password"`
		} `json:"secret"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		utils.TrackError("infisical", "decode_failed")
		return Credential{}, fmt.Errorf("failed to decode secret response: %w", err)
	}

	return Credential{
		Username: payload.Secret.Username,
		Password: payload.Secret.Password,
	}, nil
}

// ListSecrets returns the non-sensitive metadata of secrets under a path,
// used by the admin collaborator to populate credential pickers.
func (i *InfisicalClient) ListSecrets(ctx context.Context, environment, path string) ([]SecretMeta, error) {
	timer := utils.TrackExternalCall("infisical", "list_secrets")
	defer timer.ObserveDuration()

	if path == "" {
		path = "/"
	}
	url := fmt.Sprintf("%s/api/v1/secrets?environment=%s&path=%s", i.baseURL, environment, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build secrets request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+i.token)

	resp, err := i.httpClient.Do(req)
	if err != nil {
		utils.TrackError("infisical", "request_failed")
		return nil, fmt.Errorf("secret store request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		utils.TrackError("infisical", "bad_status")
		return nil, fmt.Errorf("secret store returned status %d", resp.StatusCode)
	}

	var payload struct {
		Secrets []SecretMeta `json:"secrets"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode secrets response: %w", err)
	}

	return payload.Secrets, nil
}
