package services

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"webasset/config"
	"webasset/utils"
)

// KasmSession describes a provisioned remote browser workspace.
type KasmSession struct {
	SessionID     string `json:"kasm_id"`
	WorkspaceID   string `json:"workspace_id"`
	URL           string `json:"kasm_url"`
	RecordingPath string `json:"recording_path,omitempty"`
}

// KasmImage is one workspace image available on the provisioner.
type KasmImage struct {
	ImageID      string `json:"image_id"`
	Name         string `json:"name"`
	FriendlyName string `json:"friendly_name"`
	Enabled      bool   `json:"enabled"`
}

// KasmRecording is one recording artifact attached to a workspace session.
type KasmRecording struct {
	RecordingID  string `json:"recording_id"`
	SessionID    string `json:"kasm_id"`
	DownloadPath string `json:"session_recording_url"`
}

// KasmClient talks to the KasmWeb public API. Every request carries a
// timestamp, the api key and an HMAC-SHA256 signature over both.
type KasmClient struct {
	baseURL    string
	apiKey     string
	apiSecret  string
	httpClient *http.Client
}

// NewKasmClient builds a provisioner client from explicit configuration.
func NewKasmClient(cfg config.KasmConfig) *KasmClient {
	return &KasmClient{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		apiSecret: cfg.APISecret,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// sign computes the request signature over timestamp followed by api key.
func (k *KasmClient) sign(timestamp int64) string {
	mac := hmac.New(sha256.New, []byte(k.apiSecret))
	fmt.Fprintf(mac, "%d%s", timestamp, k.apiKey)
	return hex.EncodeToString(mac.Sum(nil))
}

// makeRequest signs the payload and posts it to the given public API
// endpoint, decoding the JSON response into out when non-nil.
func (k *KasmClient) makeRequest(ctx context.Context, endpoint string, payload map[string]interface{}, out interface{}) error {
	timer := utils.TrackExternalCall("kasm", strings.TrimPrefix(endpoint, "/"))
	defer timer.ObserveDuration()

	if payload == nil {
		payload = map[string]interface{}{}
	}
	timestamp := time.Now().Unix()
	payload["timestamp"] = timestamp
	payload["api_key"] = k.apiKey
	payload["signature"] = k.sign(timestamp)

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode kasm request: %w", err)
	}

	url := k.baseURL + "/api/public" + endpoint
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build kasm request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := k.httpClient.Do(req)
	if err != nil {
		utils.TrackError("kasm", "request_failed")
		return fmt.Errorf("kasm api request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		utils.TrackError("kasm", "bad_status")
		return fmt.Errorf("kasm api returned status %d for %s", resp.StatusCode, endpoint)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		utils.TrackError("kasm", "decode_failed")
		return fmt.Errorf("failed to decode kasm response: %w", err)
	}

	return nil
}

// CreateSession provisions a new workspace for the user.
func (k *KasmClient) CreateSession(ctx context.Context, userEmail, imageID string, enableRecording bool) (*KasmSession, error) {
	payload := map[string]interface{}{
		"user_email":       userEmail,
		"image_id":         imageID,
		"enable_recording": enableRecording,
	}

	var session KasmSession
	if err := k.makeRequest(ctx, "/request_kasm", payload, &session); err != nil {
		return nil, err
	}

	if session.SessionID == "" {
		return nil, fmt.Errorf("kasm api returned no session id")
	}

	return &session, nil
}

// GetSession fetches the current provisioner-side state of a workspace.
func (k *KasmClient) GetSession(ctx context.Context, kasmID string) (map[string]interface{}, error) {
	var details map[string]interface{}
	err := k.makeRequest(ctx, "/get_kasm", map[string]interface{}{"kasm_id": kasmID}, &details)
	if err != nil {
		return nil, err
	}
	return details, nil
}

// TerminateSession destroys a workspace.
func (k *KasmClient) TerminateSession(ctx context.Context, kasmID string) error {
	return k.makeRequest(ctx, "/destroy_kasm", map[string]interface{}{"kasm_id": kasmID}, nil)
}

// ListImages returns the workspace images available on the provisioner.
func (k *KasmClient) ListImages(ctx context.Context) ([]KasmImage, error) {
	var out struct {
		Images []KasmImage `json:"images"`
	}
	if err := k.makeRequest(ctx, "/get_images", nil, &out); err != nil {
		return nil, err
	}
	return out.Images, nil
}

// GetUserSessions lists the provisioner-side sessions owned by a user.
func (k *KasmClient) GetUserSessions(ctx context.Context, userEmail string) ([]KasmSession, error) {
	var out struct {
		Kasms []KasmSession `json:"kasms"`
	}
	if err := k.makeRequest(ctx, "/get_user_kasms", map[string]interface{}{"user_email": userEmail}, &out); err != nil {
		return nil, err
	}
	return out.Kasms, nil
}

// GetRecordings lists the recordings captured for a workspace session.
func (k *KasmClient) GetRecordings(ctx context.Context, kasmID string) ([]KasmRecording, error) {
	var out struct {
		Recordings []KasmRecording `json:"recordings"`
	}
	if err := k.makeRequest(ctx, "/get_recordings", map[string]interface{}{"kasm_id": kasmID}, &out); err != nil {
		return nil, err
	}
	return out.Recordings, nil
}
