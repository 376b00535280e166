package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"webasset/config"
)

func newTestKasmClient(url string) *KasmClient {
	return NewKasmClient(config.KasmConfig{
		BaseURL:   url,
		APIKey:    "test-key",
		APISecret: "test-secret",
	})
}

func TestKasmRequestSignature(t *testing.T) {
	var captured map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/api/public/request_kasm" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("Failed to decode request body: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]string{
			"kasm_id":  "kasm-1",
			"kasm_url": "https://workspaces.example.com/kasm-1",
		})
	}))
	defer server.Close()

	client := newTestKasmClient(server.URL)
	session, err := client.CreateSession(context.Background(), "jane@example.com", "chrome", true)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if session.SessionID != "kasm-1" {
		t.Errorf("Expected kasm-1, got %q", session.SessionID)
	}

	if captured["api_key"] != "test-key" {
		t.Errorf("Request missing api key: %v", captured["api_key"])
	}
	if captured["user_email"] != "jane@example.com" || captured["image_id"] != "chrome" {
		t.Errorf("Request missing session fields: %v", captured)
	}

	// Recompute the signature over timestamp+key with the shared secret.
	ts, ok := captured["timestamp"].(float64)
	if !ok {
		t.Fatalf("Request missing timestamp: %v", captured["timestamp"])
	}
	mac := hmac.New(sha256.New, []byte("test-secret"))
	fmt.Fprintf(mac, "%d%s", int64(ts), "test-key")
	want := hex.EncodeToString(mac.Sum(nil))
	if captured["signature"] != want {
		t.Errorf("Signature mismatch: got %v, want %s", captured["signature"], want)
	}
}

func TestKasmCreateSessionRejectsEmptyID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"error_message": "no agents"})
	}))
	defer server.Close()

	client := newTestKasmClient(server.URL)
	if _, err := client.CreateSession(context.Background(), "jane@example.com", "chrome", true); err == nil {
		t.Fatal("Expected error for response without a session id")
	}
}

func TestKasmBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestKasmClient(server.URL)
	if err := client.TerminateSession(context.Background(), "kasm-1"); err == nil {
		t.Fatal("Expected error on 502 response")
	}
}

func TestKasmTerminateSession(t *testing.T) {
	var gotPath string
	var payload map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&payload)
		w.Write([]byte("{}"))
	}))
	defer server.Close()

	client := newTestKasmClient(server.URL)
	if err := client.TerminateSession(context.Background(), "kasm-9"); err != nil {
		t.Fatalf("TerminateSession failed: %v", err)
	}
	if gotPath != "/api/public/destroy_kasm" {
		t.Errorf("Unexpected endpoint %s", gotPath)
	}
	if payload["kasm_id"] != "kasm-9" {
		t.Errorf("Expected kasm_id kasm-9, got %v", payload["kasm_id"])
	}
}

func TestKasmGetRecordings(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"recordings": []map[string]string{
				{"recording_id": "rec-1", "kasm_id": "kasm-1", "session_recording_url": "https://rec.example.com/1.mp4"},
			},
		})
	}))
	defer server.Close()

	client := newTestKasmClient(server.URL)
	recordings, err := client.GetRecordings(context.Background(), "kasm-1")
	if err != nil {
		t.Fatalf("GetRecordings failed: %v", err)
	}
	if len(recordings) != 1 || recordings[0].DownloadPath != "https://rec.example.com/1.mp4" {
		t.Errorf("Unexpected recordings: %+v", recordings)
	}
}

func TestKasmContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{}"))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := newTestKasmClient(server.URL)
	if _, err := client.ListImages(ctx); err == nil {
		t.Fatal("Expected error for cancelled context")
	}
}
