package dto

import (
	"time"

	"webasset/model"
)

type LaunchSessionRequest struct {
	BankingSiteID string `json:"banking_site_id" binding:"required,resourceref"`
	CredentialID  string `json:"credential_id" binding:"required,resourceref"`
}

type LaunchSessionResponse struct {
	SessionID string `json:"session_id"`
	KasmURL   string `json:"kasm_url"`
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
}

type SessionResponse struct {
	SessionID     string     `json:"id"`
	SiteCode      string     `json:"banking_site"`
	Status        string     `json:"status"`
	KasmSessionID string     `json:"kasm_session_id,omitempty"`
	KasmURL       string     `json:"kasm_url,omitempty"`
	StartedAt     time.Time  `json:"started_at"`
	EndedAt       *time.Time `json:"ended_at,omitempty"`
}

func ToSessionResponse(sess *model.BankingSession) SessionResponse {
	return SessionResponse{
		SessionID:     sess.SessionID,
		SiteCode:      sess.SiteCode,
		Status:        sess.Status,
		KasmSessionID: sess.KasmSessionID,
		KasmURL:       sess.KasmURL,
		StartedAt:     sess.StartedAt,
		EndedAt:       sess.EndedAt,
	}
}

type CredentialResponse struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	SiteID   string     `json:"banking_site_id"`
	LastUsed *time.Time `json:"last_used,omitempty"`
}

func ToCredentialResponse(cred *model.BankingCredential) CredentialResponse {
	return CredentialResponse{
		ID:       cred.CredentialID,
		Name:     cred.Name,
		SiteID:   cred.BankingSiteID,
		LastUsed: cred.LastUsed,
	}
}

type BankingSiteResponse struct {
	ID   string `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

func ToBankingSiteResponse(site *model.BankingSite) BankingSiteResponse {
	return BankingSiteResponse{
		ID:   site.ID,
		Code: site.Code,
		Name: site.Name,
		URL:  site.URL,
	}
}
