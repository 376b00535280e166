package model

import "time"

// BankingSite is the immutable per-site login configuration. Records are
// managed by the admin collaborator; the orchestrator only reads them.
type BankingSite struct {
	ID                string    `bson:"site_id" json:"id"`
	Code              string    `bson:"code" json:"code"`
	Name              string    `bson:"name" json:"name"`
	URL               string    `bson:"url" json:"url"`
	LoginURL          string    `bson:"login_url,omitempty" json:"login_url,omitempty"`
	UsernameSelector  string    `bson:"username_selector,omitempty" json:"username_selector,omitempty"`
	PasswordSelector  string    `bson:"password_selector,omitempty" json:"password_selector,omitempty"`
	SubmitSelector    string    `bson:"submit_selector,omitempty" json:"submit_selector,omitempty"`
	TwoFactorSelector string    `bson:"two_factor_selector,omitempty" json:"two_factor_selector,omitempty"`
	SuccessIndicator  string    `bson:"success_indicator,omitempty" json:"success_indicator,omitempty"`
	IsActive          bool      `bson:"is_active" json:"is_active"`
	CreatedAt         time.Time `bson:"created_at" json:"created_at"`
}
