package services

import (
	"errors"
	"testing"
	"time"
)

func TestFillWithFallbackConfiguredSelectorWins(t *testing.T) {
	var attempts []string
	fill := func(selector string, timeout time.Duration) error {
		attempts = append(attempts, selector)
		return nil
	}

	err := fillWithFallback(fill, `#custom-user`, usernameFallbacks, 5*time.Second, time.Second)
	if err != nil {
		t.Fatalf("Expected configured selector to succeed: %v", err)
	}
	if len(attempts) != 1 || attempts[0] != `#custom-user` {
		t.Errorf("Expected only the configured selector to be tried, got %v", attempts)
	}
}

func TestFillWithFallbackConfiguredSelectorDoesNotCascade(t *testing.T) {
	var attempts []string
	fill := func(selector string, timeout time.Duration) error {
		attempts = append(attempts, selector)
		return errors.New("not found")
	}

	// A configured selector that never matches fails outright rather than
	// silently filling some other field the operator did not choose.
	if err := fillWithFallback(fill, `#custom-user`, usernameFallbacks, 5*time.Second, time.Second); err == nil {
		t.Fatal("Expected failure when the configured selector does not match")
	}
	if len(attempts) != 1 {
		t.Errorf("Configured selector must not fall back, got attempts %v", attempts)
	}
}

func TestFillWithFallbackStopsAtFirstMatch(t *testing.T) {
	var attempts []string
	fill := func(selector string, timeout time.Duration) error {
		attempts = append(attempts, selector)
		if selector == `input[type="password"]` {
			return nil
		}
		return errors.New("not found")
	}

	err := fillWithFallback(fill, "", passwordFallbacks, 5*time.Second, time.Second)
	if err != nil {
		t.Fatalf("Expected a fallback to match: %v", err)
	}
	last := attempts[len(attempts)-1]
	if last != `input[type="password"]` {
		t.Errorf("Expected cascade to stop at the matching selector, got %v", attempts)
	}
	if len(attempts) >= len(passwordFallbacks) {
		t.Errorf("Cascade should stop early, tried %d of %d", len(attempts), len(passwordFallbacks))
	}
}

func TestFillWithFallbackExhausted(t *testing.T) {
	fill := func(selector string, timeout time.Duration) error {
		return errors.New("not found")
	}

	if err := fillWithFallback(fill, "", usernameFallbacks, 5*time.Second, time.Second); err == nil {
		t.Fatal("Expected error when no selector matches")
	}
}

func TestFillWithFallbackUsesPerAttemptTimeout(t *testing.T) {
	var timeouts []time.Duration
	fill := func(selector string, timeout time.Duration) error {
		timeouts = append(timeouts, timeout)
		return errors.New("not found")
	}

	_ = fillWithFallback(fill, "", submitFallbacks, 10*time.Second, 500*time.Millisecond)
	for _, d := range timeouts {
		if d != 500*time.Millisecond {
			t.Errorf("Fallback attempts should use the short timeout, got %v", d)
		}
	}
}

func TestIsLoginErrorURL(t *testing.T) {
	tests := []struct {
		name       string
		currentURL string
		loginURL   string
		want       bool
	}{
		{
			name:       "redirected away from login page",
			currentURL: "https://fnb.example.com/dashboard",
			loginURL:   "https://fnb.example.com/login",
			want:       false,
		},
		{
			name:       "still on login page with error marker",
			currentURL: "https://fnb.example.com/login?error=invalid_credentials",
			loginURL:   "https://fnb.example.com/login",
			want:       true,
		},
		{
			name:       "still on login page without error",
			currentURL: "https://fnb.example.com/login",
			loginURL:   "https://fnb.example.com/login",
			want:       false,
		},
		{
			name:       "no login url configured",
			currentURL: "https://fnb.example.com/login?error=1",
			loginURL:   "",
			want:       false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isLoginErrorURL(tt.currentURL, tt.loginURL); got != tt.want {
				t.Errorf("isLoginErrorURL(%q, %q) = %v, want %v", tt.currentURL, tt.loginURL, got, tt.want)
			}
		})
	}
}

func TestMillisecondConversion(t *testing.T) {
	if got := ms(2 * time.Second); got != 2000 {
		t.Errorf("Expected 2000ms, got %v", got)
	}
}
