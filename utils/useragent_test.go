package utils

import (
	"strings"
	"testing"
)

func TestParseUserAgent(t *testing.T) {
	tests := []struct {
		name       string
		userAgent  string
		wantDevice string
	}{
		{
			name:       "desktop chrome",
			userAgent:  "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			wantDevice: "Desktop",
		},
		{
			name:       "iphone safari",
			userAgent:  "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1",
			wantDevice: "Mobile",
		},
		{
			name:       "empty",
			userAgent:  "",
			wantDevice: "Desktop",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			browser, os, device := ParseUserAgent(tt.userAgent)
			if device != tt.wantDevice {
				t.Errorf("Expected device %q, got %q", tt.wantDevice, device)
			}
			if browser == "" || os == "" {
				t.Errorf("Browser and OS should never be empty, got %q / %q", browser, os)
			}
		})
	}
}

func TestDeviceSummary(t *testing.T) {
	summary := DeviceSummary("")
	if !strings.Contains(summary, "Unknown Browser") || !strings.Contains(summary, "(Desktop)") {
		t.Errorf("Unexpected summary for empty agent: %q", summary)
	}
}
