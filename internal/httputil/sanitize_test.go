package httputil

import (
	"net/url"
	"strings"
	"testing"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"valid HTTPS", "https://example.com/path", false},
		{"HTTP rejected", "http://example.com/path", true},
		{"javascript scheme rejected", "javascript:alert(1)", true},
		{"data scheme rejected", "data:text/html,<h1>Hi</h1>", true},
		{"FTP rejected", "ftp://example.com/file", true},
		{"empty string", "", true},
		{"no host", "https://", true},
		{"valid with port", "https://example.com:8080/path", false},
		{"valid with query", "https://example.com/path?q=test&a=b", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}

func TestValidateNumericID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"valid", "12345", false},
		{"zero", "0", false},
		{"empty", "", true},
		{"letters", "abc", true},
		{"mixed", "123abc", true},
		{"negative", "-1", true},
		{"decimal", "1.5", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNumericID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateNumericID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"normal filename", "track.mp3", "track.mp3"},
		{"path traversal", "../../etc/passwd", "passwd"},
		{"directory components", "/home/user/secret.txt", "secret.txt"},
		{"shell metacharacters", "track; rm -rf /.mp3", ".mp3"}, // filepath.Base strips to ".mp3"
		{"null bytes", "track\x00.mp3", "track.mp3"},
		{"Windows special chars", "track<>:\"|?*.mp3", "track_______.mp3"},
		{"double dots", "track..mp3", "track_mp3"},
		{"empty string", "", "untitled"},
		{"just dots", "..", "_"},                                                      // filepath.Base("..") = "..", replacer makes "_"
		{"just dot", ".", "untitled"},
		{"backslash traversal", "..\\..\\windows\\system32", "____windows_system32"}, // on linux, backslash isn't path sep
		{"XSS payload", "<script>alert(1)</script>.mp3", "script_.mp3"}, // filepath.Base handles angle brackets
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeFilename(tt.input)
			if got != tt.expected {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSafeDownloadPath(t *testing.T) {
	tests := []struct {
		name     string
		dir      string
		filename string
		wantErr  bool
	}{
		{"normal", "/tmp/downloads", "track.mp3", false},
		{"path traversal attempt", "/tmp/downloads", "../../etc/passwd", false}, // sanitized to "passwd"
		{"shell injection", "/tmp/downloads", "$(whoami).mp3", false},          // sanitized
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, err := SafeDownloadPath(tt.dir, tt.filename)
			if (err != nil) != tt.wantErr {
				t.Errorf("SafeDownloadPath(%q, %q) error = %v, wantErr %v", tt.dir, tt.filename, err, tt.wantErr)
			}
			if err == nil && path == "" {
				t.Error("SafeDownloadPath returned empty path without error")
			}
		})
	}
}

func TestWithQuery(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		params   url.Values
		expected string
	}{
		{"adds params", "https://api.example.com/tracks", url.Values{"ids": {"1,2"}}, "https://api.example.com/tracks?ids=1%2C2"},
		{"keeps existing", "https://api.example.com/media?a=1", url.Values{"client_id": {"abc"}}, "https://api.example.com/media?a=1&client_id=abc"},
		{"skips empty values", "https://api.example.com/x", url.Values{"oauth_token": {""}}, "https://api.example.com/x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := WithQuery(tt.base, tt.params)
			if err != nil {
				t.Fatalf("WithQuery() error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("WithQuery(%q) = %q, want %q", tt.base, got, tt.expected)
			}
		})
	}
}

func TestRedact(t *testing.T) {
	got := redact("https://api-v2.soundcloud.com/tracks?client_id=secret&ids=1")
	if strings.Contains(got, "secret") {
		t.Errorf("redact left credential in %q", got)
	}
	if !strings.Contains(got, "ids=1") {
		t.Errorf("redact dropped unrelated params: %q", got)
	}

	plain := "https://example.com/a?b=c"
	if got := redact(plain); got != plain {
		t.Errorf("redact(%q) = %q, want unchanged", plain, got)
	}
}
