package domain

import "testing"

func TestNewSearchQuery(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		identifier string
		isURL      bool
	}{
		{"plain search", "never gonna give you up", "ytsearch:never gonna give you up", false},
		{"trimmed", "  lofi  ", "ytsearch:lofi", false},
		{"https url", "https://youtu.be/abc", "https://youtu.be/abc", true},
		{"http url", "http://example.com/a.mp3", "http://example.com/a.mp3", true},
		{"www url", "www.example.com/a.mp3", "www.example.com/a.mp3", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := NewSearchQuery(tt.input)
			if q.IsURL != tt.isURL {
				t.Errorf("IsURL = %v, want %v", q.IsURL, tt.isURL)
			}
			if got := q.Identifier(); got != tt.identifier {
				t.Errorf("Identifier() = %q, want %q", got, tt.identifier)
			}
		})
	}
}

func TestSearchQuery_IsValid(t *testing.T) {
	if NewSearchQuery("   ").IsValid() {
		t.Error("expected blank query to be invalid")
	}
	if !NewSearchQuery("song").IsValid() {
		t.Error("expected query to be valid")
	}
}
