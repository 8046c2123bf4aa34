package errors

import (
	"strings"
	"testing"
)

func TestValidateNodeID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"valid simple", "abc123", false},
		{"valid with dashes", "node-4f2a-88", false},
		{"empty", "", true},
		{"too long", strings.Repeat("a", 129), true},
		{"max length ok", strings.Repeat("a", 128), false},
		{"control character", "node\x01id", true},
		{"null byte", "node\x00id", true},
		{"path traversal", "..secret", true},
		{"path separator", "a/b", true},
		{"backslash", "a\\b", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNodeID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateNodeID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidNode) {
				t.Errorf("error code = %v, want %v", GetCode(err), ErrCodeInvalidNode)
			}
		})
	}
}

func TestValidateRegion(t *testing.T) {
	tests := []struct {
		name                   string
		minX, minY, maxX, maxY float64
		wantErr                bool
	}{
		{"valid", 0, 0, 100, 100, false},
		{"valid negative origin", -500, -500, 500, 500, false},
		{"inverted x", 100, 0, 0, 100, true},
		{"inverted y", 0, 100, 100, 0, true},
		{"empty", 0, 0, 0, 100, true},
		{"excessive span", 0, 0, 2 << 20, 100, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRegion(tt.minX, tt.minY, tt.maxX, tt.maxY)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRegion() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidRegion) {
				t.Errorf("error code = %v, want %v", GetCode(err), ErrCodeInvalidRegion)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"valid relative", "data/tree.json", false},
		{"empty", "", true},
		{"absolute", "/etc/passwd", true},
		{"traversal", "../secrets", true},
		{"backslash", "data\\tree.json", true},
		{"null byte", "data\x00.json", true},
		{"too long", strings.Repeat("a", 501), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
		})
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"https", "https://example.com/v1/nodes", false},
		{"http", "http://localhost:8080", false},
		{"empty", "", true},
		{"file scheme", "file:///etc/passwd", true},
		{"no scheme", "example.com", true},
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

func TestValidateFontFamily(t *testing.T) {
	tests := []struct {
		name    string
		family  string
		wantErr bool
	}{
		{"valid", "Go Regular", false},
		{"valid with dash", "Noto-Sans", false},
		{"empty", "", true},
		{"leading digit", "3of9", true},
		{"path injection", "../fonts", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFontFamily(tt.family)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFontFamily(%q) error = %v, wantErr %v", tt.family, err, tt.wantErr)
			}
		})
	}
}
