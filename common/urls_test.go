package common

import "testing"

func TestIsRemote(t *testing.T) {
	tests := []struct {
		target string
		want   bool
	}{
		{"http://x/y.png", true},
		{"https://example.com/a.png", true},
		{"//cdn.example.com/a.png", true},
		{"data:image/png;base64,AAAA", true},
		{"mailto:someone@example.com", true},
		{"img.png", false},
		{"dir/img.png", false},
		{"/abs/img.png", false},
		{"C:/images/img.png", false},
		{"my%20image.png", false},
	}
	for _, tt := range tests {
		if got := IsRemote(tt.target); got != tt.want {
			t.Errorf("IsRemote(%q) = %v, want %v", tt.target, got, tt.want)
		}
	}
}
