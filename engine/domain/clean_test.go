package domain

import "testing"

func TestCleanText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase", "HELLO", "hello"},
		{"redaction run stripped", "Account XXXXXX closed without notice. HELLO.", "account closed without notice. hello."},
		{"inline redaction", "Account xxx123", "account 123"},
		{"single x kept", "tax exempt", "tax exempt"},
		{"whitespace collapsed", "too   many\n\nspaces", "too many spaces"},
		{"trimmed", "  padded  ", "padded"},
		{"empty", "", ""},
		{"only redaction", "XXXX XXXX", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanText(tt.in); got != tt.want {
				t.Errorf("CleanText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
