package sanitizer

import "testing"

func TestNormalizeContactPhone(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"whitespace only", "   ", ""},
		{"e164 passes through", "+14155552671", "+14155552671"},
		{"spaced international normalized", "+1 415 555 2671", "+14155552671"},
		{"dashes normalized", "+1-415-555-2671", "+14155552671"},
		{"email kept as-is", "dana@example.com", "dana@example.com"},
		{"free-form note kept as-is", "front desk ext. 12", "front desk ext. 12"},
		{"invalid number kept as-is", "+1999", "+1999"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeContactPhone(tt.input); got != tt.want {
				t.Errorf("NormalizeContactPhone(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
