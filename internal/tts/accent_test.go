package tts

import "testing"

func TestAccentSpecification(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"English", "Indian English"},
		{"english", "Indian English"},
		{"English (Indian)", "Indian English"},
		{"British English", "British English"},
		{"English (British)", "British English"},
		{"american english", "American English"},
		{"English (Australian)", "Australian English"},
		{"Canadian English", "Canadian English"},
		{"Pirate English", "Indian English"},
		{" Hindi ", "Hindi"},
		{"Brazilian Portuguese", "Brazilian Portuguese"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := AccentSpecification(tt.in)
			if got != tt.want {
				t.Fatalf("AccentSpecification(%q) = %q want %q", tt.in, got, tt.want)
			}
			if again := AccentSpecification(got); again != got {
				t.Fatalf("not idempotent: %q -> %q", got, again)
			}
		})
	}
}
