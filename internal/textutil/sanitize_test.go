package textutil

import (
	"strings"
	"testing"
)

func TestStem(t *testing.T) {
	cases := []struct{ in, want string }{
		{"/videos/clip.mp4", "clip"},
		{"  spaced   out  .mkv", "spaced out"},
		{"a:b*c.mov", "a-b-c"},
		{`who?"<is>|here.mp4`, "whoishere"},
		{"Episode 1: The Start.webm", "Episode 1- The Start"},
		{"tab\there\x00.mp4", "tab here"},
		{"", "video"},
		{"/", "video"},
		{".hidden", "video"},
		{"...mp4", "video"},
		{"/media/नमस्ते दुनिया.mp4", "नमस्ते दुनिया"},
	}
	for _, tc := range cases {
		if got := Stem(tc.in); got != tc.want {
			t.Errorf("Stem(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestStemCapsLength(t *testing.T) {
	long := strings.Repeat("ab ", 100) + ".mp4"
	got := Stem(long)
	if n := len([]rune(got)); n > maxStemRunes {
		t.Fatalf("stem has %d runes", n)
	}
	if strings.HasSuffix(got, " ") {
		t.Fatalf("stem ends with a space: %q", got)
	}
}

func TestDubbedName(t *testing.T) {
	if got := DubbedName("/in/clip.mkv", ".mp4"); got != "dubbed_clip.mp4" {
		t.Fatalf("DubbedName = %q", got)
	}
	if got := DubbedName("/in/clip.mkv", ".wav"); got != "dubbed_clip.wav" {
		t.Fatalf("DubbedName = %q", got)
	}
}
