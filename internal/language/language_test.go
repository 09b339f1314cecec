package language

import "testing"

func TestCanonical(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"Hindi", "Hindi", true},
		{"hindi", "Hindi", true},
		{"  HINDI ", "Hindi", true},
		{"hi", "Hindi", true},
		{"hin", "Hindi", true},
		{"hi-IN", "Hindi", true},
		{"en-GB", "English", true},
		{"zh-Hant", "Chinese", true},
		{"bangla", "Bengali", true},
		{"bn", "Bengali", true},
		{"pt-BR", "Portuguese", true},
		{"sw", "Swahili", false},
		{"klingon tongue", "Klingon Tongue", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := Canonical(tt.input)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Canonical(%q) = %q, %v; want %q, %v", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}

func TestCanonicalIsIdempotent(t *testing.T) {
	for _, l := range Supported() {
		got, ok := Canonical(l.Name)
		if !ok || got != l.Name {
			t.Errorf("Canonical(%q) = %q, %v", l.Name, got, ok)
		}
	}
}

func TestSupportedList(t *testing.T) {
	list := Supported()
	if len(list) != 25 {
		t.Fatalf("expected 25 languages, got %d", len(list))
	}
	for i := 1; i < len(list); i++ {
		if list[i-1].Name >= list[i].Name {
			t.Fatalf("list not sorted at %s/%s", list[i-1].Name, list[i].Name)
		}
	}
	codes := map[string]string{}
	for _, l := range list {
		if len(l.Code) != 2 {
			t.Errorf("%s has code %q", l.Name, l.Code)
		}
		if prev, dup := codes[l.Code]; dup {
			t.Errorf("code %s shared by %s and %s", l.Code, prev, l.Name)
		}
		codes[l.Code] = l.Name
		if l.Native == "" {
			t.Errorf("%s has no native name", l.Name)
		}
	}
}

func TestLookupNativeNames(t *testing.T) {
	tests := map[string]string{
		"fr": "français",
		"de": "Deutsch",
		"es": "español",
	}
	for code, native := range tests {
		l, ok := Lookup(code)
		if !ok {
			t.Fatalf("Lookup(%q) failed", code)
		}
		if l.Native != native {
			t.Errorf("Lookup(%q).Native = %q, want %q", code, l.Native, native)
		}
	}
	if _, ok := Lookup("xx-unknown"); ok {
		t.Fatal("expected unknown code to miss")
	}
	if !IsSupported("Tamil") || IsSupported("Swahili") {
		t.Fatal("IsSupported mismatch")
	}
}
