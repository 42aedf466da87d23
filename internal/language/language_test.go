package language

import "testing"

func TestVoiceForSupported(t *testing.T) {
	cases := map[string]string{
		"en": "en-US",
		"hi": "hi-IN",
		"ta": "ta-IN",
		"te": "te-IN",
	}
	for code, locale := range cases {
		if v := VoiceFor(code); v.Locale != locale {
			t.Errorf("VoiceFor(%q).Locale = %q, want %q", code, v.Locale, locale)
		}
	}
}

func TestVoiceForUnsupportedFallsBackToPivot(t *testing.T) {
	for _, code := range []string{"fr", "", "EN", "zz"} {
		v := VoiceFor(code)
		if v.Locale != "en-US" {
			t.Errorf("VoiceFor(%q).Locale = %q, want en-US", code, v.Locale)
		}
	}
}

func TestIsSupported(t *testing.T) {
	for _, code := range []string{"en", "ta", "te", "hi"} {
		if !IsSupported(code) {
			t.Errorf("IsSupported(%q) = false, want true", code)
		}
	}
	if IsSupported("fr") {
		t.Error("IsSupported(fr) = true, want false")
	}
}

func TestFallbackNamesCoversSupportedSet(t *testing.T) {
	names := FallbackNames()
	if len(names) != 4 {
		t.Fatalf("len(FallbackNames()) = %d, want 4", len(names))
	}
	for _, code := range Supported() {
		if names[code] == "" {
			t.Errorf("no fallback display name for %q", code)
		}
	}
}

func TestValidProjectID(t *testing.T) {
	valid := []string{"my-project-123", "abcdef", "a12345"}
	invalid := []string{"", "short", "My-Project", "1project", "a.b.c:d", "a-very-long-project-id-exceeding-thirty-chars"}

	for _, id := range valid {
		if !ValidProjectID(id) {
			t.Errorf("ValidProjectID(%q) = false, want true", id)
		}
	}
	for _, id := range invalid {
		if ValidProjectID(id) {
			t.Errorf("ValidProjectID(%q) = true, want false", id)
		}
	}
}
