package language

import "regexp"

// Default is the pivot language: all classification, retrieval, and
// generation run in it, with translation at the edges.
const Default = "en"

// Voice holds the speech-service parameters for one supported language.
type Voice struct {
	Locale string // BCP-47 code the speech services expect
	Name   string // default synthesis voice
}

var voices = map[string]Voice{
	"en": {Locale: "en-US", Name: "en-US-Wavenet-C"},
	"hi": {Locale: "hi-IN", Name: "hi-IN-Wavenet-C"},
	"ta": {Locale: "ta-IN", Name: "ta-IN-Wavenet-A"},
	"te": {Locale: "te-IN", Name: "te-IN-Standard-A"},
}

// fallbackNames is served when the translation provider cannot supply the
// supported-language list (unreachable, or project id misconfigured).
var fallbackNames = map[string]string{
	"en": "English",
	"hi": "Hindi",
	"ta": "Tamil",
	"te": "Telugu",
}

func IsSupported(code string) bool {
	_, ok := voices[code]
	return ok
}

// VoiceFor returns the speech parameters for code, falling back to the
// pivot language's settings for unsupported codes.
func VoiceFor(code string) Voice {
	if v, ok := voices[code]; ok {
		return v
	}
	return voices[Default]
}

// Supported returns the supported language codes.
func Supported() []string {
	out := make([]string, 0, len(voices))
	for code := range voices {
		out = append(out, code)
	}
	return out
}

// FallbackNames returns a copy of the static code → display-name table.
func FallbackNames() map[string]string {
	out := make(map[string]string, len(fallbackNames))
	for k, v := range fallbackNames {
		out[k] = v
	}
	return out
}

var projectIDRe = regexp.MustCompile(`^[a-z][a-z0-9-]{5,29}$`)

// ValidProjectID reports whether id looks like a Google Cloud project id
// (lowercase letters, digits, hyphens; starts with a letter; 6-30 chars).
func ValidProjectID(id string) bool {
	return projectIDRe.MatchString(id)
}
