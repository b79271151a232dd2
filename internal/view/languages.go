package view

import "strings"

var languageNames = map[string]string{
	"en": "English",
	"hi": "हिंदी (Hindi)",
	"bn": "বাংলা (Bengali)",
	"te": "తెలుగు (Telugu)",
	"mr": "मराठी (Marathi)",
	"ta": "தமிழ் (Tamil)",
	"gu": "ગુજરાતી (Gujarati)",
	"kn": "ಕನ್ನಡ (Kannada)",
	"ml": "മലയാളം (Malayalam)",
	"pa": "ਪੰਜਾਬੀ (Punjabi)",
	"or": "ଓଡ଼ିଆ (Odia)",
	"as": "অসমীয়া (Assamese)",
	"ur": "اردو (Urdu)",
	"sa": "संस्कृत (Sanskrit)",
	"ne": "नेपाली (Nepali)",
	"ks": "कॉशुर (Kashmiri)",
	"sd": "سنڌي (Sindhi)",
}

// LanguageName decodes a language code, returning the code itself when it
// is unknown.
func LanguageName(code string) string {
	if name, ok := languageNames[strings.ToLower(code)]; ok {
		return name
	}
	return code
}

func LanguageNames(codes []string) []string {
	out := make([]string, len(codes))
	for i, c := range codes {
		out[i] = LanguageName(c)
	}
	return out
}

// KnownLanguage reports whether code has a display name.
func KnownLanguage(code string) bool {
	_, ok := languageNames[strings.ToLower(code)]
	return ok
}
