package i18n

import "strings"

// IsValidCountry checks if an ISO 3166-1 alpha-2 country code is supported.
func IsValidCountry(countryCode string) bool {
	_, ok := countryLangMap[strings.ToLower(countryCode)]
	return ok
}

// CountryToLanguage maps a country code to its main supported language.
// Returns "en" and false if no mapping exists.
func CountryToLanguage(countryCode string) (Language, bool) {
	lang, ok := countryLangMap[strings.ToLower(countryCode)]
	if !ok {
		return "en", false
	}
	return lang, true
}

var countryLangMap = map[string]Language{
	"au": "en", "ca": "en", "gb": "en", "ie": "en", "in": "en",
	"pk": "en", "ph": "en", "sg": "en", "us": "en",
	"br": "pt", "pt": "pt",
	"cn": "zh", "hk": "zh", "tw": "zh",
	"eg": "ar",
	"fr": "fr",
	"de": "de", "ch": "de",
	"gr": "el",
	"il": "he",
	"it": "it",
	"jp": "ja",
	"nl": "nl",
	"no": "no",
	"pe": "es", "es": "es",
	"ro": "ro",
	"ru": "ru",
	"se": "sv",
	"ua": "uk",
}
