// Package i18n knows the language and country codes accepted by the news search API.
package i18n

import (
	"sort"
	"strings"
)

// Language is an ISO 639-1 language code.
type Language string

// Languages lists the supported languages with their display names.
var Languages = map[Language]string{
	"ar": "Arabic", "zh": "Chinese", "nl": "Dutch", "en": "English",
	"fr": "French", "de": "German", "el": "Greek", "he": "Hebrew",
	"hi": "Hindi", "it": "Italian", "ja": "Japanese", "ml": "Malayalam",
	"mr": "Marathi", "no": "Norwegian", "pt": "Portuguese", "ro": "Romanian",
	"ru": "Russian", "es": "Spanish", "sv": "Swedish", "ta": "Tamil",
	"te": "Telugu", "uk": "Ukrainian",
}

// LanguageName returns the display name of a language, or the code itself.
func LanguageName(lang Language) string {
	if name, ok := Languages[lang]; ok {
		return name
	}
	return string(lang)
}

// IsValidLanguage checks if a language code is supported. Codes are case-insensitive.
func IsValidLanguage(lang string) bool {
	_, ok := Languages[Language(strings.ToLower(lang))]
	return ok
}

// LanguageCodes returns the supported language codes, sorted.
func LanguageCodes() []string {
	codes := make([]string, 0, len(Languages))
	for l := range Languages {
		codes = append(codes, string(l))
	}
	sort.Strings(codes)
	return codes
}
