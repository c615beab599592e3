// Package naming provides identifier case helpers for generated code.
package naming

import (
	"go/token"
	"strings"
	"unicode"
)

// Capitalize upper-cases the first rune and leaves the rest untouched
// ("userID" -> "UserID").
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// Uncapitalize lower-cases the first rune and leaves the rest untouched.
func Uncapitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToLower(runes[0])
	return string(runes)
}

// CamelCase converts to camelCase.
func CamelCase(s string) string {
	if s == "" {
		return s
	}
	pascal := PascalCase(s)
	if pascal == "" {
		return pascal
	}
	runes := []rune(pascal)
	runes[0] = unicode.ToLower(runes[0])
	return string(runes)
}

// PascalCase converts to PascalCase.
func PascalCase(s string) string {
	words := splitWords(s)
	for i, word := range words {
		if len(word) > 0 {
			runes := []rune(word)
			runes[0] = unicode.ToUpper(runes[0])
			for j := 1; j < len(runes); j++ {
				runes[j] = unicode.ToLower(runes[j])
			}
			words[i] = string(runes)
		}
	}
	return strings.Join(words, "")
}

// Ident makes s usable as a local Go identifier by suffixing keywords and
// predeclared names that would otherwise be shadowed.
func Ident(s string) string {
	if token.IsKeyword(s) || s == "s" || s == "next" || s == "base" {
		return s + "_"
	}
	return s
}

// StorageName returns the unexported field name used to carry a step value.
func StorageName(field string) string {
	name := CamelCase(field)
	if name == "" {
		name = Uncapitalize(field)
	}
	return Ident(name)
}

// Exported returns s with the first rune upper- or lower-cased so that its
// visibility matches exported.
func Exported(s string, exported bool) string {
	if exported {
		return Capitalize(s)
	}
	return Uncapitalize(s)
}

// splitWords splits a string into words (handles camelCase, PascalCase, snake_case, etc.).
func splitWords(s string) []string {
	var words []string
	var current []rune

	runes := []rune(s)
	for i, r := range runes {
		if r == '_' || r == '-' || r == ' ' {
			if len(current) > 0 {
				words = append(words, string(current))
				current = nil
			}
			continue
		}

		if unicode.IsUpper(r) && i > 0 {
			// Check if this is the start of a new word
			prev := runes[i-1]
			if unicode.IsLower(prev) || (i+1 < len(runes) && unicode.IsLower(runes[i+1])) {
				if len(current) > 0 {
					words = append(words, string(current))
					current = nil
				}
			}
		}

		current = append(current, r)
	}

	if len(current) > 0 {
		words = append(words, string(current))
	}

	return words
}
