package ucs

import (
	"log/slog"
	"strings"

	"github.com/jeandeaual/go-locale"
	"golang.org/x/text/language"
)

// AlphabetForLocale picks a guest alphabet matching the host user's locale.
// It returns Latin1 when the locale cannot be determined.
func AlphabetForLocale() Alphabet {
	loc, err := locale.GetLocale()
	if err != nil || loc == "" {
		slog.Debug("host locale unavailable, defaulting alphabet", "err", err)
		return Latin1
	}
	return AlphabetForTag(loc)
}

// AlphabetForTag maps a BCP 47 (or POSIX-style) locale name to an alphabet.
func AlphabetForTag(s string) Alphabet {
	s = strings.ReplaceAll(s, "_", "-")
	if i := strings.IndexAny(s, ".@"); i >= 0 {
		s = s[:i]
	}
	tag, err := language.Parse(s)
	if err != nil {
		return Latin1
	}
	base, _ := tag.Base()
	switch base.String() {
	case "ru", "uk", "be", "bg", "sr", "mk":
		return Cyrillic
	case "el":
		return Greek
	case "he", "yi":
		return Hebrew
	case "tr", "az":
		return Latin5
	case "pl", "cs", "sk", "hu", "hr", "sl", "ro":
		return Latin2
	case "mt", "eo":
		return Latin3
	case "lt", "lv":
		return Latin4
	case "cy":
		return Welsh
	case "et":
		return Latin9
	}
	return Latin1
}
