package ucs

import (
	"fmt"
	"log/slog"
	"strconv"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Alphabet is a guest alphabet number as reported by the guest territory
// manager.
type Alphabet int

const (
	BFont    Alphabet = 100
	Latin1   Alphabet = 101
	Latin2   Alphabet = 102
	Latin3   Alphabet = 103
	Latin4   Alphabet = 104
	Cyrillic Alphabet = 105
	Greek    Alphabet = 106
	Hebrew   Alphabet = 107
	Latin5   Alphabet = 108
	Welsh    Alphabet = 109
	Latin9   Alphabet = 112
	Latin6   Alphabet = 113
	Latin7   Alphabet = 114
	Latin8   Alphabet = 115
	Latin10  Alphabet = 116
)

var alphabetNames = map[Alphabet]string{
	BFont:    "BFont",
	Latin1:   "Latin1",
	Latin2:   "Latin2",
	Latin3:   "Latin3",
	Latin4:   "Latin4",
	Cyrillic: "Cyrillic",
	Greek:    "Greek",
	Hebrew:   "Hebrew",
	Latin5:   "Latin5",
	Welsh:    "Welsh",
	Latin9:   "Latin9",
	Latin6:   "Latin6",
	Latin7:   "Latin7",
	Latin8:   "Latin8",
	Latin10:  "Latin10",
}

func (a Alphabet) String() string {
	if n, ok := alphabetNames[a]; ok {
		return n
	}
	return fmt.Sprintf("alphabet(%d)", int(a))
}

// ParseAlphabet accepts a name ("Latin1") or a number ("101").
func ParseAlphabet(s string) (Alphabet, error) {
	for a, n := range alphabetNames {
		if n == s {
			return a, nil
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("unknown alphabet %q", s)
	}
	return Alphabet(n), nil
}

// Service is the guest locale service that owns the authoritative conversion
// tables. claimed is false when no handler answered for the alphabet.
type Service interface {
	ConversionTable(a Alphabet) (t *Table, claimed bool, err error)
}

// Resolve asks svc for the table of a and falls back to Builtin when the
// service is missing, fails, or declines.
func Resolve(svc Service, a Alphabet) *Table {
	if svc == nil {
		return Builtin(a)
	}
	t, claimed, err := svc.ConversionTable(a)
	switch {
	case err != nil:
		slog.Debug("conversion table lookup failed, using built-in", "alphabet", a, "err", err)
		return Builtin(a)
	case !claimed || t == nil:
		slog.Debug("conversion table unclaimed, using built-in", "alphabet", a)
		return Builtin(a)
	}
	return t.Clone()
}

var charmaps = map[Alphabet]*charmap.Charmap{
	BFont:    charmap.ISO8859_1,
	Latin1:   charmap.ISO8859_1,
	Latin2:   charmap.ISO8859_2,
	Latin3:   charmap.ISO8859_3,
	Latin4:   charmap.ISO8859_4,
	Cyrillic: charmap.ISO8859_5,
	Greek:    charmap.ISO8859_7,
	Hebrew:   charmap.ISO8859_8,
	Latin5:   charmap.ISO8859_9,
	Welsh:    charmap.ISO8859_14,
	Latin9:   charmap.ISO8859_15,
	Latin6:   charmap.ISO8859_10,
	Latin7:   charmap.ISO8859_13,
	Latin8:   charmap.ISO8859_14,
	Latin10:  charmap.ISO8859_16,
}

// The guest Latin alphabets put typographic symbols in the C1 range that
// ISO 8859 leaves to control codes.
var latinC1 = map[byte]uint32{
	0x80: 0x20ac, 0x81: 0x0174, 0x82: 0x0175, 0x85: 0x0176, 0x86: 0x0177,
	0x8c: 0x2026, 0x8d: 0x2122, 0x8e: 0x2030, 0x8f: 0x2022,
	0x90: 0x2018, 0x91: 0x2019, 0x92: 0x2039, 0x93: 0x203a,
	0x94: 0x201c, 0x95: 0x201d, 0x96: 0x201e, 0x97: 0x2013,
	0x98: 0x2014, 0x99: 0x2212, 0x9a: 0x0152, 0x9b: 0x0153,
	0x9c: 0x2020, 0x9d: 0x2021, 0x9e: 0xfb01, 0x9f: 0xfb02,
}

func isC1(b byte) bool { return b >= 0x80 && b <= 0x9f }

// Builtin returns the built-in table for a. Unknown alphabets get Latin1.
func Builtin(a Alphabet) *Table {
	cm, ok := charmaps[a]
	if !ok {
		cm = charmaps[Latin1]
		a = Latin1
	}
	var t Table
	for i := range t {
		r := cm.DecodeByte(byte(i))
		switch {
		case r != utf8.RuneError:
			t[i] = uint32(r)
		case isC1(byte(i)):
			// Control codes map to themselves in every alphabet.
			t[i] = uint32(i)
		default:
			t[i] = Unmapped
		}
	}
	switch a {
	case Cyrillic, Greek, Hebrew:
	default:
		for b, cp := range latinC1 {
			t[b] = cp
		}
	}
	return &t
}
