package ucs

import (
	"encoding/binary"
	"unicode/utf8"
)

// Decode converts guest text to codepoints, one per input byte. Bytes the
// alphabet does not map are dropped.
func Decode(t *Table, b []byte) []uint32 {
	if t == nil {
		return nil
	}
	out := make([]uint32, 0, len(b))
	for _, c := range b {
		if cp := t[c]; cp != Unmapped {
			out = append(out, cp)
		}
	}
	return out
}

// Encode converts codepoints back to guest text. Codepoints with no byte in
// the alphabet are skipped, so the result may be shorter than the input. The
// result always ends with a 0 terminator that is not part of the text.
func Encode(t *Table, cps []uint32) []byte {
	if t == nil {
		return nil
	}
	out := make([]byte, 0, len(cps)+1)
	for _, cp := range cps {
		if b, ok := t.Reverse(cp); ok {
			out = append(out, b)
		}
	}
	return append(out, 0)
}

// PackUCS4 serialises codepoints as little-endian 32-bit words.
func PackUCS4(cps []uint32) []byte {
	b := make([]byte, len(cps)*4)
	for i, cp := range cps {
		binary.LittleEndian.PutUint32(b[i*4:], cp)
	}
	return b
}

// UnpackUCS4 is the inverse of PackUCS4. A trailing partial word is ignored.
func UnpackUCS4(b []byte) []uint32 {
	cps := make([]uint32, len(b)/4)
	for i := range cps {
		cps[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	return cps
}

// UCS4FromUTF8 converts host UTF-8 text to packed UCS-4.
func UCS4FromUTF8(s string) []byte {
	cps := make([]uint32, 0, utf8.RuneCountInString(s))
	for _, r := range s {
		cps = append(cps, uint32(r))
	}
	return PackUCS4(cps)
}

// UTF8FromUCS4 converts packed UCS-4 to host UTF-8. Invalid codepoints and
// NUL words are dropped.
func UTF8FromUCS4(b []byte) string {
	var sb []byte
	for _, cp := range UnpackUCS4(b) {
		r := rune(cp)
		if cp == 0 || cp > utf8.MaxRune || !utf8.ValidRune(r) {
			continue
		}
		sb = utf8.AppendRune(sb, r)
	}
	return string(sb)
}
