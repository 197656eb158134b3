// Package filetype defines the guest file type tags that the clipboard bridge
// understands. Only plain text is converted; the two image types pass through
// as opaque bytes.
package filetype

import (
	"fmt"
	"strconv"
	"strings"
)

// Type is a 12-bit guest file type tag.
type Type uint32

const (
	None Type = 0
	Text Type = 0xfff
	JPEG Type = 0xc85
	PNG  Type = 0xb60
)

// Requested is the preference order sent with every clipboard data request.
var Requested = []Type{Text, JPEG, PNG}

// Accepted reports whether t is one of the types the bridge will transfer.
func Accepted(t Type) bool {
	switch t {
	case Text, JPEG, PNG:
		return true
	}
	return false
}

// MIME returns the host-side MIME type for t, or "" if t is not accepted.
func (t Type) MIME() string {
	switch t {
	case Text:
		return "text/plain"
	case JPEG:
		return "image/jpeg"
	case PNG:
		return "image/png"
	}
	return ""
}

// FromMIME is the inverse of MIME.
func FromMIME(mime string) Type {
	switch mime {
	case "text/plain":
		return Text
	case "image/jpeg":
		return JPEG
	case "image/png":
		return PNG
	}
	return None
}

// Parse accepts a short name ("text", "png", "jpeg"), a MIME type, or a hex
// tag with an optional "&" prefix ("fff", "&b60").
func Parse(s string) (Type, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "text", "txt":
		return Text, nil
	case "jpeg", "jpg":
		return JPEG, nil
	case "png":
		return PNG, nil
	}
	if t := FromMIME(s); t != None {
		return t, nil
	}
	v, err := strconv.ParseUint(strings.TrimPrefix(s, "&"), 16, 12)
	if err != nil {
		return None, fmt.Errorf("unknown file type %q", s)
	}
	return Type(v), nil
}

func (t Type) String() string {
	switch t {
	case Text:
		return "text"
	case JPEG:
		return "jpeg"
	case PNG:
		return "png"
	}
	return fmt.Sprintf("&%03x", uint32(t))
}
