// Package encoding provides text encoding utilities for JS5 cache file formats.
package encoding

import (
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// DecodeCP1252 converts windows-1252 encoded bytes to a UTF-8 string.
// The five byte values the code page leaves undefined (0x81, 0x8D, 0x8F,
// 0x90, 0x9D) decode to '?', matching how the client renders them.
func DecodeCP1252(data []byte) string {
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		// Charmap decoding is total; keep the raw bytes if it ever fails.
		return string(data)
	}
	return strings.Map(replaceUndefined, string(decoded))
}

// replaceUndefined maps the C1 controls that stand in for the undefined
// windows-1252 bytes to '?'.
func replaceUndefined(r rune) rune {
	switch r {
	case '\u0081', '\u008D', '\u008F', '\u0090', '\u009D':
		return '?'
	}
	return r
}

// EncodeCP1252 converts a UTF-8 string to windows-1252 bytes.
// Returns the raw string bytes if a rune has no windows-1252 encoding.
func EncodeCP1252(s string) []byte {
	encoded, err := charmap.Windows1252.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return []byte(s)
	}
	return encoded
}
