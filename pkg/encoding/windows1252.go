// Package encoding provides text encoding utilities for OpenClonk group contents.
//
// Entry names and text definition files (TexMap.txt, *.ocm, ParameterDefs.txt)
// are stored as Windows-1252.
package encoding

import (
	"bytes"
	"strings"
	"unicode/utf8"

	xencoding "golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Windows1252ToUTF8 converts Windows-1252 encoded bytes to a UTF-8 string.
// Input that is already valid UTF-8 is returned unchanged, since newer
// planets ship UTF-8 definition files.
func Windows1252ToUTF8(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	result, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), data)
	if err != nil {
		return string(data)
	}
	return string(result)
}

// UTF8ToWindows1252 converts a UTF-8 string to Windows-1252 bytes.
// Characters without a Windows-1252 representation are replaced.
func UTF8ToWindows1252(s string) []byte {
	encoder := charmap.Windows1252.NewEncoder()
	result, _, err := transform.Bytes(xencoding.ReplaceUnsupported(encoder), []byte(s))
	if err != nil {
		return []byte(s)
	}
	return result
}

// NormalizeEntryName lowercases a group entry name for case-insensitive lookup.
func NormalizeEntryName(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, "\\", "/"))
}

// TrimNullBytes removes trailing null bytes from a byte slice.
func TrimNullBytes(data []byte) []byte {
	return bytes.TrimRight(data, "\x00")
}

// FixedStringToUTF8 converts a fixed-size, null-terminated Windows-1252 field
// to a UTF-8 string.
func FixedStringToUTF8(data []byte) string {
	if i := bytes.IndexByte(data, 0); i >= 0 {
		data = data[:i]
	}
	return Windows1252ToUTF8(data)
}

// UTF8ToFixedString converts a UTF-8 string to a null-padded Windows-1252 field
// of the given size. Names longer than size-1 bytes are truncated so the field
// stays null-terminated.
func UTF8ToFixedString(s string, size int) []byte {
	result := make([]byte, size)
	encoded := UTF8ToWindows1252(s)
	if len(encoded) > size-1 {
		encoded = encoded[:size-1]
	}
	copy(result, encoded)
	return result
}
