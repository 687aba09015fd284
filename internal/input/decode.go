// Package input loads SQL source files and groups them into repository
// work units, decoding legacy encodings along the way.
package input

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// Decode converts raw file bytes to a UTF-8 string. The fallback chain is
// UTF-8, then UTF-16 when a byte order mark is present, then Windows-1252
// as the catch-all for single-byte legacy files. SQL dumps in the wild
// carry all three.
func Decode(raw []byte) (string, error) {
	if bytes.HasPrefix(raw, bomUTF8) {
		raw = raw[len(bomUTF8):]
	}

	if bytes.HasPrefix(raw, bomUTF16LE) || bytes.HasPrefix(raw, bomUTF16BE) {
		dec := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
		out, err := dec.Bytes(raw)
		if err != nil {
			return "", fmt.Errorf("decode utf-16: %w", err)
		}
		return string(out), nil
	}

	if utf8.Valid(raw) {
		return string(raw), nil
	}

	out, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("decode windows-1252: %w", err)
	}
	return string(out), nil
}
