// Package fileio reads and writes the documents the editor works with.
// Reads tolerate legacy encodings; writes can keep rotating backups of the
// file they replace.
package fileio

import (
	"bytes"
	"fmt"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"

	"formula-editor/internal/logger"
)

// Encoding names a detected text encoding.
type Encoding string

const (
	UTF8    Encoding = "UTF-8"
	UTF8BOM Encoding = "UTF-8-BOM"
	UTF16LE Encoding = "UTF-16LE"
	UTF16BE Encoding = "UTF-16BE"
	GBK     Encoding = "GBK"
	Unknown Encoding = "UNKNOWN"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// DetectEncoding inspects data for a byte order mark, then falls back to
// UTF-8 validity and finally GBK.
func DetectEncoding(data []byte) Encoding {
	switch {
	case bytes.HasPrefix(data, bomUTF8):
		return UTF8BOM
	case bytes.HasPrefix(data, bomUTF16LE):
		return UTF16LE
	case bytes.HasPrefix(data, bomUTF16BE):
		return UTF16BE
	case utf8.Valid(data):
		return UTF8
	case isValidGBK(data):
		return GBK
	default:
		return Unknown
	}
}

func isValidGBK(data []byte) bool {
	decoded, err := simplifiedchinese.GBK.NewDecoder().Bytes(data)
	if err != nil {
		return false
	}
	return utf8.Valid(decoded) && !bytes.ContainsRune(decoded, utf8.RuneError)
}

// Decode converts data to a UTF-8 string, returning the encoding it was
// read as. Unknown encodings are an error.
func Decode(data []byte) (string, Encoding, error) {
	enc := DetectEncoding(data)

	var (
		decoded []byte
		err     error
	)
	switch enc {
	case UTF8:
		decoded = data
	case UTF8BOM:
		decoded = data[len(bomUTF8):]
	case UTF16LE:
		decoded, err = unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder().Bytes(data)
	case UTF16BE:
		decoded, err = unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder().Bytes(data)
	case GBK:
		decoded, err = simplifiedchinese.GBK.NewDecoder().Bytes(data)
	default:
		return "", enc, fmt.Errorf("unsupported encoding")
	}
	if err != nil {
		return "", enc, fmt.Errorf("failed to decode %s: %w", enc, err)
	}
	return string(decoded), enc, nil
}

// ReadText reads path and returns its content as UTF-8.
func ReadText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	text, enc, err := Decode(data)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	if enc != UTF8 {
		logger.Debug("decoded legacy encoding",
			logger.String("path", path),
			logger.String("encoding", string(enc)))
	}
	return text, nil
}
