package encoding

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"mime"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// NewUTF8Reader detects the encoding of a response body and returns a reader
// that decodes it to UTF-8.
//
// Detection order:
//  1. BOM (UTF-8 BOM is stripped; UTF-16 LE/BE is decoded)
//  2. Valid UTF-8 is returned as-is
//  3. Heuristic detection via chardet among single-byte Latin charsets
//  4. Fallback to Windows-1252
func NewUTF8Reader(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)

	buf, err := br.Peek(4096)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, fmt.Errorf("peek: %w", err)
	}

	truncated := err == nil || err == bufio.ErrBufferFull

	switch {
	case bytes.HasPrefix(buf, bomUTF8):
		_, _ = br.Discard(len(bomUTF8))
		return br, nil
	case bytes.HasPrefix(buf, bomUTF16LE):
		return transform.NewReader(br, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()), nil
	case bytes.HasPrefix(buf, bomUTF16BE):
		return transform.NewReader(br, unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder()), nil
	case validUTF8(buf, truncated):
		return br, nil
	}

	// The sample is not UTF-8, so a UTF-8 guess from chardet is ignored.
	result, detectErr := chardet.NewTextDetector().DetectBest(buf)
	if detectErr == nil {
		switch result.Charset {
		case "ISO-8859-1", "windows-1252":
			return transform.NewReader(br, charmap.Windows1252.NewDecoder()), nil
		case "ISO-8859-15":
			return transform.NewReader(br, charmap.ISO8859_15.NewDecoder()), nil
		}
	}

	return transform.NewReader(br, charmap.Windows1252.NewDecoder()), nil
}

// validUTF8 reports whether buf is UTF-8. A truncated sample may end in the
// middle of a rune.
func validUTF8(buf []byte, truncated bool) bool {
	if utf8.Valid(buf) {
		return true
	}

	if !truncated {
		return false
	}

	for i := 1; i < utf8.UTFMax && i <= len(buf); i++ {
		if utf8.RuneStart(buf[len(buf)-i]) {
			return !utf8.FullRune(buf[len(buf)-i:]) && utf8.Valid(buf[:len(buf)-i])
		}
	}

	return false
}

// DecodeBody decodes a complete response body to UTF-8, trusting the charset
// parameter of contentType when it names a known encoding and detecting it
// otherwise. A body labelled UTF-8 that is not valid UTF-8 is detected too.
func DecodeBody(b []byte, contentType string) []byte {
	if _, params, err := mime.ParseMediaType(contentType); err == nil && params["charset"] != "" {
		if enc, err := htmlindex.Get(params["charset"]); err == nil {
			if name, _ := htmlindex.Name(enc); name == "utf-8" && !utf8.Valid(b) {
				return ToUTF8(b)
			}

			if out, err := enc.NewDecoder().Bytes(b); err == nil {
				return bytes.TrimPrefix(out, bomUTF8)
			}
		}
	}

	return ToUTF8(b)
}

// ToUTF8 decodes a complete body. Undecodable input comes back unchanged.
func ToUTF8(b []byte) []byte {
	r, err := NewUTF8Reader(bytes.NewReader(b))
	if err != nil {
		return b
	}

	out, err := io.ReadAll(r)
	if err != nil {
		return b
	}

	return out
}
