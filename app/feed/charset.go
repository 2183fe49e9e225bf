package feed

import (
	"bytes"
	"regexp"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	utf8BOM    = []byte{0xEF, 0xBB, 0xBF}
	utf16BEBOM = []byte{0xFE, 0xFF}
	utf16LEBOM = []byte{0xFF, 0xFE}

	declEncoding = regexp.MustCompile(`^\s*<\?xml\s[^>]*?\bencoding\s*=\s*["']([A-Za-z0-9._:\-]+)["']`)
)

// prepareInput returns the document as UTF-8 with any byte order mark
// removed and the declared encoding, if any, set to UTF-8.
func prepareInput(raw []byte) ([]byte, error) {
	switch {
	case bytes.HasPrefix(raw, utf8BOM):
		raw = raw[len(utf8BOM):]

	case bytes.HasPrefix(raw, utf16BEBOM), bytes.HasPrefix(raw, utf16LEBOM):
		decoded, _, err := transform.Bytes(unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder(), raw)
		if err != nil {
			return nil, malformed(err, "invalid UTF-16 document")
		}
		return rewriteDeclaredEncoding(decoded), nil
	}

	m := declEncoding.FindSubmatch(raw)
	if m == nil {
		return raw, nil
	}

	label := strings.ToLower(string(m[1]))
	if label == "utf-8" {
		return raw, nil
	}

	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, malformed(err, "unsupported encoding %q", label)
	}

	name, _ := htmlindex.Name(enc)
	// A UTF-16 label without a byte order mark means the bytes reached the
	// parser some other way; trust the bytes over the label.
	if name != "utf-8" && !strings.HasPrefix(name, "utf-16") {
		decoded, _, err := transform.Bytes(enc.NewDecoder(), raw)
		if err != nil {
			return nil, malformed(err, "failed to decode %s document", label)
		}
		raw = decoded
	}

	return rewriteDeclaredEncoding(raw), nil
}

func rewriteDeclaredEncoding(doc []byte) []byte {
	loc := declEncoding.FindSubmatchIndex(doc)
	if loc == nil {
		return doc
	}

	out := make([]byte, 0, len(doc))
	out = append(out, doc[:loc[2]]...)
	out = append(out, "UTF-8"...)
	out = append(out, doc[loc[3]:]...)
	return out
}
