package codec

import (
	"encoding/hex"
	"unicode/utf8"

	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/schema"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

var latin1Encoder = encoding.ReplaceUnsupported(charmap.ISO8859_1.NewEncoder())

// encodeText converts s to the field charset and fits it to n bytes.
// lossy reports replaced characters or truncation.
func encodeText(s string, cs schema.Charset, n int) (out []byte, lossy bool) {
	switch cs {
	case schema.UTF8:
		out = []byte(s)
		if len(out) > n {
			cut := n
			for cut > 0 && !utf8.RuneStart(out[cut]) {
				cut--
			}
			out, lossy = out[:cut], true
		}
		return out, lossy
	case schema.Latin1:
		enc, err := latin1Encoder.String(s)
		if err == nil {
			out = []byte(enc)
			break
		}
		fallthrough
	default:
		out, lossy = asciiOnly(s)
	}
	if len(out) > n {
		out, lossy = out[:n], true
	}
	return out, lossy
}

// asciiOnly replaces every non-ASCII rune with '?'
func asciiOnly(s string) ([]byte, bool) {
	out := make([]byte, 0, len(s))
	replaced := false
	for _, r := range s {
		if r >= utf8.RuneSelf {
			r, replaced = '?', true
		}
		out = append(out, byte(r))
	}
	return out, replaced
}

// decodeText strips trailing zero bytes and decodes the rest. Bytes that are
// not valid in the charset come back as a hex string.
func decodeText(b []byte, cs schema.Charset) (string, bool) {
	end := len(b)
	for end > 0 && b[end-1] == 0 {
		end--
	}
	b = b[:end]

	switch cs {
	case schema.UTF8:
		if utf8.Valid(b) {
			return string(b), true
		}
	case schema.Latin1:
		s, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
		if err == nil {
			return string(s), true
		}
	default:
		ok := true
		for _, c := range b {
			if c >= utf8.RuneSelf {
				ok = false
				break
			}
		}
		if ok {
			return string(b), true
		}
	}
	return hex.EncodeToString(b), false
}
