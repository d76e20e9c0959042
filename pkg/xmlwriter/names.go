package xmlwriter

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf16"
)

// EncodeName turns an arbitrary string into a valid XML NCName. Characters
// that cannot appear in a name are written as _xHHHH_ (one per UTF-16 unit),
// and an underscore that would otherwise read as such a sequence is itself
// encoded as _x005F_.
func EncodeName(s string) string {
	if s != "" && isPlainName(s) {
		return s
	}

	var b strings.Builder
	for i, r := range s {
		switch {
		case r == '_' && looksEncoded(s[i:]):
			b.WriteString("_x005F_")
		case i == 0 && isNameStart(r), i > 0 && isNameChar(r):
			b.WriteRune(r)
		default:
			writeEncoded(&b, r)
		}
	}
	return b.String()
}

func isPlainName(s string) bool {
	for i, r := range s {
		if r == '_' && looksEncoded(s[i:]) {
			return false
		}
		if i == 0 && !isNameStart(r) || i > 0 && !isNameChar(r) {
			return false
		}
	}
	return true
}

func isNameStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isNameChar(r rune) bool {
	return isNameStart(r) || r == '-' || r == '.' || unicode.IsDigit(r) ||
		unicode.Is(unicode.Mn, r) || unicode.Is(unicode.Mc, r)
}

// looksEncoded reports whether s starts with _xHHHH_.
func looksEncoded(s string) bool {
	if len(s) < 7 || s[0] != '_' || s[1] != 'x' || s[6] != '_' {
		return false
	}
	for _, c := range s[2:6] {
		if !unicode.Is(unicode.ASCII_Hex_Digit, c) {
			return false
		}
	}
	return true
}

func writeEncoded(b *strings.Builder, r rune) {
	if r > 0xFFFF {
		hi, lo := utf16.EncodeRune(r)
		fmt.Fprintf(b, "_x%04X__x%04X_", hi, lo)
		return
	}
	fmt.Fprintf(b, "_x%04X_", r)
}
