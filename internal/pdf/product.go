package pdf

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// ProductLabels are the identifier labels searched on the first page of a
// sheet. An empty label disables that field.
type ProductLabels struct {
	Name string
	Code string
	UFI  string
}

// DefaultProductLabels returns the labels of French safety data sheets
func DefaultProductLabels() ProductLabels {
	return ProductLabels{
		Name: "Nom du produit",
		Code: "Code du produit",
		UFI:  "UFI",
	}
}

// ProductData holds the identifiers read from a sheet's text
type ProductData struct {
	Name string
	Code string
	UFI  string
}

// ExtractProductData finds each label in text, ignoring case, and returns the
// rest of the first line holding it. When that line has a colon after the
// label, the value starts after the colon. Missing labels give empty values.
func ExtractProductData(text string, labels ProductLabels) ProductData {
	text = norm.NFKC.String(text)
	return ProductData{
		Name: labelValue(text, labels.Name),
		Code: labelValue(text, labels.Code),
		UFI:  labelValue(text, labels.UFI),
	}
}

func labelValue(text, label string) string {
	label = norm.NFKC.String(strings.TrimSpace(label))
	if label == "" {
		return ""
	}

	for i := 0; i < len(text); {
		if n, ok := foldPrefix(text[i:], label); ok {
			rest := text[i+n:]
			if end := strings.IndexByte(rest, '\n'); end >= 0 {
				rest = rest[:end]
			}
			if colon := strings.IndexByte(rest, ':'); colon >= 0 {
				rest = rest[colon+1:]
			}
			return strings.TrimSpace(rest)
		}
		_, size := utf8.DecodeRuneInString(text[i:])
		i += size
	}
	return ""
}

// foldPrefix reports whether s starts with prefix under simple case folding
// and returns the number of bytes of s it covers
func foldPrefix(s, prefix string) (int, bool) {
	n := 0
	for _, want := range prefix {
		if n >= len(s) {
			return 0, false
		}
		got, size := utf8.DecodeRuneInString(s[n:])
		if !equalFold(got, want) {
			return 0, false
		}
		n += size
	}
	return n, true
}

func equalFold(a, b rune) bool {
	if a == b {
		return true
	}
	for f := unicode.SimpleFold(a); f != a; f = unicode.SimpleFold(f) {
		if f == b {
			return true
		}
	}
	return false
}
