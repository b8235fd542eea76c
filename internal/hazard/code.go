package hazard

import (
	"strings"
)

const (
	// UnknownCode is returned when a filename carries no delimiter at all
	UnknownCode = "???"

	// canonicalDelimiter replaces every configured delimiter before splitting
	canonicalDelimiter = "___"
)

// Delimiters are the characters that separate the product code from the
// rest of a filename.
var Delimiters = []string{"_", "-", " "}

// ProductCode derives the product code from a PDF path.
//
// Backslashes are treated as path separators so Windows paths parse the same
// way on every platform. Each delimiter is replaced by the canonical one and
// the first segment is returned. A filename starting with a delimiter yields
// an empty code, not UnknownCode.
func ProductCode(pdfPath string) string {
	name := strings.ReplaceAll(pdfPath, `\`, "/")
	name = name[strings.LastIndex(name, "/")+1:]

	for _, delimiter := range Delimiters {
		name = strings.ReplaceAll(name, delimiter, canonicalDelimiter)
	}

	if !strings.Contains(name, canonicalDelimiter) {
		return UnknownCode
	}

	return strings.SplitN(name, canonicalDelimiter, 2)[0]
}
