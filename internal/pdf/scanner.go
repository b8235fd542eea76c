package pdf

import (
	"context"
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/a3tai/fds-extractor/internal/hazard"
	"golang.org/x/text/unicode/norm"
)

// Term is a search string and the label recorded when it is found
type Term struct {
	Value string
	Label string
}

// VocabularyTerms labels each code with itself. Duplicate codes are searched once.
func VocabularyTerms(codes []string) []Term {
	seen := make(map[string]bool, len(codes))
	terms := make([]Term, 0, len(codes))
	for _, code := range codes {
		if seen[code] {
			continue
		}
		seen[code] = true
		terms = append(terms, Term{Value: code, Label: code})
	}
	return terms
}

// MappingTerms labels each mapping term passing filter with its category
func MappingTerms(m *hazard.Mapping, filter hazard.Filter) []Term {
	entries := m.Select(filter)
	terms := make([]Term, 0, len(entries))
	for _, e := range entries {
		terms = append(terms, Term{Value: e.Term, Label: e.Category})
	}
	return terms
}

// Scanner searches the text layer of selected pages for whole-word terms
type Scanner struct {
	opener  Opener
	pages   PageSelection
	product *ProductLabels
	logger  *slog.Logger
}

// NewScanner creates a scanner reading pages through opener
func NewScanner(opener Opener, pages PageSelection, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	if !pages.All && len(pages.Indices) == 0 {
		pages = DefaultPages()
	}
	return &Scanner{opener: opener, pages: pages, logger: logger}
}

// WithProductLabels enables reading product identifiers from the first page.
// nil disables it.
func (s *Scanner) WithProductLabels(labels *ProductLabels) *Scanner {
	s.product = labels
	return s
}

// Scan builds the record for the PDF at path. A document that cannot be
// opened yields a record with no labels and Error set; Scan never fails the
// batch.
func (s *Scanner) Scan(ctx context.Context, path string, terms []Term) DocumentRecord {
	record := DocumentRecord{
		Path:        path,
		ProductCode: hazard.ProductCode(path),
		Labels:      []string{},
	}

	doc, err := s.opener.Open(path)
	if err != nil {
		s.logger.Warn("failed to open PDF", "path", path, "error", err)
		record.Error = err.Error()
		return record
	}
	defer doc.Close()

	record.PageCount = doc.NumPages()
	pages, outside := s.pages.Resolve(doc.NumPages())
	for _, idx := range outside {
		s.logger.Warn("page outside document", "path", path, "page", idx, "pages", doc.NumPages())
	}

	normalized := make([]string, len(terms))
	for i, t := range terms {
		normalized[i] = norm.NFKC.String(t.Value)
	}

	found := make(map[string]struct{})
	labels := make(map[string]struct{})
	firstPage, haveFirst := "", false

	for _, idx := range pages {
		if ctx.Err() != nil {
			record.Error = ctx.Err().Error()
			break
		}

		text, err := doc.PageText(idx)
		if err != nil {
			s.logger.Warn("failed to extract page text", "path", path, "page", idx, "error", err)
			continue
		}
		text = norm.NFKC.String(text)
		if idx == 0 {
			firstPage, haveFirst = text, true
		}

		for i, term := range terms {
			if _, ok := found[term.Value]; ok {
				continue
			}
			if ContainsWord(text, normalized[i]) {
				found[term.Value] = struct{}{}
				labels[term.Label] = struct{}{}
			}
		}
	}

	record.Terms = sortedSet(found)
	record.Labels = sortedSet(labels)

	if s.product != nil && ctx.Err() == nil {
		if !haveFirst {
			if firstPage, err = doc.PageText(0); err != nil {
				s.logger.Warn("failed to extract product data", "path", path, "error", err)
			}
		}
		data := ExtractProductData(firstPage, *s.product)
		record.ProductName, record.SheetCode, record.UFI = data.Name, data.Code, data.UFI
	}

	s.logger.Debug("scanned PDF", "path", path, "pages", len(pages), "labels", len(record.Labels))
	return record
}

// ContainsWord reports whether word occurs in text as a whole word: an
// occurrence only counts when the characters around it are not letters,
// digits or underscores. Matching is case-sensitive.
func ContainsWord(text, word string) bool {
	if word == "" {
		return false
	}

	first, _ := utf8.DecodeRuneInString(word)
	last, _ := utf8.DecodeLastRuneInString(word)
	checkBefore, checkAfter := isWordRune(first), isWordRune(last)

	offset := 0
	for offset <= len(text)-len(word) {
		i := strings.Index(text[offset:], word)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(word)

		before, _ := utf8.DecodeLastRuneInString(text[:start])
		after, _ := utf8.DecodeRuneInString(text[end:])

		okBefore := !checkBefore || start == 0 || !isWordRune(before)
		okAfter := !checkAfter || end == len(text) || !isWordRune(after)
		if okBefore && okAfter {
			return true
		}

		_, size := utf8.DecodeRuneInString(text[start:])
		offset = start + size
	}

	return false
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
