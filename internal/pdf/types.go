package pdf

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Mode selects which representation a document's labels use
type Mode string

const (
	// ModeRaw searches the hazard vocabulary and labels documents with codes
	ModeRaw Mode = "raw"
	// ModeMapped searches mapping terms and labels documents with categories
	ModeMapped Mode = "mapped"
)

// ParseMode validates a mode name
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeRaw, ModeMapped:
		return m, nil
	default:
		return "", fmt.Errorf("invalid mode %q (must be one of: raw, mapped)", s)
	}
}

// FileInfo represents information about a PDF file
type FileInfo struct {
	Path string `json:"path"`
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// DocumentRecord is the extraction result for one PDF. Labels is a sorted
// set holding either codes (raw mode) or categories (mapped mode). Terms holds
// the raw terms that matched and is not part of the JSON form.
type DocumentRecord struct {
	Path        string   `json:"pdf"`
	ProductCode string   `json:"code"`
	Labels      []string `json:"labels"`
	Terms       []string `json:"-"`
	Pictograms  []string `json:"pictos,omitempty"`
	Error       string   `json:"error,omitempty"`

	// Product identifiers read from the first page when enabled
	ProductName string `json:"name,omitempty"`
	SheetCode   string `json:"sheet_code,omitempty"`
	UFI         string `json:"ufi,omitempty"`

	// PageCount is the number of pages of the opened document
	PageCount int `json:"-"`

	// Matches lists candidate/reference pairs when the pictogram stage ran
	Matches []PictogramMatch `json:"-"`
}

// HasTerm reports whether term matched the document's text layer
func (r DocumentRecord) HasTerm(term string) bool {
	for _, t := range r.Terms {
		if t == term {
			return true
		}
	}
	return false
}

// PictogramMatch is a reference pictogram found among a document's images
type PictogramMatch struct {
	Candidate    string  `json:"candidate"`
	Reference    string  `json:"reference"`
	Score        float64 `json:"score"`
	GoodMatches  int     `json:"good_matches"`
	TotalMatches int     `json:"total_matches"`
}

// Progress reports pipeline advancement after each document
type Progress struct {
	Done  int    `json:"done"`
	Total int    `json:"total"`
	Path  string `json:"path"`
}

// PageSelection lists zero-based page indices, or every page when All is set
type PageSelection struct {
	All     bool
	Indices []int
}

// DefaultPages selects the first page only
func DefaultPages() PageSelection {
	return PageSelection{Indices: []int{0}}
}

// ParsePages parses "all" or a comma separated list of zero-based indices.
// Duplicates are removed and the order of first appearance is kept.
func ParsePages(s string) (PageSelection, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultPages(), nil
	}
	if strings.EqualFold(s, "all") {
		return PageSelection{All: true}, nil
	}

	var sel PageSelection
	seen := make(map[int]bool)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return PageSelection{}, fmt.Errorf("invalid page index %q: %w", part, err)
		}
		if n < 0 {
			return PageSelection{}, fmt.Errorf("page index must be zero or positive, got %d", n)
		}
		if !seen[n] {
			seen[n] = true
			sel.Indices = append(sel.Indices, n)
		}
	}

	if len(sel.Indices) == 0 {
		return PageSelection{}, fmt.Errorf("no page indices in %q", s)
	}
	return sel, nil
}

// Resolve returns the selected indices for a document with pageCount pages
// and the indices that fall outside it.
func (p PageSelection) Resolve(pageCount int) (pages, outside []int) {
	if p.All {
		pages = make([]int, pageCount)
		for i := range pages {
			pages[i] = i
		}
		return pages, nil
	}

	for _, idx := range p.Indices {
		if idx < pageCount {
			pages = append(pages, idx)
		} else {
			outside = append(outside, idx)
		}
	}
	return pages, outside
}

// String renders the selection in the form ParsePages accepts
func (p PageSelection) String() string {
	if p.All {
		return "all"
	}
	parts := make([]string, len(p.Indices))
	for i, idx := range p.Indices {
		parts[i] = strconv.Itoa(idx)
	}
	return strings.Join(parts, ",")
}

func sortedSet(values map[string]struct{}) []string {
	out := make([]string, 0, len(values))
	for v := range values {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
