package report

import (
	"sort"
	"strconv"
	"strings"

	"github.com/a3tai/fds-extractor/internal/pdf"
)

var (
	labelsHeader     = []string{"pdf", "code", "label"}
	pictogramsHeader = []string{"pdf", "code", "candidate", "reference", "score", "good_matches", "total_matches"}
)

// LabelRows returns the header and one row per (document, label) pair.
// Documents without labels contribute no rows.
func LabelRows(records []pdf.DocumentRecord) [][]string {
	rows := [][]string{labelsHeader}
	for _, r := range records {
		for _, label := range r.Labels {
			rows = append(rows, []string{r.Path, r.ProductCode, label})
		}
	}
	return rows
}

// DetailRows returns the header pdf, code, vocabulary... and one row per
// document with 1 or 0 for every vocabulary column. Membership is tested
// against the raw matched terms so the matrix reads the same in both modes.
// Duplicate vocabulary entries produce duplicate columns.
func DetailRows(vocabulary []string, records []pdf.DocumentRecord) [][]string {
	header := make([]string, 0, len(vocabulary)+2)
	header = append(header, "pdf", "code")
	header = append(header, vocabulary...)

	rows := [][]string{header}
	for _, r := range records {
		row := make([]string, 0, len(header))
		row = append(row, r.Path, r.ProductCode)
		for _, code := range vocabulary {
			if r.HasTerm(code) {
				row = append(row, "1")
			} else {
				row = append(row, "0")
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// PictogramRows returns one row per matched candidate/reference pair
func PictogramRows(records []pdf.DocumentRecord) [][]string {
	rows := [][]string{pictogramsHeader}
	for _, r := range records {
		for _, m := range r.Matches {
			rows = append(rows, []string{
				r.Path,
				r.ProductCode,
				m.Candidate,
				m.Reference,
				strconv.FormatFloat(m.Score, 'f', 4, 64),
				strconv.Itoa(m.GoodMatches),
				strconv.Itoa(m.TotalMatches),
			})
		}
	}
	return rows
}

// PictogramGroups returns, for each candidate image with at least one match,
// the sorted reference names it matched. Identical groups are reported once
// and groups are sorted.
func PictogramGroups(r pdf.DocumentRecord) [][]string {
	byCandidate := make(map[string]map[string]struct{})
	var order []string
	for _, m := range r.Matches {
		refs, ok := byCandidate[m.Candidate]
		if !ok {
			refs = make(map[string]struct{})
			byCandidate[m.Candidate] = refs
			order = append(order, m.Candidate)
		}
		refs[m.Reference] = struct{}{}
	}

	seen := make(map[string]bool)
	groups := [][]string{}
	for _, candidate := range order {
		group := make([]string, 0, len(byCandidate[candidate]))
		for ref := range byCandidate[candidate] {
			group = append(group, ref)
		}
		sort.Strings(group)

		key := strings.Join(group, "\x00")
		if seen[key] {
			continue
		}
		seen[key] = true
		groups = append(groups, group)
	}

	sort.Slice(groups, func(i, j int) bool {
		return strings.Join(groups[i], "\x00") < strings.Join(groups[j], "\x00")
	})
	return groups
}
