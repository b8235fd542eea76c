package pictogram

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
)

// Similarity is the outcome of comparing one candidate with one reference
type Similarity struct {
	IsMatch      bool    `json:"is_match"`
	Score        float64 `json:"score"`
	GoodMatches  int     `json:"good_matches"`
	TotalMatches int     `json:"total_matches"`
}

// Match is a candidate/reference pair whose score exceeded the threshold
type Match struct {
	Candidate string `json:"candidate"`
	Reference string `json:"reference"`
	Similarity
}

// Results maps candidate name to reference name to similarity, matches only
type Results map[string]map[string]Similarity

// Matcher compares candidate images with reference pictograms using a single
// strategy and threshold.
type Matcher struct {
	strategy  Strategy
	threshold float64
	logger    *slog.Logger
}

// NewMatcher builds a matcher for the named strategy. A threshold of zero or
// less selects the strategy default.
func NewMatcher(strategy string, threshold float64) (*Matcher, error) {
	s, err := NewStrategy(strategy)
	if err != nil {
		return nil, err
	}
	if threshold <= 0 {
		threshold = s.DefaultThreshold()
	}
	if threshold >= 1 {
		return nil, fmt.Errorf("threshold must be below 1, got %v", threshold)
	}

	return &Matcher{strategy: s, threshold: threshold, logger: slog.Default()}, nil
}

// WithLogger sets the logger used for skipped images
func (m *Matcher) WithLogger(logger *slog.Logger) *Matcher {
	if logger != nil {
		m.logger = logger
	}
	return m
}

func (m *Matcher) Strategy() Strategy { return m.strategy }

func (m *Matcher) Threshold() float64 { return m.threshold }

// Similarity scores one pair and applies the threshold
func (m *Matcher) Similarity(candidate, reference *Image) Similarity {
	sim := m.strategy.Score(candidate, reference)
	sim.IsMatch = sim.Score > m.threshold
	return sim
}

// Matches compares every candidate with every reference and returns the
// matching pairs in candidate order, then reference order.
func (m *Matcher) Matches(ctx context.Context, candidates, references []*Image) ([]Match, error) {
	var matches []Match
	for _, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return matches, err
		}
		for _, reference := range references {
			sim := m.Similarity(candidate, reference)
			if !sim.IsMatch {
				continue
			}
			m.logger.Debug("pictogram match",
				"candidate", candidate.Name,
				"reference", reference.Name,
				"score", sim.Score)
			matches = append(matches, Match{Candidate: candidate.Name, Reference: reference.Name, Similarity: sim})
		}
	}
	return matches, nil
}

// Compare returns the matching pairs of candidates and references
func (m *Matcher) Compare(candidates, references []*Image) Results {
	matches, _ := m.Matches(context.Background(), candidates, references)
	return Index(matches)
}

// CompareFolders loads both folders and compares their images. Only regular
// files directly inside each folder are considered.
func (m *Matcher) CompareFolders(candidateDir, referenceDir string) (Results, error) {
	references, err := LoadFolder(referenceDir, m.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load reference pictograms: %w", err)
	}
	candidates, err := LoadFolder(candidateDir, m.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidate images: %w", err)
	}
	return m.Compare(candidates, references), nil
}

// Index groups matches by candidate then reference
func Index(matches []Match) Results {
	results := make(Results)
	for _, match := range matches {
		refs, ok := results[match.Candidate]
		if !ok {
			refs = make(map[string]Similarity)
			results[match.Candidate] = refs
		}
		refs[match.Reference] = match.Similarity
	}
	return results
}

// References returns the sorted distinct reference names matched by any
// candidate
func (r Results) References() []string {
	seen := make(map[string]bool)
	var names []string
	for _, refs := range r {
		for name := range refs {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names
}
