package hazard

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestReadMapping_LastWriteWins(t *testing.T) {
	input := "term,category,flag\n" +
		"H225,Flammable,1\n" +
		"H225,FlammableLiquid,0\n"

	m, err := ReadMapping(strings.NewReader(input), ',', discardLogger())
	require.NoError(t, err)

	entry, ok := m.Get("H225")
	require.True(t, ok)
	assert.Equal(t, "FlammableLiquid", entry.Category)
	assert.False(t, entry.RequiresPictogram)
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, []string{"H225"}, m.Order)
}

func TestReadMapping_TrimsFieldsAndParsesFlag(t *testing.T) {
	input := "term,category,flag\n" +
		"  H300 , Toxic ,  1 \n" +
		"H315,Irritant,yes\n" +
		"H400,Environment, 0\n"

	m, err := ReadMapping(strings.NewReader(input), ',', discardLogger())
	require.NoError(t, err)
	require.Equal(t, 3, m.Len())

	tests := []struct {
		term     string
		category string
		picto    bool
	}{
		{term: "H300", category: "Toxic", picto: true},
		{term: "H315", category: "Irritant", picto: false},
		{term: "H400", category: "Environment", picto: false},
	}

	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			entry, ok := m.Get(tt.term)
			require.True(t, ok)
			assert.Equal(t, tt.category, entry.Category)
			assert.Equal(t, tt.picto, entry.RequiresPictogram)
		})
	}
}

func TestReadMapping_SkipsMalformedRows(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	input := "term,category,flag\n" +
		"H225,Flammable,1\n" +
		"H226,OnlyTwo\n" +
		"H228,Too,Many,Columns\n" +
		" ,Blank,1\n" +
		"H300,Toxic,1\n"

	m, err := ReadMapping(strings.NewReader(input), ',', logger)
	require.NoError(t, err)

	assert.Equal(t, 2, m.Len())
	assert.Equal(t, 3, m.Skipped)
	assert.Equal(t, []string{"H225", "H300"}, m.Order)
	assert.Contains(t, logs.String(), "wrong column count")
	assert.Contains(t, logs.String(), "empty term")
}

func TestReadMapping_HeaderOnly(t *testing.T) {
	m, err := ReadMapping(strings.NewReader("term,category,flag\n"), ',', discardLogger())
	require.NoError(t, err)
	assert.Equal(t, 0, m.Len())
}

func TestReadMapping_CustomDelimiter(t *testing.T) {
	input := "term;category;flag\nH225;Flammable;1\n"

	m, err := ReadMapping(strings.NewReader(input), ';', discardLogger())
	require.NoError(t, err)

	entry, ok := m.Get("H225")
	require.True(t, ok)
	assert.Equal(t, "Flammable", entry.Category)
}

func TestReadMapping_InvalidDelimiter(t *testing.T) {
	_, err := ReadMapping(strings.NewReader("a,b,c\n"), '"', discardLogger())
	assert.Error(t, err)
}

func TestMapping_Select(t *testing.T) {
	m := NewMapping()
	m.Set(MappingEntry{Term: "H225", Category: "Flammable", RequiresPictogram: true})
	m.Set(MappingEntry{Term: "H290", Category: "Corrosive", RequiresPictogram: false})
	m.Set(MappingEntry{Term: "H400", Category: "Environment", RequiresPictogram: true})

	terms := func(entries []MappingEntry) []string {
		out := make([]string, 0, len(entries))
		for _, e := range entries {
			out = append(out, e.Term)
		}
		return out
	}

	assert.Equal(t, []string{"H225", "H400"}, terms(m.Select(FilterPictogram)))
	assert.Equal(t, []string{"H290"}, terms(m.Select(FilterText)))
	assert.Equal(t, []string{"H225", "H290", "H400"}, terms(m.Select(FilterAll)))
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		in      string
		want    Filter
		wantErr bool
	}{
		{in: "pictogram", want: FilterPictogram},
		{in: " TEXT ", want: FilterText},
		{in: "all", want: FilterAll},
		{in: "none", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFilter(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadMapping(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clp_codes.csv")
	require.NoError(t, os.WriteFile(path, []byte("term,category,flag\nH225,Flammable,1\n"), 0o644))

	m, err := LoadMapping(path, ',', discardLogger())
	require.NoError(t, err)
	assert.Equal(t, 1, m.Len())

	_, err = LoadMapping(filepath.Join(dir, "missing.csv"), ',', discardLogger())
	assert.Error(t, err)
}
