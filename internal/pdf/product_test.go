package pdf

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractProductData(t *testing.T) {
	labels := DefaultProductLabels()

	tests := []struct {
		name string
		text string
		want ProductData
	}{
		{
			name: "french sheet",
			text: "FICHE DE DONNEES DE SECURITE\nNom du produit : Décapant Rapide\nCode du produit : DR-200\nUFI: N1K4-Q0P2-300C-7Y8K\n",
			want: ProductData{Name: "Décapant Rapide", Code: "DR-200", UFI: "N1K4-Q0P2-300C-7Y8K"},
		},
		{
			name: "labels ignore case",
			text: "NOM DU PRODUIT: Acide B12\nufi : ABCD",
			want: ProductData{Name: "Acide B12", UFI: "ABCD"},
		},
		{
			name: "value without colon",
			text: "Code du produit 4471\n",
			want: ProductData{Code: "4471"},
		},
		{
			name: "value keeps later colons",
			text: "Nom du produit : Mix: 50/50",
			want: ProductData{Name: "Mix: 50/50"},
		},
		{
			name: "first occurrence wins",
			text: "Nom du produit : First\nNom du produit : Second",
			want: ProductData{Name: "First"},
		},
		{name: "no labels", text: "H225 Highly flammable liquid and vapour", want: ProductData{}},
		{name: "empty text", text: "", want: ProductData{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractProductData(tt.text, labels))
		})
	}
}

func TestExtractProductData_CustomLabels(t *testing.T) {
	text := "Product name: Thinner T4\nProduct code: T4-01\nUFI: XYZ"

	got := ExtractProductData(text, ProductLabels{Name: "Product name", Code: "Product code"})
	assert.Equal(t, ProductData{Name: "Thinner T4", Code: "T4-01"}, got)
}

func TestScanner_ProductData(t *testing.T) {
	opener := &fakeOpener{docs: map[string]*fakeDocument{
		"P9_solvent.pdf": {pages: []string{"Nom du produit : Solvant P9\nH225", "UFI: page two"}},
		"B12_acid.pdf":   {pages: []string{"H314", "Nom du produit : Acide"}},
	}}
	labels := DefaultProductLabels()
	terms := VocabularyTerms([]string{"H225", "H314"})

	scanner := NewScanner(opener, DefaultPages(), discardLogger()).WithProductLabels(&labels)
	record := scanner.Scan(context.Background(), "P9_solvent.pdf", terms)
	assert.Equal(t, "Solvant P9", record.ProductName)
	assert.Empty(t, record.UFI)
	assert.Equal(t, []string{"H225"}, record.Labels)

	// the first page is read even when only later pages are scanned
	pages, err := ParsePages("1")
	assert.NoError(t, err)
	record = NewScanner(opener, pages, discardLogger()).WithProductLabels(&labels).
		Scan(context.Background(), "B12_acid.pdf", terms)
	assert.Empty(t, record.ProductName)
	assert.Empty(t, record.Labels)

	plain := NewScanner(opener, DefaultPages(), discardLogger()).Scan(context.Background(), "P9_solvent.pdf", terms)
	assert.Empty(t, plain.ProductName)
}

func TestScanner_ProductDataPageFailure(t *testing.T) {
	opener := &fakeOpener{docs: map[string]*fakeDocument{
		"A1.pdf": {pages: []string{"Nom du produit : A"}, fail: map[int]error{0: errors.New("broken page")}},
	}}
	labels := DefaultProductLabels()

	record := NewScanner(opener, DefaultPages(), discardLogger()).WithProductLabels(&labels).
		Scan(context.Background(), "A1.pdf", nil)
	assert.Empty(t, record.ProductName)
	assert.Empty(t, record.Error)
}
