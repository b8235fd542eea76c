package pdf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch_FindPDFs(t *testing.T) {
	root := t.TempDir()

	testFiles := map[string][]byte{
		"b_second.pdf":           buildPDF([]string{"x"}),
		"a_first.pdf":            buildPDF([]string{"x"}),
		"upper/C_UPPER.PDF":      buildPDF([]string{"x"}),
		"nested/deep/d_deep.pdf": buildPDF([]string{"x"}),
		"X_test.pdf":             {}, // empty files are listed and fail at scan time
		"notes.txt":              []byte("not a pdf"),
		"archive.pdf.bak":        []byte("backup"),
	}
	for name, content := range testFiles {
		writeFile(t, filepath.Join(root, name), content)
	}

	files, err := NewSearch(discardLogger()).FindPDFs(root)
	require.NoError(t, err)

	want := []string{
		filepath.Join(root, "X_test.pdf"),
		filepath.Join(root, "a_first.pdf"),
		filepath.Join(root, "b_second.pdf"),
		filepath.Join(root, "nested", "deep", "d_deep.pdf"),
		filepath.Join(root, "upper", "C_UPPER.PDF"),
	}
	assert.Equal(t, want, Paths(files))
	assert.Equal(t, int64(0), files[0].Size)
	assert.Equal(t, "X_test.pdf", files[0].Name)
}

func TestSearch_FindPDFsIsDeterministic(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"z.pdf", "m/k.pdf", "a.pdf", "m/b.pdf"} {
		writeFile(t, filepath.Join(root, name), buildPDF([]string{"x"}))
	}

	search := NewSearch(discardLogger())
	first, err := search.FindPDFs(root)
	require.NoError(t, err)
	second, err := search.FindPDFs(root)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSearch_FindPDFsFollowsFileSymlinks(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(t.TempDir(), "shared.pdf")
	content := buildPDF([]string{"H225"})
	writeFile(t, target, content)
	writeFile(t, filepath.Join(root, "a_local.pdf"), content)

	if err := os.Symlink(target, filepath.Join(root, "b_linked.pdf")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}
	require.NoError(t, os.Symlink(filepath.Join(root, "absent.pdf"), filepath.Join(root, "c_broken.pdf")))

	files, err := NewSearch(discardLogger()).FindPDFs(root)
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(root, "a_local.pdf"),
		filepath.Join(root, "b_linked.pdf"),
	}, Paths(files))
	assert.Equal(t, int64(len(content)), files[1].Size)
}

func TestSearch_FindPDFsEmptyFolder(t *testing.T) {
	files, err := NewSearch(nil).FindPDFs(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestSearch_FindPDFsInvalidRoot(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "file.pdf")
	writeFile(t, file, buildPDF([]string{"x"}))

	tests := []struct {
		name string
		root string
	}{
		{name: "empty path", root: ""},
		{name: "missing folder", root: filepath.Join(root, "absent")},
		{name: "file instead of folder", root: file},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSearch(discardLogger()).FindPDFs(tt.root)
			assert.Error(t, err)
		})
	}
}

func TestRelativeDir(t *testing.T) {
	root := filepath.Join("data", "sheets")

	tests := []struct {
		name string
		path string
		want string
	}{
		{name: "direct child", path: filepath.Join(root, "H225_a.pdf"), want: "H225_a_pdf"},
		{name: "nested", path: filepath.Join(root, "sub", "b.PDF"), want: filepath.Join("sub", "b_PDF")},
		{name: "outside root", path: filepath.Join("other", "c.pdf"), want: "c_pdf"},
		{name: "no extension", path: filepath.Join(root, "d"), want: "d"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RelativeDir(root, tt.path))
		})
	}
}

func TestRelativeDir_CaseVariantsDoNotCollide(t *testing.T) {
	root := filepath.Join("data", "sheets")
	lower := RelativeDir(root, filepath.Join(root, "a.pdf"))
	upper := RelativeDir(root, filepath.Join(root, "a.PDF"))
	assert.NotEqual(t, lower, upper)
	assert.NotEqual(t, lower, RelativeDir(root, filepath.Join(root, "a_pdf.pdf")))
}
