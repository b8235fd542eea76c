package pdf

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Document is an open PDF whose text layer can be read page by page
type Document interface {
	// NumPages returns the page count
	NumPages() int
	// PageText returns the plain text of the zero-based page index
	PageText(index int) (string, error)
	Close() error
}

// Opener opens documents for text extraction
type Opener interface {
	Open(path string) (Document, error)
}

// Reader opens PDF files with the ledongthuc/pdf text layer parser. Parser
// panics are recovered and reported as *OpenError.
type Reader struct {
	validator *Validator
}

// NewReader creates a reader that rejects files above maxFileSize bytes
func NewReader(maxFileSize int64) *Reader {
	return &Reader{
		validator: NewValidator(maxFileSize),
	}
}

// Open validates and parses the document at path
func (r *Reader) Open(path string) (doc Document, err error) {
	if err := r.validator.ValidateFile(path); err != nil {
		return nil, &OpenError{Op: "validate", Path: path, Err: err}
	}

	var f *os.File
	defer func() {
		if v := recover(); v != nil {
			if f != nil {
				f.Close()
			}
			doc = nil
			err = &OpenError{Op: "open", Path: path, Err: recovered(v)}
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		if f != nil {
			f.Close()
		}
		return nil, &OpenError{Op: "open", Path: path, Err: err}
	}

	pages := reader.NumPage()
	if pages <= 0 {
		f.Close()
		return nil, &OpenError{Op: "open", Path: path, Err: fmt.Errorf("document has no pages")}
	}

	return &textDocument{path: path, file: f, reader: reader, pages: pages}, nil
}

type textDocument struct {
	path   string
	file   *os.File
	reader *pdf.Reader
	pages  int
}

func (d *textDocument) NumPages() int {
	return d.pages
}

func (d *textDocument) PageText(index int) (text string, err error) {
	if index < 0 || index >= d.pages {
		return "", &OpenError{Op: "page", Path: d.path, Err: fmt.Errorf("page index %d out of range [0, %d)", index, d.pages)}
	}

	defer func() {
		if v := recover(); v != nil {
			text = ""
			err = &OpenError{Op: "text", Path: d.path, Err: recovered(v)}
		}
	}()

	page := d.reader.Page(index + 1)
	if page.V.IsNull() {
		return "", nil
	}

	return layoutText(page.Content().Text), nil
}

func (d *textDocument) Close() error {
	return d.file.Close()
}

const (
	// lineShift is the baseline move, in font sizes, that starts a new line
	lineShift = 0.5
	// wordGap is the horizontal gap, in font sizes, that separates two words
	wordGap = 0.15
)

// layoutText joins positioned text runs in content order. A run on a new
// baseline starts a new line. A gap or a jump back on the same baseline
// becomes a space. Runs drawn edge to edge are joined as they are.
func layoutText(runs []pdf.Text) string {
	var b strings.Builder
	var prev pdf.Text
	started := false

	for _, t := range runs {
		if t.S == "" {
			continue
		}
		if started {
			size := math.Max(math.Max(prev.FontSize, t.FontSize), 1)
			gap := t.X - (prev.X + prev.W)
			switch {
			case math.Abs(t.Y-prev.Y) > size*lineShift:
				b.WriteByte('\n')
			case gap > size*wordGap || gap < -size:
				b.WriteByte(' ')
			}
		}
		b.WriteString(t.S)
		prev = t
		started = true
	}
	return b.String()
}
