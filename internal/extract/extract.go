package extract

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ExtractionError reports a document that could not be parsed. Extraction
// is all-or-nothing: no partial text accompanies the error.
type ExtractionError struct {
	Err error
}

func (e *ExtractionError) Error() string {
	return "extract document text: " + e.Err.Error()
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// PDFExtractor pulls plain text out of an uploaded PDF, page by page, in
// page order. The parsing library is treated as a black box that yields raw
// text per page.
type PDFExtractor struct {
	log *slog.Logger
}

func NewPDFExtractor(log *slog.Logger) *PDFExtractor {
	return &PDFExtractor{log: log}
}

// Extract concatenates the text of every page. Any parser fault, including
// panics the library throws on corrupt files, yields an ExtractionError.
func (e *PDFExtractor) Extract(r io.ReaderAt, size int64) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			text = ""
			err = &ExtractionError{Err: fmt.Errorf("parser panic: %v", rec)}
		}
	}()

	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return "", &ExtractionError{Err: err}
	}

	var builder strings.Builder

	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", &ExtractionError{Err: fmt.Errorf("page %d: %w", pageNum, err)}
		}

		builder.WriteString(pageText)
	}

	e.log.Info("Document text extracted",
		"pages", reader.NumPage(),
		"chars", builder.Len())

	return builder.String(), nil
}
