package loader

import (
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

type pdfConverter struct{}

func NewPdfConverter() Converter { return pdfConverter{} }

func (pdfConverter) Name() string { return "pdf" }

func (pdfConverter) AcceptedExtensions() []string { return []string{".pdf"} }

func (pdfConverter) AcceptedMimeTypes() []string { return []string{"application/pdf"} }

// Load joins the plain text of every readable page with blank lines.
func (pdfConverter) Load(path string) (text string, err error) {
	// the pdf package panics on some malformed cross-reference tables
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("failed to parse PDF: %v", r)
		}
	}()

	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", err
	}

	reader, err := pdf.NewReader(f, info.Size())
	if err != nil {
		return "", fmt.Errorf("failed to parse PDF: %w", err)
	}

	var content strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, pageErr := page.GetPlainText(nil)
		if pageErr != nil {
			// skip unreadable pages
			continue
		}
		if content.Len() > 0 {
			content.WriteString("\n\n")
		}
		content.WriteString(strings.TrimSpace(pageText))
	}
	return content.String(), nil
}
