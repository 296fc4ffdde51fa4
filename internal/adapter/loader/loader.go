// Package loader extracts plain text from uploaded files.
package loader

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"trivia-rag/internal/domain"

	"github.com/gabriel-vasile/mimetype"
)

// Converter turns one family of file formats into plain text.
type Converter interface {
	Name() string
	AcceptedExtensions() []string
	AcceptedMimeTypes() []string
	Load(path string) (string, error)
}

// Document is the text extracted from a file plus the detected MIME type.
type Document struct {
	Text     string
	MimeType string
	Loader   string
}

// Loader picks a converter by sniffed MIME type, falling back to the file extension.
type Loader struct {
	converters []Converter
}

// New registers the pdf and text converters.
func New() *Loader {
	l := &Loader{}
	l.Register(NewPdfConverter())
	l.Register(NewTextConverter())
	return l
}

func (l *Loader) Register(c Converter) {
	l.converters = append(l.converters, c)
}

// Load reads path. name is the client-supplied file name and is only used for
// its extension; it may be empty. Unsupported types are InvalidArgument.
func (l *Loader) Load(path, name string) (Document, error) {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return Document{}, domain.NewInternalError("failed to detect MIME type", err)
	}

	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		ext = strings.ToLower(filepath.Ext(path))
	}

	for _, c := range l.converters {
		if !accepts(mtype, ext, c) {
			continue
		}
		text, err := c.Load(path)
		if err != nil {
			return Document{}, domain.NewInvalidArgumentError(fmt.Sprintf("failed to read %s file: %v", c.Name(), err))
		}
		return Document{Text: text, MimeType: mtype.String(), Loader: c.Name()}, nil
	}

	return Document{}, domain.NewInvalidArgumentError(fmt.Sprintf("unsupported file type: %s", mtype.String()))
}

func accepts(mtype *mimetype.MIME, ext string, c Converter) bool {
	if slices.ContainsFunc(c.AcceptedMimeTypes(), mtype.Is) {
		return true
	}
	// Markdown sniffs as text/plain; only trust the extension for textual content.
	if ext != "" && slices.Contains(c.AcceptedExtensions(), ext) {
		return isTextual(mtype) || slices.Contains(c.AcceptedExtensions(), mtype.Extension())
	}
	return false
}

func isTextual(mtype *mimetype.MIME) bool {
	for m := mtype; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}
