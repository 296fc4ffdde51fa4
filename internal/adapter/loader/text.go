package loader

import (
	"fmt"
	"os"
	"unicode/utf8"
)

type textConverter struct{}

func NewTextConverter() Converter { return textConverter{} }

func (textConverter) Name() string { return "text" }

func (textConverter) AcceptedExtensions() []string { return []string{".txt", ".md", ".markdown"} }

func (textConverter) AcceptedMimeTypes() []string { return []string{"text/plain", "text/markdown"} }

func (textConverter) Load(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("file is not valid UTF-8")
	}
	return string(data), nil
}
