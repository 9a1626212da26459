package parsers

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"code.sajari.com/docconv/v2"
	"github.com/poiesic/vectorize/source"
)

var wordMIMETypes = map[string]string{
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".doc":  "application/msword",
}

// Word extracts text from .docx and .doc files.
type Word struct {
	logger *slog.Logger
}

func NewWord(logger *slog.Logger) *Word {
	return &Word{logger: logger.With("component", "word-parser")}
}

func (w *Word) Parse(_ context.Context, path string) (*source.Parsed, error) {
	mimeType, ok := wordMIMETypes[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, filepath.Ext(path))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	result, err := docconv.Convert(f, mimeType, false)
	if err != nil {
		return nil, fmt.Errorf("failed to convert Word document: %w", err)
	}

	metadata := make(map[string]string, len(result.Meta))
	for k, v := range result.Meta {
		metadata["word."+k] = v
	}
	w.logger.Debug("extracted Word text", "path", path, "length", len(result.Body))
	return &source.Parsed{Text: result.Body, Metadata: metadata}, nil
}
