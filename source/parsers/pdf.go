package parsers

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/poiesic/vectorize/source"
)

const MetaPDFNumPages = "pdf.numpages"

// PDF extracts the plain text of every page, separated by blank lines.
type PDF struct {
	logger *slog.Logger
}

func NewPDF(logger *slog.Logger) *PDF {
	return &PDF{logger: logger.With("component", "pdf-parser")}
}

func (p *PDF) Parse(ctx context.Context, path string) (*source.Parsed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF reader: %w", err)
	}

	totalPages := reader.NumPage()
	pages := make([]string, 0, totalPages)
	for pageIndex := 1; pageIndex <= totalPages; pageIndex++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := reader.Page(pageIndex)
		if page.V.IsNull() {
			p.logger.Warn("null page encountered", "path", path, "page", pageIndex)
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to extract text from page %d: %w", pageIndex, err)
		}
		pages = append(pages, text)
	}

	p.logger.Debug("extracted PDF text", "path", path, "pages", totalPages)
	return &source.Parsed{
		Text:     strings.Join(pages, "\n\n"),
		Metadata: map[string]string{MetaPDFNumPages: strconv.Itoa(totalPages)},
	}, nil
}
