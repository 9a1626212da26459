package parsers

import (
	"context"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/poiesic/vectorize/source"
)

const MetaTitle = "title"

// HTML extracts visible body text, dropping scripts and styles.
type HTML struct{}

func NewHTML() *HTML {
	return &HTML{}
}

func (h *HTML) Parse(_ context.Context, path string) (*source.Parsed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return nil, err
	}
	doc.Find("script, style, noscript, template").Remove()

	metadata := map[string]string{}
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		metadata[MetaTitle] = title
	}

	body := doc.Find("body")
	text := body.Text()
	if body.Length() == 0 {
		text = doc.Text()
	}
	return &source.Parsed{Text: collapseBlankLines(text), Metadata: metadata}, nil
}

// collapseBlankLines trims every line and keeps at most one empty line
// between blocks of text.
func collapseBlankLines(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		out = append(out, line)
		blank = false
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
