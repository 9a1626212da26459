package parsers

import (
	"context"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/vectorize/source"
)

// Text reads UTF-8 text files as is.
type Text struct{}

func NewText() *Text {
	return &Text{}
}

func (t *Text) Parse(_ context.Context, path string) (*source.Parsed, error) {
	text, err := readUTF8(path)
	if err != nil {
		return nil, err
	}
	return &source.Parsed{Text: text}, nil
}

// Markdown strips formatting markup and records the first heading as title.
type Markdown struct{}

func NewMarkdown() *Markdown {
	return &Markdown{}
}

func (m *Markdown) Parse(_ context.Context, path string) (*source.Parsed, error) {
	text, err := readUTF8(path)
	if err != nil {
		return nil, err
	}
	metadata := map[string]string{}
	if title := markdownTitle(text); title != "" {
		metadata[MetaTitle] = title
	}
	return &source.Parsed{Text: stripMarkdown(text), Metadata: metadata}, nil
}

func readUTF8(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", ErrInvalidEncoding
	}
	return strings.TrimPrefix(string(data), "\uFEFF"), nil
}

func markdownTitle(content string) string {
	for line := range strings.Lines(content) {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "#"))
		}
	}
	return ""
}

var (
	mdFence      = regexp.MustCompile("(?m)^```[^\\n]*\\n?")
	mdInlineCode = regexp.MustCompile("`([^`]+)`")
	mdImage      = regexp.MustCompile(`!\[([^\]]*)\]\([^)]+\)`)
	mdLink       = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	mdHeading    = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	mdEmphasis   = regexp.MustCompile(`(\*\*|__)(.+?)(\*\*|__)`)
	mdItalic     = regexp.MustCompile(`(^|[^\w*])[*_]([^*_\n]+)[*_]`)
	mdQuote      = regexp.MustCompile(`(?m)^>\s?`)
	mdRule       = regexp.MustCompile(`(?m)^(-{3,}|\*{3,}|_{3,})\s*$`)
)

// stripMarkdown removes common markup, keeping code and link text.
func stripMarkdown(content string) string {
	content = mdFence.ReplaceAllString(content, "")
	content = mdInlineCode.ReplaceAllString(content, "$1")
	content = mdImage.ReplaceAllString(content, "$1")
	content = mdLink.ReplaceAllString(content, "$1")
	content = mdHeading.ReplaceAllString(content, "")
	content = mdEmphasis.ReplaceAllString(content, "$2")
	content = mdItalic.ReplaceAllString(content, "$1$2")
	content = mdQuote.ReplaceAllString(content, "")
	content = mdRule.ReplaceAllString(content, "")
	return content
}
