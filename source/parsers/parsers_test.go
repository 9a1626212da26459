package parsers

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault_Extensions(t *testing.T) {
	r := Default(nil)
	assert.Equal(t, []string{".doc", ".docx", ".htm", ".html", ".markdown", ".md", ".pdf", ".txt"}, r.Extensions())
}

func TestText_Parse(t *testing.T) {
	path := writeFile(t, "a.txt", "\uFEFFhello\nworld\n")

	parsed, err := NewText().Parse(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "hello\nworld\n", parsed.Text)
}

func TestText_InvalidUTF8(t *testing.T) {
	path := writeFile(t, "bad.txt", "ok \xff\xfe")

	_, err := NewText().Parse(context.Background(), path)
	assert.ErrorIs(t, err, ErrInvalidEncoding)
}

func TestText_MissingFile(t *testing.T) {
	_, err := NewText().Parse(context.Background(), filepath.Join(t.TempDir(), "nope.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMarkdown_Parse(t *testing.T) {
	content := "# Guide Title\n\nSome **bold** and _italic_ text with a [link](http://x.y).\n\n" +
		"![diagram](img.png)\n\n> quoted line\n\n```go\nfmt.Println(1)\n```\n\n## Section\n\nUse `go test`.\n"
	path := writeFile(t, "guide.md", content)

	parsed, err := NewMarkdown().Parse(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "Guide Title", parsed.Metadata[MetaTitle])

	text := parsed.Text
	assert.Contains(t, text, "Guide Title")
	assert.Contains(t, text, "Some bold and italic text with a link.")
	assert.Contains(t, text, "diagram")
	assert.Contains(t, text, "quoted line")
	assert.Contains(t, text, "fmt.Println(1)")
	assert.Contains(t, text, "Section")
	assert.Contains(t, text, "Use go test.")
	assert.NotContains(t, text, "http://x.y")
	assert.NotContains(t, text, "```")
	assert.NotContains(t, text, "**")
}

func TestHTML_Parse(t *testing.T) {
	content := `<html><head><title> My Page </title><style>body{color:red}</style></head>
<body>
  <h1>Heading</h1>
  <script>var x = 1;</script>
  <p>First paragraph.</p>


  <p>Second paragraph.</p>
</body></html>`
	path := writeFile(t, "page.html", content)

	parsed, err := NewHTML().Parse(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "My Page", parsed.Metadata[MetaTitle])
	assert.Contains(t, parsed.Text, "Heading")
	assert.Contains(t, parsed.Text, "First paragraph.")
	assert.Contains(t, parsed.Text, "Second paragraph.")
	assert.NotContains(t, parsed.Text, "var x")
	assert.NotContains(t, parsed.Text, "color:red")
	assert.NotContains(t, parsed.Text, "\n\n\n")
}

func TestCollapseBlankLines(t *testing.T) {
	assert.Equal(t, "a\n\nb\nc", collapseBlankLines("\n  a  \n\n\n   \nb\n c \n\n"))
}

func TestPDF_InvalidFile(t *testing.T) {
	path := writeFile(t, "broken.pdf", "this is not a pdf")

	_, err := NewPDF(testLogger()).Parse(context.Background(), path)
	assert.Error(t, err)
}

func TestWord_UnsupportedExtension(t *testing.T) {
	path := writeFile(t, "file.odt", "x")

	_, err := NewWord(testLogger()).Parse(context.Background(), path)
	assert.ErrorIs(t, err, ErrUnsupportedType)
}
