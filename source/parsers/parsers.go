package parsers

import (
	"log/slog"

	"github.com/poiesic/vectorize/source"
)

// Default returns a registry with every built-in parser registered.
func Default(logger *slog.Logger) *source.Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := source.NewRegistry()
	r.Register(NewPDF(logger), ".pdf")
	r.Register(NewWord(logger), ".docx", ".doc")
	r.Register(NewHTML(), ".html", ".htm")
	r.Register(NewMarkdown(), ".md", ".markdown")
	r.Register(NewText(), ".txt")
	return r
}
