// Package parsers provides the file format parsers used by source.Directory.
//
// Default returns a registry covering PDF, Word, HTML, Markdown and plain
// text files.
package parsers
