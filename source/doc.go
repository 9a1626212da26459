// Package source loads documents from a directory tree.
//
// A Directory walks its root in lexical order and hands every file whose
// extension has a registered Parser to that parser, yielding one
// core.RawDocument per file through a lazy iterator. Files with unsupported
// extensions and hidden entries are ignored. Failures are classified:
// a missing or unreadable root is a KindFileSystem error, a file that fails
// to parse is a KindParse error scoped to that file.
package source
