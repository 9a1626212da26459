package source

import (
	"context"
	"errors"
	"io/fs"
	"iter"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/poiesic/vectorize/core"
)

var errStopWalk = errors.New("stop walk")

// Directory yields the parseable documents under a root directory.
type Directory struct {
	root            string
	registry        *Registry
	skipParseErrors bool
	callTimeout     time.Duration
	logger          *slog.Logger
	skipped         []string
}

// DirectoryOption configures a Directory.
type DirectoryOption func(*Directory) error

// WithSkipParseErrors makes a parse failure skip the file instead of aborting.
// Skipped files are logged and reported by Skipped.
func WithSkipParseErrors(skip bool) DirectoryOption {
	return func(d *Directory) error {
		d.skipParseErrors = skip
		return nil
	}
}

// WithParseTimeout bounds each parse call. Zero means no bound.
func WithParseTimeout(timeout time.Duration) DirectoryOption {
	return func(d *Directory) error {
		if timeout < 0 {
			timeout = 0
		}
		d.callTimeout = timeout
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) DirectoryOption {
	return func(d *Directory) error {
		if logger == nil {
			logger = slog.Default()
		}
		d.logger = logger
		return nil
	}
}

// NewDirectory creates a Directory rooted at root. The root is not checked
// until documents are requested.
func NewDirectory(root string, registry *Registry, opts ...DirectoryOption) (*Directory, error) {
	if root == "" {
		return nil, ErrRootRequired
	}
	if registry == nil {
		return nil, ErrRegistryRequired
	}

	d := &Directory{
		root:     root,
		registry: registry,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}
	d.logger = d.logger.With("component", "source", "root", root)
	return d, nil
}

// Root returns the configured root path.
func (d *Directory) Root() string {
	return d.root
}

// Skipped returns the files, relative to the root, skipped because they
// failed to parse during the most recent iteration.
func (d *Directory) Skipped() []string {
	return slices.Clone(d.skipped)
}

// Documents returns a lazy sequence of parsed documents. Iteration stops
// after the first error is yielded.
func (d *Directory) Documents(ctx context.Context) iter.Seq2[*core.RawDocument, error] {
	return func(yield func(*core.RawDocument, error) bool) {
		d.skipped = nil

		info, err := os.Stat(d.root)
		if err != nil {
			yield(nil, &core.Error{Kind: core.KindFileSystem, Op: "open root", Path: d.root, Err: err})
			return
		}
		if !info.IsDir() {
			yield(nil, &core.Error{Kind: core.KindFileSystem, Op: "open root", Path: d.root, Err: ErrNotDirectory})
			return
		}

		root, err := filepath.EvalSymlinks(d.root)
		if err != nil {
			yield(nil, &core.Error{Kind: core.KindFileSystem, Op: "open root", Path: d.root, Err: err})
			return
		}

		walkErr := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				return &core.Error{Kind: core.KindFileSystem, Op: "read", Path: path, Err: err}
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return core.NewError(core.KindCancelled, "load", ctxErr)
			}
			if path != root && strings.HasPrefix(entry.Name(), ".") {
				if entry.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if !entry.Type().IsRegular() {
				return nil
			}

			parser, ok := d.registry.Lookup(filepath.Ext(path))
			if !ok {
				d.logger.Debug("unsupported file ignored", "path", path)
				return nil
			}

			rel := relPath(root, path)
			doc, err := d.load(ctx, path, rel, parser)
			if err != nil {
				if d.skipParseErrors && core.KindOf(err) == core.KindParse {
					d.logger.Warn("skipping unparseable file", "path", rel, "error", err)
					d.skipped = append(d.skipped, rel)
					return nil
				}
				return err
			}
			if strings.TrimSpace(doc.Content) == "" {
				d.logger.Warn("skipping file with no text", "path", path)
				return nil
			}
			if !yield(doc, nil) {
				return errStopWalk
			}
			return nil
		})
		if walkErr != nil && !errors.Is(walkErr, errStopWalk) {
			yield(nil, walkErr)
		}
	}
}

func (d *Directory) load(ctx context.Context, path, rel string, parser Parser) (*core.RawDocument, error) {
	parsed, err := core.CallWithTimeout(ctx, d.callTimeout, "parse", func(ctx context.Context) (*Parsed, error) {
		return parser.Parse(ctx, path)
	})
	if err != nil {
		return nil, classifyParseError(filepath.Join(d.root, filepath.FromSlash(rel)), err)
	}
	if parsed == nil {
		parsed = &Parsed{}
	}

	metadata := make(map[string]string, len(parsed.Metadata)+3)
	maps.Copy(metadata, parsed.Metadata)
	metadata[core.MetaSource] = rel
	metadata[core.MetaFileName] = filepath.Base(path)
	metadata[core.MetaExtension] = strings.ToLower(filepath.Ext(path))

	d.logger.Debug("parsed file", "path", rel, "length", len(parsed.Text))
	return &core.RawDocument{
		Content:    parsed.Text,
		SourcePath: rel,
		Metadata:   metadata,
	}, nil
}

// relPath returns path relative to root with forward slashes.
func relPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	return filepath.ToSlash(rel)
}

// classifyParseError scopes a parser failure to its file. Timeouts and
// cancellation keep their kind; everything else is a parse error.
func classifyParseError(path string, err error) error {
	kind := core.KindParse
	switch k := core.KindOf(err); k {
	case core.KindTimeout, core.KindCancelled, core.KindFileSystem:
		kind = k
	}
	var ce *core.Error
	if errors.As(err, &ce) && ce.Err != nil {
		err = ce.Err
	}
	return &core.Error{Kind: kind, Op: "parse", Path: path, Err: err}
}
