package report

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/poiesic/vectorize/core"
)

// Summary returns the one-line summary of outcome.
func Summary(outcome core.IngestionOutcome) string {
	if outcome.Success {
		return fmt.Sprintf("Ingestion complete: %d chunks from %d documents written to namespace %s",
			outcome.ChunkCount, outcome.DocumentCount, outcome.Namespace)
	}
	return fmt.Sprintf("An error occurred during data ingestion: %s", outcome.FailureKind)
}

// Remediation returns guidance for the failure in outcome, or "" for a
// successful run.
func Remediation(outcome core.IngestionOutcome) string {
	if outcome.Success {
		return ""
	}

	var ce *core.Error
	errors.As(outcome.Err, &ce)

	switch outcome.FailureKind {
	case core.KindRateLimit:
		return "The embedding or vector store provider is rate limiting requests. Try:\n" +
			"1. Increasing the delay between batches (--batch-delay)\n" +
			"2. Reducing the batch size (--batch-size)\n" +
			"3. Waiting a few minutes before retrying"
	case core.KindTimeout:
		return "A call did not finish within the call timeout. Try:\n" +
			"1. Increasing the call timeout (--call-timeout)\n" +
			"2. Reducing the batch size (--batch-size)\n" +
			"3. Waiting a few minutes before retrying"
	case core.KindFileSystem:
		return fmt.Sprintf("File system error: Could not find directory or file at '%s'", errorPath(ce))
	case core.KindParse:
		return fmt.Sprintf("Could not parse '%s'. Fix or remove the file, "+
			"or rerun with --skip-parse-errors to ingest the remaining files.", errorPath(ce))
	case core.KindVectorStore:
		return fmt.Sprintf("Vector store error: %s\n"+
			"Check the vector store connection settings and that the index accepts vectors of this dimension.",
			cause(ce, outcome))
	case core.KindCancelled:
		return fmt.Sprintf("Ingestion was cancelled. %d chunks were written to namespace %s; "+
			"rerunning is safe because records are overwritten in place.", outcome.ChunkCount, outcome.Namespace)
	}
	return fmt.Sprintf("Unexpected error: %s\nRerun with --verbose for full error details.", cause(ce, outcome))
}

// Detail renders every error in the chain of err, one per line, with its
// concrete type.
func Detail(err error) string {
	var b strings.Builder
	writeChain(&b, err, 0)
	return strings.TrimSuffix(b.String(), "\n")
}

func writeChain(b *strings.Builder, err error, depth int) {
	for err != nil {
		fmt.Fprintf(b, "%s%T: %v\n", strings.Repeat("  ", depth), err, err)
		if multi, ok := err.(interface{ Unwrap() []error }); ok {
			for _, e := range multi.Unwrap() {
				writeChain(b, e, depth+1)
			}
			return
		}
		err = errors.Unwrap(err)
		depth++
	}
}

// Write writes the report of outcome to w: the summary, skipped files and,
// for a failed run, remediation text. Verbose adds the full error chain.
func Write(w io.Writer, outcome core.IngestionOutcome, verbose bool) error {
	var b strings.Builder
	b.WriteString(Summary(outcome))
	b.WriteByte('\n')

	if len(outcome.Skipped) > 0 {
		fmt.Fprintf(&b, "Skipped %d unparseable files:\n", len(outcome.Skipped))
		for _, path := range outcome.Skipped {
			fmt.Fprintf(&b, "  %s\n", path)
		}
	}

	if !outcome.Success {
		b.WriteString(Remediation(outcome))
		b.WriteByte('\n')
		if verbose && outcome.Err != nil {
			b.WriteString("Full error details:\n")
			b.WriteString(Detail(outcome.Err))
			b.WriteByte('\n')
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func errorPath(ce *core.Error) string {
	if ce == nil || ce.Path == "" {
		return "unknown path"
	}
	return ce.Path
}

func cause(ce *core.Error, outcome core.IngestionOutcome) string {
	switch {
	case ce != nil && ce.Err != nil:
		return ce.Err.Error()
	case outcome.Message != "":
		return outcome.Message
	}
	return "unknown error"
}
