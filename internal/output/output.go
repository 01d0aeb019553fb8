package output

import (
	"fmt"
	"io"
	"os"

	"github.com/dshills/patchguard/internal/review"
)

// Formats lists the report formats GetWriter accepts.
var Formats = []string{"text", "json", "markdown", "sarif"}

// Writer writes a report in a specific format.
type Writer interface {
	Write(w io.Writer, report *review.Report) error
}

// GetWriter returns a writer for the specified format.
func GetWriter(format string) (Writer, error) {
	switch format {
	case "text", "":
		return &TextWriter{}, nil
	case "json":
		return &JSONWriter{}, nil
	case "markdown", "md":
		return &MarkdownWriter{}, nil
	case "sarif":
		return &SARIFWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// WriteReport writes the report to the specified output (file path or stdout).
func WriteReport(report *review.Report, format, outPath string) error {
	writer, err := GetWriter(format)
	if err != nil {
		return err
	}
	return withOutput(outPath, func(w io.Writer) error {
		return writer.Write(w, report)
	})
}

// withOutput calls fn with stdout, or with a created file when outPath is
// set. A failed close is reported when fn succeeded.
func withOutput(outPath string, fn func(io.Writer) error) (err error) {
	if outPath == "" {
		return fn(os.Stdout)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing output file: %w", cerr)
		}
	}()
	return fn(f)
}
