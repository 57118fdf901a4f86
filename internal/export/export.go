// Package export writes scan results to document formats.
package export

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gubarz/cmtscan/internal/scan"
)

// Format is a supported export format
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
)

// Formats lists the supported export formats
var Formats = []Format{FormatPDF, FormatXLSX}

var (
	// ErrUnknownFormat is returned for an unsupported export format
	ErrUnknownFormat = errors.New("unknown export format")
	// ErrOutputRequired is returned when an export has no output path
	ErrOutputRequired = errors.New("output path is required for export")
)

// Title heads every exported document
const Title = "Project Comments Overview"

// Options controls the exported columns
type Options struct {
	ShowContext bool
}

// ParseFormat validates a format name
func ParseFormat(name string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q (supported: pdf, xlsx)", ErrUnknownFormat, name)
}

// Write exports annotations to path in the given format. Rows are sorted by
// marker token.
func Write(format Format, path string, annotations []scan.Annotation, opts Options) error {
	if path == "" {
		return ErrOutputRequired
	}
	rows := scan.SortForDisplay(annotations)

	var err error
	switch format {
	case FormatPDF:
		err = writePDF(path, rows, opts)
	case FormatXLSX:
		err = writeXLSX(path, rows, opts)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return fmt.Errorf("export %s: %w", format, err)
	}
	return nil
}

// line formats a 1-based line number
func line(a scan.Annotation) string {
	return strconv.Itoa(a.Line)
}
