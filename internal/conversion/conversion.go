// Package conversion is the document-to-text port. The pipeline never sees
// the original binary document; it receives plain transcript text from
// either a local transcript directory or the external conversion service.
package conversion

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Converter resolves the plain-text transcript for a source document name.
type Converter interface {
	Text(sourceName string) (string, error)
}

// ConversionError reports a failed or empty document-to-text conversion.
// The dataset is never touched when conversion fails.
type ConversionError struct {
	Filename string
	Reason   string
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("conversion of %q failed: %s", e.Filename, e.Reason)
}

// DirSource reads a sibling .txt transcript from a local directory. The
// transcript file shares the document's base name with a .txt extension.
type DirSource struct {
	Dir string
}

func (d DirSource) Text(sourceName string) (string, error) {
	base := strings.TrimSuffix(sourceName, filepath.Ext(sourceName))
	path := filepath.Join(d.Dir, base+".txt")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &ConversionError{Filename: sourceName, Reason: err.Error()}
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", &ConversionError{Filename: sourceName, Reason: "empty transcript"}
	}
	return text, nil
}

// Static returns a fixed transcript for every document. Used by tests to
// drive the pipeline deterministically.
type Static struct {
	Transcript string
}

func (s Static) Text(string) (string, error) {
	return s.Transcript, nil
}
