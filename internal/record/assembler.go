// Package record assembles the persisted CustomerRecord from upstream
// outputs. Pure merge, no extraction logic.
package record

import (
	"fmt"

	"visit-insights-go/internal/slots"
	"visit-insights-go/internal/types"
)

// IncompleteExtractionError means the slot mapping handed to the assembler
// is missing a schema key. This is an internal invariant violation, not a
// user input problem: slots.Normalize upstream should make it impossible.
type IncompleteExtractionError struct {
	Filename   string
	MissingKey string
}

func (e *IncompleteExtractionError) Error() string {
	return fmt.Sprintf("record for %q: slot mapping missing key %q", e.Filename, e.MissingKey)
}

// Assemble merges filename metadata, the classified intent, and the
// normalized slot answers into one immutable record. The raw filename is
// kept verbatim for traceability.
func Assemble(meta types.FilenameMetadata, intention types.Intent, answers map[string]string) (types.CustomerRecord, error) {
	copied := make(map[string]string, len(slots.All()))
	for _, key := range slots.Keys() {
		v, ok := answers[key]
		if !ok || v == "" {
			return types.CustomerRecord{}, &IncompleteExtractionError{
				Filename:   meta.RawFilename,
				MissingKey: key,
			}
		}
		copied[key] = v
	}
	return types.CustomerRecord{
		Date:         meta.VisitDate,
		CustomerID:   meta.CustomerID,
		CustomerName: meta.CustomerName,
		SalesRepCode: meta.SalesRepCode,
		RawFilename:  meta.RawFilename,
		Intention:    intention,
		Answers:      copied,
	}, nil
}
