// Package filename decodes the fixed naming convention of visit-recording
// documents: <date>_<project>_营销_销售接待录音文本<id><name>_<rep>_<date>.
package filename

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"visit-insights-go/internal/types"
)

const (
	marketingSegment = "营销"
	recordingPrefix  = "销售接待录音文本"
)

// Extensions stripped before parsing. The source folder mixes original
// documents and exported transcripts.
var knownExtensions = []string{".docx", ".doc", ".txt", ".pdf"}

// default roster; overridable via SetRepCodes from config.
var repCodes = map[string]struct{}{
	"雁": {}, "梅": {}, "兰": {}, "竹": {}, "晨": {}, "悦": {},
}

// FormatError reports a filename that does not match the naming convention.
type FormatError struct {
	Filename string
	Reason   string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("filename %q: %s", e.Filename, e.Reason)
}

// SetRepCodes replaces the allowed sales-rep code set. Empty input keeps
// the current set.
func SetRepCodes(codes []string) {
	if len(codes) == 0 {
		return
	}
	next := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		c = strings.TrimSpace(c)
		if c != "" {
			next[c] = struct{}{}
		}
	}
	repCodes = next
}

// RepCodes returns the currently allowed sales-rep codes.
func RepCodes() []string {
	out := make([]string, 0, len(repCodes))
	for c := range repCodes {
		out = append(out, c)
	}
	return out
}

// Parse decodes a visit-recording filename into metadata. It is the only
// place date strings are normalized (YYYYMMDD -> YYYY-MM-DD).
func Parse(name string) (types.FilenameMetadata, error) {
	base := name
	for _, ext := range knownExtensions {
		if strings.HasSuffix(strings.ToLower(base), ext) {
			base = base[:len(base)-len(ext)]
			break
		}
	}

	parts := strings.Split(base, "_")
	if len(parts) != 6 {
		return types.FilenameMetadata{}, &FormatError{Filename: name,
			Reason: fmt.Sprintf("expected 6 underscore-separated fields, got %d", len(parts))}
	}

	visitDate, err := parseDate(parts[0])
	if err != nil {
		return types.FilenameMetadata{}, &FormatError{Filename: name, Reason: "visit date: " + err.Error()}
	}
	projectTag := parts[1]
	if projectTag == "" {
		return types.FilenameMetadata{}, &FormatError{Filename: name, Reason: "empty project tag"}
	}
	if parts[2] != marketingSegment {
		return types.FilenameMetadata{}, &FormatError{Filename: name,
			Reason: fmt.Sprintf("third field must be %q, got %q", marketingSegment, parts[2])}
	}

	body := parts[3]
	if !strings.HasPrefix(body, recordingPrefix) {
		return types.FilenameMetadata{}, &FormatError{Filename: name,
			Reason: fmt.Sprintf("fourth field must start with %q", recordingPrefix)}
	}
	rest := strings.TrimPrefix(body, recordingPrefix)
	if len(rest) < 5 {
		return types.FilenameMetadata{}, &FormatError{Filename: name,
			Reason: "fourth field missing customer id or name"}
	}
	customerID := rest[:4]
	if !allDigits(customerID) {
		return types.FilenameMetadata{}, &FormatError{Filename: name,
			Reason: fmt.Sprintf("customer id %q is not 4 digits", customerID)}
	}
	customerName := rest[4:]

	repCode := parts[4]
	if utf8.RuneCountInString(repCode) != 1 {
		return types.FilenameMetadata{}, &FormatError{Filename: name,
			Reason: fmt.Sprintf("rep code %q must be a single character", repCode)}
	}
	if _, ok := repCodes[repCode]; !ok {
		return types.FilenameMetadata{}, &FormatError{Filename: name,
			Reason: fmt.Sprintf("rep code %q not in allowed set", repCode)}
	}

	trailingDate, err := parseDate(parts[5])
	if err != nil {
		return types.FilenameMetadata{}, &FormatError{Filename: name, Reason: "trailing date: " + err.Error()}
	}

	return types.FilenameMetadata{
		VisitDate:    visitDate,
		ProjectTag:   projectTag,
		CustomerID:   customerID,
		CustomerName: customerName,
		SalesRepCode: repCode,
		TrailingDate: trailingDate,
		RawFilename:  name,
	}, nil
}

// Build constructs a canonical filename (without extension) from metadata.
// Parse(Build(m)) reproduces m.
func Build(m types.FilenameMetadata) string {
	return fmt.Sprintf("%s_%s_%s_%s%s%s_%s_%s",
		compactDate(m.VisitDate), m.ProjectTag, marketingSegment,
		recordingPrefix, m.CustomerID, m.CustomerName,
		m.SalesRepCode, compactDate(m.TrailingDate))
}

func parseDate(s string) (string, error) {
	if len(s) != 8 || !allDigits(s) {
		return "", fmt.Errorf("%q is not an 8-digit date", s)
	}
	t, err := time.Parse("20060102", s)
	if err != nil {
		return "", fmt.Errorf("%q is not a valid calendar date", s)
	}
	return t.Format("2006-01-02"), nil
}

func compactDate(s string) string {
	return strings.ReplaceAll(s, "-", "")
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}
