// Package pipeline runs one visit document end to end: filename parse,
// intent gate, slot extraction, record assembly, dataset append. One input
// file is processed to completion before the dataset is touched; there is
// no concurrency and no retry at this level.
package pipeline

import (
	"fmt"
	"strings"
	"time"

	"visit-insights-go/internal/conversion"
	"visit-insights-go/internal/dataset"
	"visit-insights-go/internal/filename"
	"visit-insights-go/internal/intent"
	"visit-insights-go/internal/logger"
	"visit-insights-go/internal/record"
	"visit-insights-go/internal/slots"
	"visit-insights-go/internal/types"
)

// SkipNotice is the explicit skip notification returned in place of
// extraction results when the customer's interest is stacked-villa.
const SkipNotice = "skipped — stacked-villa intent"

// Runner holds the pipeline's ports. Substituting Static/mock
// implementations makes the whole flow testable offline.
type Runner struct {
	Converter   conversion.Converter
	Classifier  intent.Classifier
	Extractor   slots.Extractor
	DatasetPath string
}

// ProcessFile runs the pipeline for one source document name. The returned
// RunResult is populated on both the success and the skip path; on error
// it carries the failing stage in Error.
func (r Runner) ProcessFile(name string) (types.RunResult, error) {
	log := logger.New().WithComponent("pipeline").WithField("file", name)
	start := time.Now()
	res := types.RunResult{Filename: name, DatasetPath: r.DatasetPath}
	done := func() {
		res.DurationMs = time.Since(start).Milliseconds()
	}

	meta, err := filename.Parse(name)
	if err != nil {
		res.Error = fmt.Sprintf("filename parse: %v", err)
		done()
		return res, err
	}
	if meta.VisitDate != meta.TrailingDate {
		// same calendar date encoded twice; a mismatch is worth flagging
		// but does not stop processing
		log.WithField("visit_date", meta.VisitDate).
			WithField("trailing_date", meta.TrailingDate).
			Warn("filename dates disagree")
	}

	transcript, err := r.Converter.Text(name)
	if err != nil {
		res.Error = fmt.Sprintf("conversion: %v", err)
		done()
		return res, err
	}

	it, err := r.Classifier.Classify(transcript)
	if err != nil {
		res.Error = fmt.Sprintf("intent classification: %v", err)
		done()
		return res, err
	}
	res.Intention = it

	if it.ShouldSkip() {
		log.Info("stacked-villa intent, skipping extraction")
		res.Skipped = true
		res.SkipReason = SkipNotice
		total, err := dataset.Count(r.DatasetPath)
		if err != nil {
			res.Error = fmt.Sprintf("dataset count: %v", err)
			done()
			return res, err
		}
		res.TotalRows = total
		done()
		return res, nil
	}

	raw, err := r.Extractor.Extract(transcript)
	if err != nil {
		res.Error = fmt.Sprintf("slot extraction: %v", err)
		done()
		return res, err
	}
	answers := slots.Normalize(raw)

	rec, err := record.Assemble(meta, it, answers)
	if err != nil {
		res.Error = fmt.Sprintf("record assembly: %v", err)
		done()
		return res, err
	}

	total, err := dataset.Append(r.DatasetPath, rec)
	if err != nil {
		res.Error = fmt.Sprintf("dataset append: %v", err)
		done()
		return res, err
	}
	res.Record = &rec
	res.TotalRows = total
	done()

	log.WithField("intention", string(it)).
		WithField("total_rows", total).
		WithField("duration_ms", res.DurationMs).
		Info("visit processed")
	return res, nil
}

// RenderSummary formats the per-run human-readable summary: intention, key
// extracted values (when not skipped), destination, and row count.
func RenderSummary(res types.RunResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "file: %s\n", res.Filename)
	if res.Error != "" {
		fmt.Fprintf(&b, "error: %s\n", res.Error)
		return b.String()
	}
	fmt.Fprintf(&b, "intention: %s\n", res.Intention)
	if res.Skipped {
		fmt.Fprintf(&b, "%s\n", res.SkipReason)
	} else if res.Record != nil {
		for _, s := range slots.All() {
			if v := res.Record.Answers[s.Key]; v != types.AnswerNA {
				fmt.Fprintf(&b, "  %s: %s\n", s.Key, v)
			}
		}
		fmt.Fprintf(&b, "dataset: %s\n", res.DatasetPath)
	}
	fmt.Fprintf(&b, "total rows: %d\n", res.TotalRows)
	return b.String()
}
