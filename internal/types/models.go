package types

// AnswerNA is the sentinel stored for a question topic the customer never
// discussed. Every slot is always populated with either a real answer or
// this value, so the dataset schema stays structurally complete.
const AnswerNA = "NA"

// FilenameMetadata holds the fields decoded from a visit-recording filename.
// Derived once per input file; immutable after parsing.
type FilenameMetadata struct {
	VisitDate    string `json:"visit_date"` // YYYY-MM-DD
	ProjectTag   string `json:"project_tag"`
	CustomerID   string `json:"customer_id"` // 4 digits, kept as string
	CustomerName string `json:"customer_name"`
	SalesRepCode string `json:"sales_rep_code"`
	TrailingDate string `json:"trailing_date"` // YYYY-MM-DD, normally == VisitDate
	RawFilename  string `json:"raw_filename"`
}

// Intent is the closed set of customer-interest outcomes.
type Intent string

const (
	IntentLowRise      Intent = "low_rise"
	IntentStackedVilla Intent = "stacked_villa"
	IntentUnclear      Intent = "unclear"
)

// ShouldSkip reports whether this intent halts the pipeline. Only the
// stacked-villa branch skips; Unclear proceeds and lets the NA sentinel
// absorb whatever the transcript doesn't cover.
func (i Intent) ShouldSkip() bool {
	return i == IntentStackedVilla
}

// ParseIntent normalizes a free-form label into the closed set. Anything
// unrecognized collapses to Unclear rather than erroring.
func ParseIntent(s string) Intent {
	switch Intent(s) {
	case IntentLowRise, IntentStackedVilla, IntentUnclear:
		return Intent(s)
	}
	switch s {
	case "lowrise", "low-rise", "洋房":
		return IntentLowRise
	case "stackedvilla", "stacked-villa", "叠墅", "叠拼":
		return IntentStackedVilla
	}
	return IntentUnclear
}

// QuestionSlot defines one of the fixed question topics extracted from a
// transcript. The full list is static and process-wide (see internal/slots).
type QuestionSlot struct {
	ID       int    `json:"id"`  // ordinal 1..15
	Key      string `json:"key"` // stable column identifier
	Template string `json:"template"`
}

// CustomerRecord is the unit of persistence: one row in the master dataset
// per processed, non-skipped visit transcript. Immutable once assembled.
type CustomerRecord struct {
	Date         string            `json:"date"`
	CustomerID   string            `json:"customer_id"`
	CustomerName string            `json:"customer_name"`
	SalesRepCode string            `json:"sales_rep_code"`
	RawFilename  string            `json:"raw_filename"`
	Intention    Intent            `json:"intention"`
	Answers      map[string]string `json:"answers"` // slot key -> answer or AnswerNA
}

// RunResult is returned for every processed file, covering both the normal
// path and the stacked-villa skip path.
type RunResult struct {
	Filename    string          `json:"filename"`
	Skipped     bool            `json:"skipped"`
	SkipReason  string          `json:"skip_reason,omitempty"`
	Intention   Intent          `json:"intention"`
	Record      *CustomerRecord `json:"record,omitempty"`
	DatasetPath string          `json:"dataset_path,omitempty"`
	TotalRows   int             `json:"total_rows"`
	DurationMs  int64           `json:"duration_ms"`
	Error       string          `json:"error,omitempty"`
}
