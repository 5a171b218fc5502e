package dataset

import (
	"visit-insights-go/internal/logger"
	"visit-insights-go/internal/slots"
	"visit-insights-go/internal/types"
)

// Summary is a compact view of the master sheet used by the /summary
// endpoint and the insight card generator.
type Summary struct {
	TotalVisits  int                `json:"total_visits"`
	ByIntention  map[string]int     `json:"by_intention"`
	ByRep        map[string]int     `json:"by_rep"`
	NARateBySlot map[string]float64 `json:"na_rate_by_slot"`
	RecentFiles  []string           `json:"recent_files"`
}

const recentFileLimit = 6

// Summarize loads the dataset and computes per-intention and per-rep
// counts plus the NA rate of every slot.
func Summarize(path string) (Summary, error) {
	log := logger.New().WithComponent("dataset.summary").WithField("path", path)

	records, err := Load(path)
	if err != nil {
		log.WithError(err).Error("summary load failed")
		return Summary{}, err
	}

	s := Summary{
		TotalVisits:  len(records),
		ByIntention:  map[string]int{},
		ByRep:        map[string]int{},
		NARateBySlot: map[string]float64{},
	}
	naCount := map[string]int{}
	for _, rec := range records {
		s.ByIntention[string(rec.Intention)]++
		s.ByRep[rec.SalesRepCode]++
		for _, key := range slots.Keys() {
			if rec.Answers[key] == types.AnswerNA {
				naCount[key]++
			}
		}
	}
	for _, key := range slots.Keys() {
		if len(records) == 0 {
			s.NARateBySlot[key] = 0
			continue
		}
		s.NARateBySlot[key] = float64(naCount[key]) / float64(len(records))
	}
	// most recent visits last in insertion order
	start := len(records) - recentFileLimit
	if start < 0 {
		start = 0
	}
	for _, rec := range records[start:] {
		s.RecentFiles = append(s.RecentFiles, rec.RawFilename)
	}

	log.WithField("total_visits", s.TotalVisits).Info("dataset summarized")
	return s, nil
}
