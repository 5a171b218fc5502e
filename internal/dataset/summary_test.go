package dataset

import (
	"path/filepath"
	"testing"

	"visit-insights-go/internal/slots"
	"visit-insights-go/internal/types"
)

func TestSummarizeEmpty(t *testing.T) {
	s, err := Summarize(filepath.Join(t.TempDir(), "absent.xlsx"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.TotalVisits != 0 {
		t.Fatalf("total = %d", s.TotalVisits)
	}
	if len(s.NARateBySlot) != 15 {
		t.Fatalf("expected a rate for every slot, got %d", len(s.NARateBySlot))
	}
}

func TestSummarize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "master.xlsx")

	recs := []types.CustomerRecord{makeRecord(0), makeRecord(1)}
	recs[1].Intention = types.IntentUnclear
	recs[1].SalesRepCode = "梅"
	recs[1].Answers = slots.Normalize(map[string]string{"budget": "500万"})
	for _, r := range recs {
		if _, err := Append(path, r); err != nil {
			t.Fatal(err)
		}
	}

	s, err := Summarize(path)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if s.TotalVisits != 2 {
		t.Fatalf("total = %d", s.TotalVisits)
	}
	if s.ByIntention["low_rise"] != 1 || s.ByIntention["unclear"] != 1 {
		t.Fatalf("by intention: %v", s.ByIntention)
	}
	if s.ByRep["雁"] != 1 || s.ByRep["梅"] != 1 {
		t.Fatalf("by rep: %v", s.ByRep)
	}
	// budget answered in both rows, distance in one, timeline in none
	if s.NARateBySlot["budget"] != 0 {
		t.Fatalf("budget NA rate = %v", s.NARateBySlot["budget"])
	}
	if s.NARateBySlot["distance"] != 0.5 {
		t.Fatalf("distance NA rate = %v", s.NARateBySlot["distance"])
	}
	if s.NARateBySlot["timeline"] != 1 {
		t.Fatalf("timeline NA rate = %v", s.NARateBySlot["timeline"])
	}
	if len(s.RecentFiles) != 2 {
		t.Fatalf("recent files: %v", s.RecentFiles)
	}
}
