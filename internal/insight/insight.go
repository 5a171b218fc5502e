// Package insight turns a dataset summary into a coaching card: which
// question topic reps most often leave undiscussed.
package insight

import (
	"fmt"

	"visit-insights-go/internal/dataset"
	"visit-insights-go/internal/slots"
)

type Card struct {
	Insight string `json:"insight"`
	Action  string `json:"action"`
	Impact  string `json:"impact"`
}

const naRateThreshold = 0.5

// Generate picks the slot with the highest NA rate. Below the threshold, or
// with no data, it returns a monitoring card instead.
func Generate(s dataset.Summary) Card {
	worst := ""
	highest := 0.0
	for _, key := range slots.Keys() {
		if v := s.NARateBySlot[key]; v > highest {
			highest = v
			worst = key
		}
	}
	if s.TotalVisits > 0 && worst != "" && highest >= naRateThreshold {
		return Card{
			Insight: fmt.Sprintf("%.0f%% 的接待没有覆盖「%s」", highest*100, templateFor(worst)),
			Action:  fmt.Sprintf("在接待培训中强调追问该话题（字段 %s）", worst),
			Impact:  "提高记录完整度，减少 NA 占比",
		}
	}
	return Card{
		Insight: "暂无明显的遗漏话题模式",
		Action:  "继续积累接待记录",
		Impact:  "低",
	}
}

func templateFor(key string) string {
	for _, s := range slots.All() {
		if s.Key == key {
			return s.Template
		}
	}
	return key
}
