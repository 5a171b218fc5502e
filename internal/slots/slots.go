// Package slots defines the fixed question schema extracted from every
// visit transcript. The list is static and consumed generically by the
// extractor, the assembler, and the dataset store; adding a question means
// editing this table only.
package slots

import (
	"strings"

	"visit-insights-go/internal/types"
)

var all = []types.QuestionSlot{
	{ID: 1, Key: "budget", Template: "客户的购房预算大约是多少？"},
	{ID: 2, Key: "purpose", Template: "客户购房的用途是什么（自住、改善、投资）？"},
	{ID: 3, Key: "family_structure", Template: "客户的家庭结构和常住人口情况如何？"},
	{ID: 4, Key: "current_residence", Template: "客户目前居住在哪个区域或小区？"},
	{ID: 5, Key: "distance", Template: "客户对项目距离和通勤有什么关注？"},
	{ID: 6, Key: "area_preference", Template: "客户意向的面积段是多少？"},
	{ID: 7, Key: "floor_preference", Template: "客户对楼层有什么偏好？"},
	{ID: 8, Key: "layout_preference", Template: "客户对户型有什么偏好？"},
	{ID: 9, Key: "timeline", Template: "客户计划什么时候购房？"},
	{ID: 10, Key: "payment_method", Template: "客户打算采用什么付款方式（一次性、按揭）？"},
	{ID: 11, Key: "competitors", Template: "客户对比过哪些竞品项目？"},
	{ID: 12, Key: "decision_maker", Template: "购房决策人是谁？"},
	{ID: 13, Key: "concerns", Template: "客户的主要顾虑和异议是什么？"},
	{ID: 14, Key: "interest_points", Template: "客户对项目的哪些方面表示认可或感兴趣？"},
	{ID: 15, Key: "visit_plan", Template: "是否约定了复访或后续跟进安排？"},
}

// All returns the fixed slot list in schema order. Callers must not mutate
// the returned slice.
func All() []types.QuestionSlot {
	return all
}

// Keys returns the slot keys in schema order.
func Keys() []string {
	keys := make([]string, len(all))
	for i, s := range all {
		keys[i] = s.Key
	}
	return keys
}

// Extractor is the port filled by a text-understanding capability. The raw
// output may be sparse or carry stray keys; Normalize enforces the contract.
type Extractor interface {
	Extract(transcript string) (map[string]string, error)
}

// Normalize maps raw extractor output onto the fixed schema: exactly one
// entry per slot key, each a trimmed non-empty value or the NA sentinel.
// Keys outside the schema are dropped.
func Normalize(raw map[string]string) map[string]string {
	out := make(map[string]string, len(all))
	for _, s := range all {
		v := strings.TrimSpace(raw[s.Key])
		if v == "" {
			v = types.AnswerNA
		}
		out[s.Key] = v
	}
	return out
}
