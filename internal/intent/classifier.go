// Package intent assigns one of the closed set of customer-interest
// outcomes to a transcript. The stacked-villa outcome halts the pipeline;
// low-rise and unclear both proceed to slot extraction.
package intent

import (
	"strings"

	"visit-insights-go/internal/extractor"
	"visit-insights-go/internal/types"
)

// Classifier is the port the pipeline gates on.
type Classifier interface {
	Classify(transcript string) (types.Intent, error)
}

// stackedTokens and lowRiseTokens are the explicit product-category
// vocabulary observed in reception transcripts.
var (
	stackedTokens = []string{"叠墅", "叠拼", "上叠", "下叠", "中叠"}
	lowRiseTokens = []string{"洋房", "平层", "小高层"}
)

// Keyword classifies deterministically from product vocabulary. A clear,
// exclusive stacked-villa signal skips; a clear, exclusive low-rise signal
// proceeds as low-rise; mixed or absent signal is unclear. The classifier
// never guesses: ambiguity is resolved downstream by the NA sentinel.
type Keyword struct{}

func (Keyword) Classify(transcript string) (types.Intent, error) {
	stacked := containsAny(transcript, stackedTokens)
	lowRise := containsAny(transcript, lowRiseTokens)
	switch {
	case stacked && !lowRise:
		return types.IntentStackedVilla, nil
	case lowRise && !stacked:
		return types.IntentLowRise, nil
	default:
		return types.IntentUnclear, nil
	}
}

// LLM delegates classification to the gateway, normalizing whatever label
// comes back into the closed set.
type LLM struct{}

func (LLM) Classify(transcript string) (types.Intent, error) {
	label, err := extractor.ClassifyIntent(transcript)
	if err != nil {
		return types.IntentUnclear, err
	}
	return types.ParseIntent(strings.TrimSpace(strings.ToLower(label))), nil
}

// ForMode returns the classifier for a config mode string.
func ForMode(mode string) Classifier {
	if mode == "llm" {
		return LLM{}
	}
	return Keyword{}
}

func containsAny(s string, tokens []string) bool {
	for _, t := range tokens {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
