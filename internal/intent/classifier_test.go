package intent

import (
	"testing"

	"visit-insights-go/internal/types"
)

func TestKeywordClassify(t *testing.T) {
	cases := []struct {
		name       string
		transcript string
		want       types.Intent
		skip       bool
	}{
		{
			"explicit stacked villa",
			"客户：我们主要想看看叠墅，上叠带露台的那种。",
			types.IntentStackedVilla, true,
		},
		{
			"explicit low rise",
			"客户：我就想要洋房，一梯两户的平层。",
			types.IntentLowRise, false,
		},
		{
			"both mentioned is unclear",
			"客户：叠墅和洋房都想了解一下，还没想好。",
			types.IntentUnclear, false,
		},
		{
			"no product signal",
			"客户：预算大概300万，主要看离公司远不远。",
			types.IntentUnclear, false,
		},
		{
			"empty transcript",
			"",
			types.IntentUnclear, false,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := (Keyword{}).Classify(tc.transcript)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
			if got.ShouldSkip() != tc.skip {
				t.Fatalf("ShouldSkip() = %v, want %v", got.ShouldSkip(), tc.skip)
			}
		})
	}
}

func TestLLMClassifyMock(t *testing.T) {
	t.Setenv("USE_MOCK_LLM", "true")
	got, err := (LLM{}).Classify("任意转写")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != types.IntentUnclear {
		t.Fatalf("mock llm intent = %q", got)
	}
}

func TestForMode(t *testing.T) {
	if _, ok := ForMode("llm").(LLM); !ok {
		t.Fatal("mode llm should select the LLM classifier")
	}
	if _, ok := ForMode("").(Keyword); !ok {
		t.Fatal("default mode should select the keyword classifier")
	}
}
