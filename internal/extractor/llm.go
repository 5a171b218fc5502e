// Package extractor talks to the LLM gateway that performs the actual
// text-understanding work: slot-answer extraction and, optionally, intent
// classification. The contract enforced downstream (fixed 15-slot schema,
// NA sentinel) does not depend on what the gateway returns.
package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"visit-insights-go/internal/logger"
	"visit-insights-go/internal/slots"
)

var (
	httpTimeout  = 25 * time.Second
	maxRetryTime = 45 * time.Second
)

// SlotExtractor implements slots.Extractor over the LLM gateway.
type SlotExtractor struct{}

func (SlotExtractor) Extract(transcript string) (map[string]string, error) {
	return ExtractSlots(transcript)
}

// BuildSlotPrompt renders the strict return-only-JSON prompt for the fixed
// question schema.
func BuildSlotPrompt(transcript string) string {
	var b strings.Builder
	b.WriteString(`你是一名房地产销售接待分析引擎。下面是一段销售接待录音的文字转写，以及固定的15个问题。

请逐条回答：仅依据转写内容作答，不得编造。转写中完全没有涉及某个问题时，该问题的值必须是字符串 "NA"。

只返回一个 JSON 对象，键为下列英文标识，值为简短中文回答或 "NA"：
`)
	for _, s := range slots.All() {
		fmt.Fprintf(&b, "  %q: %s\n", s.Key, s.Template)
	}
	b.WriteString(`
不要输出任何解释、注释或 markdown 围栏。

转写内容：
"""`)
	b.WriteString(transcript)
	b.WriteString(`"""`)
	return b.String()
}

// BuildIntentPrompt renders the closed-set intent prompt.
func BuildIntentPrompt(transcript string) string {
	return fmt.Sprintf(`你是一名房地产销售接待分析引擎。判断下面这段接待转写中客户的购房意向类别。

规则：
- 只有当客户明确表达对叠墅（叠拼）产品感兴趣时，返回 "stacked_villa"。
- 当客户明确表达对洋房（平层）产品感兴趣时，返回 "low_rise"。
- 其他情况，包括两类都提到或都未明确提到，返回 "unclear"。

只返回 JSON：{"intent": "<low_rise|stacked_villa|unclear>"}

转写内容：
"""%s"""`, transcript)
}

// ExtractSlots sends the slot prompt and returns whatever mapping the model
// produced. Callers must pass the result through slots.Normalize.
// Supports USE_MOCK_LLM=true for offline runs and tests.
func ExtractSlots(transcript string) (map[string]string, error) {
	if os.Getenv("USE_MOCK_LLM") == "true" {
		return map[string]string{
			"budget":   "预算300万左右",
			"distance": "关注通勤距离，希望离地铁近",
		}, nil
	}
	body, err := chatJSON(BuildSlotPrompt(transcript))
	if err != nil {
		return nil, err
	}
	var raw map[string]any
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return nil, fmt.Errorf("slot answers not valid JSON: %w", err)
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out, nil
}

// ClassifyIntent sends the intent prompt and returns the raw label.
func ClassifyIntent(transcript string) (string, error) {
	if os.Getenv("USE_MOCK_LLM") == "true" {
		return "unclear", nil
	}
	body, err := chatJSON(BuildIntentPrompt(transcript))
	if err != nil {
		return "", err
	}
	var parsed struct {
		Intent string `json:"intent"`
	}
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		return "", fmt.Errorf("intent label not valid JSON: %w", err)
	}
	return parsed.Intent, nil
}

// chatJSON posts one user message to the OpenAI-compatible gateway and
// returns the first balanced JSON object found in the reply. Retries with
// exponential backoff; 4xx responses are permanent.
func chatJSON(prompt string) (string, error) {
	log := logger.New().WithComponent("extractor")

	gatewayURL := os.Getenv("LLM_GATEWAY_URL")
	apiKey := os.Getenv("LLM_API_KEY")
	model := os.Getenv("LLM_MODEL")
	if gatewayURL == "" || apiKey == "" {
		return "", fmt.Errorf("llm gateway not configured")
	}

	reqBody := map[string]any{
		"model": model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"temperature": 0.0,
	}
	data, _ := json.Marshal(reqBody)

	var result string
	var lastErr error
	op := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), httpTimeout)
		defer cancel()

		req, _ := http.NewRequestWithContext(ctx, "POST", gatewayURL, bytes.NewReader(data))
		req.Header.Set("Authorization", "Bearer "+apiKey)
		req.Header.Set("Content-Type", "application/json")

		client := &http.Client{Timeout: httpTimeout}
		resp, err := client.Do(req)
		if err != nil {
			lastErr = err
			log.WithError(err).Warn("llm request failed")
			return err
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		log.WithField("http_status", resp.StatusCode).Debug("llm raw response")

		if inner := extractContentFromChoices(body); inner != "" {
			result = inner
			lastErr = nil
			return nil
		}
		if fallback := extractJSON(string(body)); fallback != "" {
			result = fallback
			lastErr = nil
			return nil
		}

		lastErr = fmt.Errorf("no JSON found in llm output")
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return backoff.Permanent(lastErr)
		}
		return lastErr
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = maxRetryTime
	if err := backoff.Retry(op, b); err != nil {
		return "", fmt.Errorf("llm call failed: %w", lastErr)
	}
	return result, nil
}

// extractContentFromChoices reads openai-style choices[0].message.content
// and pulls the JSON object out of it.
func extractContentFromChoices(body []byte) string {
	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err != nil {
		return ""
	}
	choices, ok := obj["choices"].([]any)
	if !ok || len(choices) == 0 {
		return ""
	}
	c0, _ := choices[0].(map[string]any)
	if c0 == nil {
		return ""
	}
	msg, _ := c0["message"].(map[string]any)
	if msg == nil {
		return ""
	}
	content, _ := msg["content"].(string)
	return extractJSON(content)
}

// extractJSON finds the first balanced JSON object in a string, stripping
// common markdown fences first.
func extractJSON(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	for _, fence := range []string{"```json", "```yaml", "```text", "```", "`json", "`"} {
		s = strings.ReplaceAll(s, fence, "")
	}

	start := strings.Index(s, "{")
	if start == -1 {
		return ""
	}
	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return strings.TrimSpace(s[start : i+1])
			}
		}
	}
	return ""
}
