package conversion

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"visit-insights-go/internal/logger"
)

var httpClient = &http.Client{Timeout: 12 * time.Second}

type publishResponse struct {
	Code   int    `json:"Code"`
	Status string `json:"Status"`
	Data   struct {
		TaskId  string `json:"TaskId"`
		Status  string `json:"Status"`
		TextURL string `json:"TextURL"`
	} `json:"Data"`
	Reason string `json:"Reason,omitempty"`
}

type statusResponse struct {
	Code   int    `json:"Code"`
	Status string `json:"Status"`
	Data   struct {
		Status  string `json:"Status"` // Success, Queued, Processing, Failed
		TextURL string `json:"TextURL"`
	} `json:"Data"`
	Reason string `json:"Reason,omitempty"`
}

// ServiceClient drives the external conversion service: publish the document
// link, poll until the text export is ready, download the text. Supports
// mock mode via USE_MOCK_CONVERT=true.
type ServiceClient struct{}

func (ServiceClient) Text(sourceName string) (string, error) {
	if os.Getenv("USE_MOCK_CONVERT") == "true" {
		return "模拟转写：客户表示预算300万，想看洋房。", nil
	}
	log := logger.New().WithComponent("conversion")
	host := os.Getenv("CONVERT_URL")
	if host == "" {
		return "", &ConversionError{Filename: sourceName, Reason: "CONVERT_URL not set"}
	}
	taskID, existingURL, err := publish(sourceName, host)
	if err != nil {
		return "", &ConversionError{Filename: sourceName, Reason: err.Error()}
	}
	textURL := existingURL
	if textURL == "" {
		textURL, err = poll(taskID, host)
		if err != nil {
			return "", &ConversionError{Filename: sourceName, Reason: err.Error()}
		}
	}
	log.WithField("text_url", textURL).Info("conversion ready, downloading text")
	text, err := download(textURL)
	if err != nil {
		return "", &ConversionError{Filename: sourceName, Reason: err.Error()}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", &ConversionError{Filename: sourceName, Reason: "service returned empty content"}
	}
	return text, nil
}

func publish(sourceName, host string) (string, string, error) {
	endpoint := strings.TrimRight(host, "/") + "/convert"
	var b bytes.Buffer
	w := multipart.NewWriter(&b)
	w.WriteField("documentName", sourceName)
	w.WriteField("outputFormat", "txt")
	_ = w.Close()
	req, _ := http.NewRequest("POST", endpoint, &b)
	req.Header.Set("Content-Type", w.FormDataContentType())
	var resp publishResponse
	if err := doJSON(req, &resp); err != nil {
		return "", "", err
	}
	if resp.Code != 200 {
		return "", "", fmt.Errorf("convert publish error: code=%d reason=%s", resp.Code, resp.Reason)
	}
	if resp.Data.TextURL != "" && strings.ToLower(resp.Data.Status) == "success" {
		return "", resp.Data.TextURL, nil
	}
	return resp.Data.TaskId, "", nil
}

func poll(taskID, host string) (string, error) {
	base := strings.TrimRight(host, "/") + "/getstatus"
	for i := 0; i < 40; i++ {
		time.Sleep(1500 * time.Millisecond)
		u, _ := url.Parse(base)
		q := u.Query()
		q.Set("taskId", taskID)
		u.RawQuery = q.Encode()
		req, _ := http.NewRequest("GET", u.String(), nil)
		var s statusResponse
		if err := doJSON(req, &s); err != nil {
			continue
		}
		switch s.Data.Status {
		case "Success":
			return s.Data.TextURL, nil
		case "Queued", "Processing":
			continue
		case "Failed":
			return "", fmt.Errorf("conversion failed: %s", s.Reason)
		}
	}
	return "", fmt.Errorf("conversion timeout")
}

func download(url string) (string, error) {
	resp, err := httpClient.Get(url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("download failed: %s", string(b))
	}
	b, _ := io.ReadAll(resp.Body)
	return string(b), nil
}

func doJSON(req *http.Request, target interface{}) error {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 12 * time.Second
	var lastErr error
	op := func() error {
		resp, err := httpClient.Do(req)
		if err != nil {
			lastErr = err
			return err
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("server error: %s", string(body))
			return lastErr
		}
		if len(body) == 0 {
			lastErr = fmt.Errorf("empty body")
			return lastErr
		}
		if err := json.Unmarshal(body, target); err != nil {
			lastErr = fmt.Errorf("json decode error: %v body=%s", err, string(body))
			return lastErr
		}
		return nil
	}
	if err := backoff.Retry(op, bo); err != nil {
		return lastErr
	}
	return nil
}
