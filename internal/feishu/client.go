// Package feishu pulls visit-recording documents out of a Feishu drive
// folder so the local pipeline can process them. Cloud documents (docx,
// sheets) go through the export-task API; plain binary files download
// directly.
package feishu

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"visit-insights-go/internal/logger"
)

const defaultBaseURL = "https://open.feishu.cn/open-apis"

var exportTypes = map[string]bool{
	"doc": true, "docx": true, "sheet": true, "xlsx": true, "xls": true,
	"pptx": true, "ppt": true, "pdf": true, "slide": true, "bitable": true,
}

type Client struct {
	AppID     string
	AppSecret string
	BaseURL   string // defaults to the open.feishu.cn API base

	http  *http.Client
	token string
}

func New(appID, appSecret string) *Client {
	return &Client{
		AppID:     appID,
		AppSecret: appSecret,
		BaseURL:   defaultBaseURL,
		http:      &http.Client{Timeout: 30 * time.Second},
	}
}

// FileInfo is one entry of a drive folder listing.
type FileInfo struct {
	Token string `json:"token"`
	Name  string `json:"name"`
	Type  string `json:"type"`
}

type apiEnvelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// Authenticate fetches and caches a tenant access token.
func (c *Client) Authenticate() error {
	payload, _ := json.Marshal(map[string]string{
		"app_id":     c.AppID,
		"app_secret": c.AppSecret,
	})
	req, _ := http.NewRequest("POST", c.BaseURL+"/auth/v3/tenant_access_token/internal", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	var parsed struct {
		Code              int    `json:"code"`
		Msg               string `json:"msg"`
		TenantAccessToken string `json:"tenant_access_token"`
	}
	if err := c.doJSONRaw(req, &parsed); err != nil {
		return err
	}
	if parsed.Code != 0 {
		return fmt.Errorf("feishu auth: code=%d msg=%s", parsed.Code, parsed.Msg)
	}
	c.token = parsed.TenantAccessToken
	return nil
}

// ListFolder returns every entry of a drive folder, following pagination.
func (c *Client) ListFolder(folderToken string) ([]FileInfo, error) {
	var out []FileInfo
	pageToken := ""
	for {
		u := fmt.Sprintf("%s/drive/v1/files?folder_token=%s&page_size=50", c.BaseURL, folderToken)
		if pageToken != "" {
			u += "&page_token=" + pageToken
		}
		var data struct {
			Files     []FileInfo `json:"files"`
			HasMore   bool       `json:"has_more"`
			PageToken string     `json:"page_token"`
		}
		if err := c.getJSON(u, &data); err != nil {
			return nil, fmt.Errorf("list folder %s: %w", folderToken, err)
		}
		out = append(out, data.Files...)
		if !data.HasMore {
			return out, nil
		}
		pageToken = data.PageToken
	}
}

// PullFolder downloads every document in the folder (recursing into
// subfolders) into outDir and returns the local paths.
func (c *Client) PullFolder(folderToken, outDir string) ([]string, error) {
	log := logger.New().WithComponent("feishu").WithField("folder", folderToken)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, err
	}
	files, err := c.ListFolder(folderToken)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, f := range files {
		name := SanitizeFilename(f.Name)
		if f.Type == "folder" {
			sub, err := c.PullFolder(f.Token, filepath.Join(outDir, name))
			if err != nil {
				log.WithError(err).WithField("subfolder", name).Warn("subfolder pull failed")
				continue
			}
			paths = append(paths, sub...)
			continue
		}
		dest := filepath.Join(outDir, ensureExtension(name, f.Type))
		if err := c.fetch(f, dest); err != nil {
			log.WithError(err).WithField("file", name).Warn("download failed")
			continue
		}
		log.WithField("file", dest).Info("document downloaded")
		paths = append(paths, dest)
	}
	return paths, nil
}

func (c *Client) fetch(f FileInfo, dest string) error {
	if exportTypes[strings.ToLower(f.Type)] {
		return c.exportAndDownload(f, dest)
	}
	return c.downloadTo(fmt.Sprintf("%s/drive/v1/files/%s/download", c.BaseURL, f.Token), dest)
}

// exportAndDownload runs the export-task flow for cloud documents:
// create task, poll until done, download the exported file.
func (c *Client) exportAndDownload(f FileInfo, dest string) error {
	ext := strings.TrimPrefix(filepath.Ext(dest), ".")
	payload, _ := json.Marshal(map[string]string{
		"token":          f.Token,
		"type":           f.Type,
		"file_extension": ext,
	})
	req, _ := http.NewRequest("POST", c.BaseURL+"/drive/v1/export_tasks", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	var created struct {
		Ticket string `json:"ticket"`
	}
	if err := c.doJSON(req, &created); err != nil {
		return fmt.Errorf("create export task: %w", err)
	}

	exportToken, err := c.pollExport(created.Ticket, f.Token)
	if err != nil {
		return err
	}
	return c.downloadTo(fmt.Sprintf("%s/drive/v1/export_tasks/file/%s/download", c.BaseURL, exportToken), dest)
}

func (c *Client) pollExport(ticket, fileToken string) (string, error) {
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		var data struct {
			Result struct {
				JobStatus   *int   `json:"job_status"` // 0 done, 1 processing, 2 failed
				JobErrorMsg string `json:"job_error_msg"`
				FileToken   string `json:"file_token"`
			} `json:"result"`
		}
		u := fmt.Sprintf("%s/drive/v1/export_tasks/%s?token=%s", c.BaseURL, ticket, fileToken)
		if err := c.getJSON(u, &data); err != nil {
			return "", err
		}
		if data.Result.JobStatus != nil {
			switch *data.Result.JobStatus {
			case 0:
				return data.Result.FileToken, nil
			case 2:
				return "", fmt.Errorf("export task failed: %s", data.Result.JobErrorMsg)
			}
		}
		time.Sleep(time.Second)
	}
	return "", fmt.Errorf("export task timed out")
}

func (c *Client) downloadTo(url, dest string) error {
	req, _ := http.NewRequest("GET", url, nil)
	req.Header.Set("Authorization", "Bearer "+c.token)
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("download %s: status %d: %s", url, resp.StatusCode, string(b))
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, resp.Body)
	return err
}

func (c *Client) getJSON(url string, data any) error {
	req, _ := http.NewRequest("GET", url, nil)
	return c.doJSON(req, data)
}

// doJSON unwraps the standard {code, msg, data} envelope into data.
func (c *Client) doJSON(req *http.Request, data any) error {
	req.Header.Set("Authorization", "Bearer "+c.token)
	var env apiEnvelope
	if err := c.doJSONRaw(req, &env); err != nil {
		return err
	}
	if env.Code != 0 {
		return fmt.Errorf("feishu api: code=%d msg=%s", env.Code, env.Msg)
	}
	if data == nil || len(env.Data) == 0 {
		return nil
	}
	return json.Unmarshal(env.Data, data)
}

func (c *Client) doJSONRaw(req *http.Request, target any) error {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 20 * time.Second
	var lastErr error
	op := func() error {
		resp, err := c.http.Do(req)
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
		if err := json.Unmarshal(body, target); err != nil {
			lastErr = fmt.Errorf("json decode error: %v body=%s", err, string(body))
			return backoff.Permanent(lastErr)
		}
		return nil
	}
	if err := backoff.Retry(op, bo); err != nil {
		return lastErr
	}
	return nil
}

// SanitizeFilename strips characters unsafe for the local filesystem.
func SanitizeFilename(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		if strings.ContainsRune(`<>:"/\|?*`, r) {
			out = append(out, '_')
			continue
		}
		if r < 32 {
			continue
		}
		out = append(out, r)
	}
	s := strings.TrimSpace(string(out))
	if s == "" {
		return "unnamed_file"
	}
	return s
}

var typeToExt = map[string]string{
	"docx": ".docx", "doc": ".doc", "xlsx": ".xlsx", "xls": ".xls",
	"pptx": ".pptx", "ppt": ".ppt", "pdf": ".pdf", "txt": ".txt",
}

func ensureExtension(name, fileType string) string {
	ext := typeToExt[strings.ToLower(fileType)]
	if ext == "" || strings.HasSuffix(strings.ToLower(name), ext) {
		return name
	}
	return name + ext
}
