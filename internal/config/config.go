// Package config resolves service configuration from an optional YAML file
// overlaid by environment variables. Env always wins so deployments can
// override a checked-in config file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTPPort       string
	DatasetPath    string
	TranscriptsDir string
	IntentMode     string // keyword | llm
	RepCodes       []string

	ConvertURL    string
	LLMGatewayURL string
	LLMModel      string
	LLMAPIKey     string

	FeishuAppID       string
	FeishuAppSecret   string
	FeishuFolderToken string
}

type fileConfig struct {
	HTTPPort       string   `yaml:"http_port"`
	DatasetPath    string   `yaml:"dataset_path"`
	TranscriptsDir string   `yaml:"transcripts_dir"`
	IntentMode     string   `yaml:"intent_mode"`
	RepCodes       []string `yaml:"rep_codes"`
}

const (
	defaultPort        = "8080"
	defaultDataset     = "客户到访记录.xlsx"
	defaultTranscripts = "transcripts"
	defaultIntentMode  = "keyword"
)

// Load reads CONFIG_PATH (if present) then environment variables.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:       defaultPort,
		DatasetPath:    defaultDataset,
		TranscriptsDir: defaultTranscripts,
		IntentMode:     defaultIntentMode,
	}

	if path := envOr("CONFIG_PATH", "config.yaml"); path != "" {
		fc, err := loadFile(path)
		if err != nil {
			return Config{}, err
		}
		if fc != nil {
			if fc.HTTPPort != "" {
				cfg.HTTPPort = fc.HTTPPort
			}
			if fc.DatasetPath != "" {
				cfg.DatasetPath = fc.DatasetPath
			}
			if fc.TranscriptsDir != "" {
				cfg.TranscriptsDir = fc.TranscriptsDir
			}
			if fc.IntentMode != "" {
				cfg.IntentMode = fc.IntentMode
			}
			if len(fc.RepCodes) > 0 {
				cfg.RepCodes = fc.RepCodes
			}
		}
	}

	cfg.HTTPPort = envOr("PORT", cfg.HTTPPort)
	cfg.DatasetPath = envOr("DATASET_PATH", cfg.DatasetPath)
	cfg.TranscriptsDir = envOr("TRANSCRIPTS_DIR", cfg.TranscriptsDir)
	cfg.IntentMode = envOr("INTENT_MODE", cfg.IntentMode)
	cfg.ConvertURL = os.Getenv("CONVERT_URL")
	cfg.LLMGatewayURL = os.Getenv("LLM_GATEWAY_URL")
	cfg.LLMModel = os.Getenv("LLM_MODEL")
	cfg.LLMAPIKey = os.Getenv("LLM_API_KEY")
	cfg.FeishuAppID = os.Getenv("FEISHU_APP_ID")
	cfg.FeishuAppSecret = os.Getenv("FEISHU_APP_SECRET")
	cfg.FeishuFolderToken = os.Getenv("FEISHU_FOLDER_TOKEN")

	if cfg.IntentMode != "keyword" && cfg.IntentMode != "llm" {
		return Config{}, fmt.Errorf("intent mode %q: must be keyword or llm", cfg.IntentMode)
	}
	return cfg, nil
}

// loadFile returns nil without error when the file does not exist; the
// default config path is optional.
func loadFile(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config %q: %w", path, err)
	}
	return &fc, nil
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
