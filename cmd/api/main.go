package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"visit-insights-go/internal/config"
	"visit-insights-go/internal/conversion"
	"visit-insights-go/internal/dataset"
	"visit-insights-go/internal/extractor"
	"visit-insights-go/internal/filename"
	"visit-insights-go/internal/insight"
	"visit-insights-go/internal/intent"
	"visit-insights-go/internal/logger"
	"visit-insights-go/internal/pipeline"
	"visit-insights-go/internal/types"
)

type processRequest struct {
	Filename   string `json:"filename"`
	Transcript string `json:"transcript,omitempty"`
}

type processResponse struct {
	types.RunResult
	Summary string `json:"summary"`
}

func main() {
	_ = godotenv.Load() // loads .env

	log := logger.New()
	log.WithField("service", "visit-insights-go").Info("starting service")

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load config")
	}
	filename.SetRepCodes(cfg.RepCodes)

	runner := pipeline.Runner{
		Converter:   converterFor(cfg),
		Classifier:  intent.ForMode(cfg.IntentMode),
		Extractor:   extractor.SlotExtractor{},
		DatasetPath: cfg.DatasetPath,
	}
	log.WithField("dataset_path", cfg.DatasetPath).
		WithField("intent_mode", cfg.IntentMode).
		Info("pipeline configured")

	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		logger.New().WithRequest(r).Info("health check")
		fmt.Fprint(w, "ok")
	})

	mux.HandleFunc("/process", func(w http.ResponseWriter, r *http.Request) {
		reqLog := logger.New().WithRequest(r).WithField("handler", "process")
		if r.Method != http.MethodPost {
			http.Error(w, "POST only", http.StatusMethodNotAllowed)
			return
		}
		var req processRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Filename == "" {
			reqLog.Warn("bad process request")
			http.Error(w, "body must be JSON with a filename", http.StatusBadRequest)
			return
		}
		reqLog = reqLog.WithField("file", req.Filename)
		reqLog.Info("process request received")

		run := runner
		if req.Transcript != "" {
			// caller supplied the converted text directly
			run.Converter = conversion.Static{Transcript: req.Transcript}
		}
		res, err := run.ProcessFile(req.Filename)
		w.Header().Set("Content-Type", "application/json")
		if err != nil {
			reqLog.WithError(err).Warn("pipeline returned error")
			w.WriteHeader(http.StatusUnprocessableEntity)
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(processResponse{RunResult: res, Summary: pipeline.RenderSummary(res)}); err != nil {
			reqLog.WithError(err).Error("failed to write response")
		}
	})

	mux.HandleFunc("/summary", func(w http.ResponseWriter, r *http.Request) {
		reqLog := logger.New().WithRequest(r).WithField("handler", "summary")
		reqLog.Info("summary requested")
		s, err := dataset.Summarize(cfg.DatasetPath)
		if err != nil {
			reqLog.WithError(err).Error("summarize failed")
			http.Error(w, "dataset summary error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.Encode(map[string]any{
			"summary": s,
			"card":    insight.Generate(s),
		})
	})

	addr := fmt.Sprintf(":%s", cfg.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	log.WithField("addr", addr).Info("listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Fatal("server terminated")
	}
}

// converterFor picks the document-to-text source: the external conversion
// service when configured, otherwise a local transcripts directory.
func converterFor(cfg config.Config) conversion.Converter {
	if cfg.ConvertURL != "" || os.Getenv("USE_MOCK_CONVERT") == "true" {
		return conversion.ServiceClient{}
	}
	return conversion.DirSource{Dir: cfg.TranscriptsDir}
}
