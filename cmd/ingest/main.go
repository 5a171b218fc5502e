package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"visit-insights-go/internal/config"
	"visit-insights-go/internal/conversion"
	"visit-insights-go/internal/extractor"
	"visit-insights-go/internal/feishu"
	"visit-insights-go/internal/filename"
	"visit-insights-go/internal/intent"
	"visit-insights-go/internal/logger"
	"visit-insights-go/internal/pipeline"
)

func main() {
	_ = godotenv.Load()

	watch := flag.Bool("watch", false, "keep watching the directory for new documents")
	dirFlag := flag.String("dir", "", "source document directory (defaults to transcripts dir)")
	flag.Parse()

	log := logger.New()
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load config")
	}
	filename.SetRepCodes(cfg.RepCodes)

	dir := *dirFlag
	if dir == "" {
		dir = cfg.TranscriptsDir
	}

	runner := pipeline.Runner{
		Converter:   converterFor(cfg, dir),
		Classifier:  intent.ForMode(cfg.IntentMode),
		Extractor:   extractor.SlotExtractor{},
		DatasetPath: cfg.DatasetPath,
	}
	log.WithField("dir", dir).WithField("dataset_path", cfg.DatasetPath).Info("ingest starting")

	// optional: pull the source folder down from Feishu first
	if cfg.FeishuFolderToken != "" && cfg.FeishuAppID != "" {
		client := feishu.New(cfg.FeishuAppID, cfg.FeishuAppSecret)
		if err := client.Authenticate(); err != nil {
			log.WithError(err).Fatal("feishu auth failed")
		}
		paths, err := client.PullFolder(cfg.FeishuFolderToken, dir)
		if err != nil {
			log.WithError(err).Fatal("feishu folder pull failed")
		}
		log.WithField("downloaded", len(paths)).Info("feishu documents pulled")
	}

	// documents are processed strictly one at a time; the dataset has a
	// single writer by design
	ing := ingester{runner: runner, seen: map[string]bool{}}

	entries, err := os.ReadDir(dir)
	if err != nil {
		log.WithError(err).Fatal("cannot read source directory")
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ing.handle(e.Name())
	}

	if !*watch {
		return
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.WithError(err).Fatal("cannot start watcher")
	}
	defer watcher.Close()
	if err := watcher.Add(dir); err != nil {
		log.WithError(err).Fatal("cannot watch source directory")
	}
	log.Info("watching for new documents")

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			// give the writer a moment to finish the file
			time.Sleep(500 * time.Millisecond)
			ing.handle(filepath.Base(event.Name))
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.WithError(err).Warn("watcher error")
		}
	}
}

type ingester struct {
	runner pipeline.Runner
	seen   map[string]bool
}

var sourceExtensions = map[string]bool{".docx": true, ".doc": true, ".txt": true}

// handle processes one directory entry, deduplicating by base name so a
// document and its exported .txt transcript do not produce two rows.
func (g *ingester) handle(name string) {
	log := logger.New().WithComponent("ingest").WithField("file", name)
	ext := strings.ToLower(filepath.Ext(name))
	if !sourceExtensions[ext] {
		return
	}
	base := strings.TrimSuffix(name, filepath.Ext(name))
	if g.seen[base] {
		return
	}
	g.seen[base] = true

	res, err := g.runner.ProcessFile(name)
	if err != nil {
		log.WithError(err).Error("processing failed")
		fmt.Println(pipeline.RenderSummary(res))
		return
	}
	fmt.Println(pipeline.RenderSummary(res))
}

func converterFor(cfg config.Config, dir string) conversion.Converter {
	if cfg.ConvertURL != "" || os.Getenv("USE_MOCK_CONVERT") == "true" {
		return conversion.ServiceClient{}
	}
	return conversion.DirSource{Dir: dir}
}
