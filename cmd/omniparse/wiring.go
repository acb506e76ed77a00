package main

import (
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"omniparse/internal/agent"
	"omniparse/internal/agent/local"
	agentopenai "omniparse/internal/agent/openai"
	"omniparse/internal/chunker"
	"omniparse/internal/config"
	"omniparse/internal/docstore"
	"omniparse/internal/domain"
	"omniparse/internal/embedding/openai"
	"omniparse/internal/embedding/tfidf"
	"omniparse/internal/pipeline"
	"omniparse/internal/source"
	"omniparse/internal/tokenizer"
	"omniparse/internal/vectorstore"
	"omniparse/internal/vectorstore/memory"
	"omniparse/internal/vectorstore/qdrant"
	"omniparse/internal/vectorstore/sqlite"
)

type loggers struct {
	info *log.Logger
	err  *log.Logger
}

// newLoggers writes to console and to the rotating collection log file.
// With level "error" progress lines are dropped.
func newLoggers(cfg *config.AppConfig, console io.Writer) (loggers, func()) {
	file := &lumberjack.Logger{
		Filename: cfg.LogFile(),
		MaxSize:  cfg.Log.MaxSizeMB,
		MaxAge:   cfg.Log.MaxAgeDays,
	}
	w := io.MultiWriter(console, file)
	l := loggers{
		info: log.New(w, "", log.LstdFlags),
		err:  log.New(w, "ERROR ", log.LstdFlags),
	}
	if strings.EqualFold(cfg.Log.Level, "error") {
		l.info = log.New(io.Discard, "", 0)
	}
	return l, func() { _ = file.Close() }
}

func buildPipeline(cfg *config.AppConfig, docs []string, logs loggers) (*pipeline.Orchestrator[agent.StructuredData], error) {
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: at least one document is required", pipeline.ErrConfiguration)
	}
	store, err := buildStore(cfg)
	if err != nil {
		return nil, err
	}
	ag, err := buildAgent(cfg)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	tok, err := tokenizer.New(cfg.Pipeline.Tokenizer)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("%w: %v", pipeline.ErrConfiguration, err)
	}
	p, err := pipeline.New(pipeline.Options[agent.StructuredData]{
		Agent:          ag,
		Store:          store,
		Source:         source.NewFileReader(),
		Tokenizer:      tok,
		Splitter:       chunker.NewTokenChunker(tok, cfg.Pipeline.HardSplit),
		CollectionName: cfg.Pipeline.CollectionName,
		ResultCount:    cfg.Pipeline.ResultCount,
		TokenLimit:     cfg.Pipeline.TokenLimit,
		DocumentNames:  docs,
		Logger:         logs.info,
		ErrorLogger:    logs.err,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return p, nil
}

func buildStore(cfg *config.AppConfig) (*docstore.Store, error) {
	var emb domain.Embedder
	switch cfg.Embedder.Type {
	case "tfidf", "":
		emb = tfidf.NewEmbedder()
	case "openai":
		oc := cfg.Embedder.OpenAI
		client, err := openai.NewClient(openai.Config{
			BaseURL:   oc.BaseURL,
			APIKeyEnv: oc.APIKeyEnv,
			Model:     oc.Model,
			Timeout:   time.Duration(oc.TimeoutSecs) * time.Second,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: openai embedder: %v", pipeline.ErrConfiguration, err)
		}
		emb = client
	default:
		return nil, fmt.Errorf("%w: unknown embedder %q", pipeline.ErrConfiguration, cfg.Embedder.Type)
	}

	var ch domain.Chunker
	switch cfg.Chunker.Type {
	case "sentence", "":
		ch = chunker.NewSentenceChunker(cfg.Chunker.SentencesPerChunk, cfg.Chunker.OverlapSentences)
	default:
		return nil, fmt.Errorf("%w: unknown chunker %q", pipeline.ErrConfiguration, cfg.Chunker.Type)
	}

	var st vectorstore.Storage
	switch cfg.VectorStore.Type {
	case "memory", "":
		st = memory.NewStorage()
	case "sqlite":
		path := cfg.Pipeline.CollectionName + ".db"
		if cfg.VectorStore.SQLite != nil && cfg.VectorStore.SQLite.Path != "" {
			path = cfg.VectorStore.SQLite.Path
		}
		db, err := sqlite.Open(filepath.Clean(path))
		if err != nil {
			return nil, err
		}
		st = db
	case "qdrant":
		qc := cfg.VectorStore.Qdrant
		if qc == nil {
			return nil, fmt.Errorf("%w: qdrant config missing", pipeline.ErrConfiguration)
		}
		// resolved here so a --collection override also renames the Qdrant collection
		collection := qc.Collection
		if collection == "" {
			collection = cfg.Pipeline.CollectionName
		}
		st = qdrant.NewStorage(qdrant.Config{
			URL:        qc.URL,
			APIKey:     qc.APIKey,
			Collection: collection,
			Timeout:    time.Duration(qc.TimeoutSecs) * time.Second,
		})
	default:
		return nil, fmt.Errorf("%w: unknown vector store %q", pipeline.ErrConfiguration, cfg.VectorStore.Type)
	}

	store, err := docstore.New(ch, emb, st)
	if err != nil {
		if c, ok := st.(io.Closer); ok {
			_ = c.Close()
		}
		return nil, err
	}
	return store, nil
}

func buildAgent(cfg *config.AppConfig) (agent.Agent[agent.StructuredData], error) {
	switch cfg.Agent.Type {
	case "local", "":
		return local.New(cfg.Agent.MaxSentences), nil
	case "openai":
		oc := cfg.Agent.OpenAI
		a, err := agentopenai.New[agent.StructuredData](agentopenai.Config{
			BaseURL:   oc.BaseURL,
			APIKeyEnv: oc.APIKeyEnv,
			Model:     oc.Model,
			MaxTokens: oc.MaxTokens,
			Timeout:   time.Duration(oc.TimeoutSecs) * time.Second,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: openai agent: %v", pipeline.ErrConfiguration, err)
		}
		return a, nil
	default:
		return nil, fmt.Errorf("%w: unknown agent %q", pipeline.ErrConfiguration, cfg.Agent.Type)
	}
}
