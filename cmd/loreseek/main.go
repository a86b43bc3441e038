// Package main is the loreseek CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/loreseek/loreseek/internal/assemble"
	"github.com/loreseek/loreseek/internal/config"
	"github.com/loreseek/loreseek/internal/discovery"
	"github.com/loreseek/loreseek/internal/embedding"
	"github.com/loreseek/loreseek/internal/fetch"
	"github.com/loreseek/loreseek/internal/llm"
	"github.com/loreseek/loreseek/internal/models"
	"github.com/loreseek/loreseek/internal/pipeline"
	"github.com/loreseek/loreseek/internal/server"
	"github.com/loreseek/loreseek/internal/session"
	"github.com/loreseek/loreseek/internal/storage"
	"github.com/loreseek/loreseek/internal/summarize"
	"github.com/loreseek/loreseek/internal/vector"
	"github.com/loreseek/loreseek/internal/vectorcache"
	"github.com/loreseek/loreseek/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/loreseek/config.yaml"

// loadConfig loads config from path. When path is the default, a
// config.yaml in the current directory takes precedence so running from
// the project dir picks up the project's config. Returns the config and
// the path actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	// API keys may live in a .env during development.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "query":
		runQuery()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("loreseek version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	// The sufficiency gate reloads when the config file changes.
	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	cfgWatcher := config.NewWatcher(resolvedConfigPath, func(fresh *config.Config) {
		components.Cache.SetGate(fresh.Cache.DistanceThreshold, fresh.Cache.MinMatches)
	}, logger)
	if err := cfgWatcher.Start(watchCtx); err != nil {
		logger.Warn("config watch unavailable", zap.Error(err))
	} else {
		defer cfgWatcher.Stop()
	}

	srv := server.NewServer(components.Pipeline, components.Cache, components.Store, &cfg.Server, logger)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	if cfg.Storage.VectorIndexPath != "" {
		if err := components.Cache.Save(cfg.Storage.VectorIndexPath); err != nil {
			logger.Warn("vector index save failed",
				zap.String("path", cfg.Storage.VectorIndexPath), zap.Error(err))
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// buildQuery joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting.
func buildQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func runQuery() {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	window := fs.String("t", "all", "time window: all, year, or month")
	forum := fs.String("forum", "", "force a specific forum")
	outputJSON := fs.Bool("json", false, "print the raw JSON response")
	_ = fs.Parse(os.Args[2:])

	queryStr := buildQuery(fs.Args())
	if queryStr == "" {
		fmt.Println("Usage: loreseek query [flags] <question>")
		fs.PrintDefaults()
		os.Exit(1)
	}

	params := url.Values{}
	params.Set("q", queryStr)
	params.Set("t", *window)
	if *forum != "" {
		params.Set("forum", *forum)
	}
	resp, err := http.Get(*serverURL + "/api/v1/query?" + params.Encode())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Query failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	var result models.QueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid response: %v\n", err)
		os.Exit(1)
	}
	if *outputJSON {
		out, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(out))
		return
	}
	printQueryResult(&result)
}

func printQueryResult(result *models.QueryResponse) {
	if result.Error != "" {
		fmt.Printf("Error: %s\n", result.Error)
		return
	}
	fmt.Printf("Status: %s\n\n", result.Status)
	if len(result.Results) == 0 {
		fmt.Println("No results.")
		return
	}
	for i, r := range result.Results {
		marker := " "
		if r.IsTopPost {
			marker = "*"
		}
		fmt.Printf("%s %d. %s [%s] (r/%s)\n", marker, i+1, r.Title, r.Date, r.Forum)
		fmt.Printf("     %s\n", r.URL)
		if r.Content != "" {
			fmt.Printf("     %s\n", utils.TruncateEllipsis(r.Content, 200))
		}
	}
	if result.Session != "" {
		fmt.Printf("\nSession: %s (use with the summary endpoint)\n", result.Session)
	}
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	_ = fs.Parse(os.Args[2:])

	resp, err := http.Get(*serverURL + "/api/v1/status")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Status request failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	var status map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid response: %v\n", err)
		os.Exit(1)
	}
	out, _ := json.MarshalIndent(status, "", "  ")
	fmt.Println(string(out))
}

// Components holds the wired application parts for clean shutdown.
type Components struct {
	Store    storage.PostStore
	Embedder embedding.Embedder
	Index    vector.Index
	Cache    *vectorcache.Cache
	Sessions *session.Store
	Pipeline *pipeline.Pipeline

	completer llm.Completer
}

// Close releases all component resources.
func (c *Components) Close() {
	if c.Sessions != nil {
		_ = c.Sessions.Close()
	}
	if c.completer != nil {
		_ = c.completer.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.Index != nil {
		_ = c.Index.Close()
	}
	if c.Store != nil {
		_ = c.Store.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	store, err := storage.NewSQLiteStore(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	embedder, err := newEmbedder(cfg, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	if cfg.Embedding.CacheSize > 0 {
		embedder = embedding.WithCache(embedder, cfg.Embedding.CacheSize)
	}

	index, err := vector.NewMemoryIndex(embedder.Dimensions())
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize vector index: %w", err)
	}
	if cfg.Storage.VectorIndexPath != "" {
		if loadErr := index.Load(cfg.Storage.VectorIndexPath); loadErr != nil {
			logger.Warn("vector index load skipped",
				zap.String("path", cfg.Storage.VectorIndexPath), zap.Error(loadErr))
		}
	}
	logger.Info("vector index initialized", zap.Int("size", index.Size()))

	cache := vectorcache.New(embedder, index, store, logger, vectorcache.Options{
		Threshold:        cfg.Cache.DistanceThreshold,
		MinMatches:       cfg.Cache.MinMatches,
		EmbedBatchSize:   cfg.Embedding.BatchSize,
		EmbedConcurrency: cfg.Embedding.Concurrency,
	})

	completer := newCompleter(cfg, logger)
	finder := discovery.NewFinder(completer, logger)

	httpClient := &http.Client{Timeout: time.Duration(cfg.Fetch.TimeoutSeconds) * time.Second}
	fetcher := fetch.NewFetcher(logger,
		fetch.NewOfficialAdapter(cfg.Fetch.RedditBaseURL, httpClient, finder, logger),
		fetch.NewWebSearchAdapter(cfg.Fetch.SearchBaseURL, cfg.Fetch.RedditBaseURL, httpClient, finder, logger),
	)

	var reranker *assemble.Reranker
	var summarizer *summarize.Summarizer
	if _, disabled := completer.(llm.Disabled); !disabled {
		reranker = assemble.NewReranker(completer, logger)
		summarizer = summarize.New(completer, logger)
	}

	sessions := session.NewStore(time.Duration(cfg.Session.TTLMinutes) * time.Minute)

	p := pipeline.New(cache, fetcher, reranker, summarizer, sessions, logger, pipeline.Options{
		MaxQueryLen:   cfg.Query.MaxLength,
		RerankEnabled: cfg.LLM.RerankEnabled,
	})

	return &Components{
		Store:     store,
		Embedder:  embedder,
		Index:     index,
		Cache:     cache,
		Sessions:  sessions,
		Pipeline:  p,
		completer: completer,
	}, nil
}

func newEmbedder(cfg *config.Config, logger *zap.Logger) (embedding.Embedder, error) {
	switch cfg.Embedding.Provider {
	case "mock":
		return embedding.NewMockEmbedder(cfg.Embedding.Dimensions), nil
	case "genai":
		return embedding.NewGenAIEmbedder(context.Background(), embedding.GenAIConfig{
			APIKeyEnv:  cfg.Embedding.APIKeyEnv,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
		})
	default:
		return embedding.NewOpenAIEmbedder(embedding.OpenAIConfig{
			BaseURL:    cfg.Embedding.BaseURL,
			APIKeyEnv:  cfg.Embedding.APIKeyEnv,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
		})
	}
}

// newCompleter builds the completion provider. A missing key or disabled
// provider degrades to llm.Disabled: discovery falls back to the default
// forums, reranking and summaries switch off.
func newCompleter(cfg *config.Config, logger *zap.Logger) llm.Completer {
	if cfg.LLM.Provider == "disabled" {
		return llm.Disabled{}
	}
	completer, err := llm.NewGeminiCompleter(context.Background(), llm.GeminiConfig{
		APIKeyEnv: cfg.LLM.APIKeyEnv,
		Model:     cfg.LLM.Model,
	})
	if err != nil {
		logger.Warn("completion provider unavailable, AI features disabled", zap.Error(err))
		return llm.Disabled{}
	}
	return completer
}

func printUsage() {
	fmt.Println(`loreseek - community post retrieval and ranking for game questions

Usage:
  loreseek server [flags]          Start the HTTP server
  loreseek query [flags] <text>    Ask a question via a running server
  loreseek status [flags]          Show cache and store status
  loreseek version                 Show version
  loreseek help                    Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/loreseek/config.yaml)
  --debug            Enable debug logging

Query Flags:
  --server string    Server URL (default: http://localhost:8080)
  --t string         Time window: all, year, or month (default: all)
  --forum string     Force a specific forum
  --json             Print the raw JSON response`)
}
