package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"omniparse/internal/agent"
	"omniparse/internal/config"
	"omniparse/internal/mcpserver"
	"omniparse/internal/tui"
)

var version = "dev"

const usage = `Usage: omniparse [flags] <command> [args]

Commands:
  query "<question>" doc...   run one query and print the output log
  tui doc...                  interactive query console
  serve [--addr :8080] doc... MCP server over streamable HTTP

Flags:
`

func main() {
	_ = godotenv.Load()

	var (
		cfgPath    string
		collection string
		results    int
		limit      int
	)
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/omniparse/config.yaml if not provided)")
	flag.StringVar(&collection, "collection", "", "Collection name (overrides config)")
	flag.IntVar(&results, "n", 0, "Number of passages to retrieve (overrides config)")
	flag.IntVar(&limit, "limit", 0, "Token limit per agent call (overrides config)")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if collection != "" {
		cfg.Pipeline.CollectionName = collection
	}
	if results > 0 {
		cfg.Pipeline.ResultCount = results
	}
	if limit > 0 {
		cfg.Pipeline.TokenLimit = limit
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "query":
		err = runQuery(cfg, rest)
	case "tui":
		err = runTUI(cfg, rest)
	case "serve":
		err = runServe(cfg, rest)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func runQuery(cfg *config.AppConfig, args []string) error {
	if len(args) < 2 {
		return errors.New(`usage: omniparse query "<question>" doc...`)
	}
	logs, closeLogs := newLoggers(cfg, os.Stderr)
	defer closeLogs()

	p, err := buildPipeline(cfg, args[1:], logs)
	if err != nil {
		return err
	}
	defer p.Close()

	out, err := p.Run(args[0])
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

func runTUI(cfg *config.AppConfig, docs []string) error {
	// the terminal belongs to the TUI, so logs go to the file only
	logs, closeLogs := newLoggers(cfg, io.Discard)
	defer closeLogs()

	p, err := buildPipeline(cfg, docs, logs)
	if err != nil {
		return err
	}
	defer p.Close()

	_, err = tea.NewProgram(tui.New(p), tea.WithAltScreen()).Run()
	return err
}

func runServe(cfg *config.AppConfig, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", ":8080", "Listen address")
	if err := fs.Parse(args); err != nil {
		return err
	}
	logs, closeLogs := newLoggers(cfg, os.Stderr)
	defer closeLogs()

	p, err := buildPipeline(cfg, fs.Args(), logs)
	if err != nil {
		return err
	}
	defer p.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpServer := &http.Server{
		Addr:              *addr,
		Handler:           mcpserver.Handler(mcpserver.New[agent.StructuredData](p, version)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logs.info.Printf("serve: listening on %s", *addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logs.info.Printf("serve: shutting down")
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
