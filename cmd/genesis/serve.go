package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/pr0ta9/Genesis-sub000/pkg/checkpoint"
	"github.com/pr0ta9/Genesis-sub000/pkg/config"
	"github.com/pr0ta9/Genesis-sub000/pkg/executor"
	"github.com/pr0ta9/Genesis-sub000/pkg/graph"
	"github.com/pr0ta9/Genesis-sub000/pkg/llm"
	"github.com/pr0ta9/Genesis-sub000/pkg/observability"
	"github.com/pr0ta9/Genesis-sub000/pkg/pathgen"
	"github.com/pr0ta9/Genesis-sub000/pkg/registry"
	"github.com/pr0ta9/Genesis-sub000/pkg/repo/sqlstore"
	"github.com/pr0ta9/Genesis-sub000/pkg/server"
	"github.com/pr0ta9/Genesis-sub000/pkg/vectorstore"
	"golang.org/x/sync/errgroup"
)

// ServeCmd starts the Genesis HTTP server: loads config, wires every
// collaborator the graph needs, and listens until the process receives
// a shutdown signal.
type ServeCmd struct {
	ToolsDir string `name:"tools-dir" help:"Directory the tool registry scans for //pathtool declarations." default:"tools" type:"path"`
	Addr     string `help:"Override the configured HTTP listen address."`
}

func (c *ServeCmd) Run(cli *CLI) error {
	ctx, cancel := signalContext()
	defer cancel()

	loader, err := config.NewLoader(config.LoaderOptions{Path: cli.Config})
	if err != nil {
		return fmt.Errorf("genesis: %w", err)
	}
	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("genesis: loading config: %w", err)
	}
	if c.Addr != "" {
		cfg.HTTPAddr = c.Addr
	}

	logger, err := cfg.Logger.BuildLogger()
	if err != nil {
		return fmt.Errorf("genesis: building logger: %w", err)
	}
	slog.SetDefault(logger)

	tracerProvider, err := observability.InitGlobalTracer(ctx, cfg.Observability.Tracing)
	if err != nil {
		return fmt.Errorf("genesis: initializing tracer: %w", err)
	}
	defer func() {
		if shutdowner, ok := tracerProvider.(interface {
			Shutdown(context.Context) error
		}); ok {
			_ = shutdowner.Shutdown(context.Background())
		}
	}()

	metrics, err := observability.NewMetrics(cfg.Observability.Metrics)
	if err != nil {
		return fmt.Errorf("genesis: initializing metrics: %w", err)
	}

	db, err := sqlstore.Open(ctx, cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("genesis: opening database: %w", err)
	}
	defer db.Close()

	chatRepo := sqlstore.NewChatStore(db)
	messageRepo := sqlstore.NewMessageStore(db)
	stateRepo := sqlstore.NewStateStore(db)

	chatClient := llm.NewOpenAIClient(cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.BaseURL)
	embedder := llm.NewEmbeddingOpenAIClient(chatClient, "text-embedding-3-small")
	tokens, err := llm.NewTokenCounter(cfg.LLM.Model)
	if err != nil {
		return fmt.Errorf("genesis: initializing token counter: %w", err)
	}

	// The vector store and the tool registry are independent at startup:
	// nothing else depends on the order they finish in.
	var vector *vectorstore.ChromemStore
	tools := registry.NewToolRegistry()
	var g errgroup.Group
	g.Go(func() error {
		var err error
		vector, err = vectorstore.NewChromemStore(cfg.Vector.PersistDir, embedder)
		if err != nil {
			return fmt.Errorf("opening vector store: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := tools.Register(c.ToolsDir); err != nil {
			return fmt.Errorf("registering tools: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("genesis: %w", err)
	}

	ex := executor.New(executor.Config{
		ProjectRoot:   cfg.ProjectRoot,
		IsolationMode: executor.IsolationMode(cfg.IsolationMode),
		KeepWorkspace: cfg.KeepWorkspace,
	})

	checkpoints, err := checkpoint.NewManager(&checkpoint.Config{})
	if err != nil {
		return fmt.Errorf("genesis: initializing checkpoint manager: %w", err)
	}

	deps := &graph.Deps{
		LLM:         chatClient,
		Vector:      vector,
		PathGen:     pathgen.New(tools),
		Executor:    ex,
		Checkpoints: checkpoints,
		Metrics:     metrics,
		Tokens:      tokens,
		TokenBudget: cfg.LLM.ContextTokenBudget,
	}

	srv := server.New(&server.Server{
		Chats:       chatRepo,
		Messages:    messageRepo,
		States:      stateRepo,
		Vector:      vector,
		Tools:       tools,
		Checkpoints: checkpoints,
		Graph:       graph.New(deps),
		Metrics:     metrics,
		ProjectRoot: cfg.ProjectRoot,
		LLMProvider: cfg.LLM.Provider,
		LLMModel:    cfg.LLM.Model,
	})

	httpServer := &http.Server{Addr: cfg.HTTPAddr, Handler: srv}
	go func() {
		<-ctx.Done()
		_ = httpServer.Close()
	}()

	slog.Info("genesis: listening", "addr", cfg.HTTPAddr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("genesis: serving: %w", err)
	}
	return nil
}
