// Command whoop-mcp is an MCP server exposing WHOOP health data over stdio,
// with an optional websocket gateway for remote clients.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mark3labs/mcp-go/server"

	"whoop-coach-mcp/internal/auth"
	"whoop-coach-mcp/internal/config"
	"whoop-coach-mcp/internal/cycle"
	"whoop-coach-mcp/internal/gateway"
	"whoop-coach-mcp/internal/prompt"
	"whoop-coach-mcp/internal/summary"
	"whoop-coach-mcp/internal/tools"
	"whoop-coach-mcp/internal/whoop"
)

const version = "1.0.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "whoop-mcp:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	store := auth.NewStore(cfg.TokenFile)
	session := auth.NewSession(auth.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURI:  cfg.RedirectURI,
		AuthURL:      cfg.AuthURL,
		TokenURL:     cfg.TokenURL,
	}, store, &http.Client{Timeout: cfg.RequestTimeout}, log.Named("auth"))

	client := whoop.NewClient(session, log.Named("whoop"),
		whoop.WithBaseURL(cfg.APIBaseURL),
		whoop.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout}),
		whoop.WithRateLimit(cfg.RateLimitPerMinute),
	)

	loc := cfg.Location()
	resolver := cycle.NewResolver(client, loc, log.Named("cycle"))
	builder := summary.NewBuilder(client, loc, log.Named("summary"))
	prompts := prompt.NewStore(cfg.PromptFile)

	s := tools.New(tools.Deps{
		Session:  session,
		Client:   client,
		Resolver: resolver,
		Builder:  builder,
		Prompts:  prompts,
		Location: loc,
		Log:      log.Named("tools"),
	}, version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.GatewayAddr != "" {
		gw := gateway.New(s, cfg.GatewayAPIKey, log.Named("gateway"))
		go func() {
			if err := gw.Serve(ctx, cfg.GatewayAddr); err != nil && err != http.ErrServerClosed {
				log.Error("gateway stopped", zap.Error(err))
			}
		}()
	}

	log.Info("starting stdio server", zap.String("version", version))
	return server.ServeStdio(s)
}

// newLogger builds a zap logger writing to stderr. Stdout carries the MCP
// stdio transport and must stay clean.
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}
