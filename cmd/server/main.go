// Command server runs the qaserve question answering service.
//
// Configuration is read from a YAML file and QASERVE_* environment
// variables, see pkg/config. Without either, the service listens on
// 0.0.0.0:8080, exposes metrics on 0.0.0.0:8000/metrics and forwards
// queries to a Hugging Face style backend at http://localhost:8081
// (cmd/mock-backend).
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	flags "github.com/jessevdk/go-flags"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/rhuss/qaserve/pkg/auth"
	"github.com/rhuss/qaserve/pkg/auth/apikey"
	"github.com/rhuss/qaserve/pkg/auth/jwt"
	"github.com/rhuss/qaserve/pkg/auth/noop"
	"github.com/rhuss/qaserve/pkg/cache/memory"
	"github.com/rhuss/qaserve/pkg/config"
	"github.com/rhuss/qaserve/pkg/debug"
	"github.com/rhuss/qaserve/pkg/mcp"
	"github.com/rhuss/qaserve/pkg/observability"
	"github.com/rhuss/qaserve/pkg/qa"
	"github.com/rhuss/qaserve/pkg/qa/gemini"
	"github.com/rhuss/qaserve/pkg/qa/huggingface"
	"github.com/rhuss/qaserve/pkg/qa/openai"
	"github.com/rhuss/qaserve/pkg/qa/transformers"
	"github.com/rhuss/qaserve/pkg/transport"
	transporthttp "github.com/rhuss/qaserve/pkg/transport/http"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

type options struct {
	ConfigFile string `short:"c" long:"config" description:"path to the YAML config file" env:"QASERVE_CONFIG"`
	Version    bool   `long:"version" description:"print the version and exit"`
}

func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(2)
	}
	if opts.Version {
		fmt.Println(version)
		return
	}

	if err := run(opts.ConfigFile); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(configFile string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	debug.Init(cfg.Logging.Debug, cfg.Logging.Level, cfg.Logging.Format)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(reg)

	backend, err := newBackend(context.Background(), cfg.Backend)
	if err != nil {
		return fmt.Errorf("creating backend: %w", err)
	}
	defer backend.Close()

	answerer := qa.Instrument(backend, metrics)
	if cfg.Cache.MaxSize > 0 {
		answerer = qa.WithCache(answerer, memory.New(cfg.Cache.MaxSize, cfg.Cache.TTL), metrics)
		slog.Info("answer cache enabled", "max_size", cfg.Cache.MaxSize, "ttl", cfg.Cache.TTL)
	}

	srv, err := newServer(cfg, transport.Backend(answerer), metrics, reg)
	if err != nil {
		return err
	}

	slog.Info("server starting",
		"addr", cfg.Server.Addr(),
		"metrics_addr", cfg.Observability.Metrics.Addr(),
		"backend", backend.Name(),
		"backend_url", cfg.Backend.URL,
		"auth", cfg.Auth.Type,
		"mcp", cfg.MCP.Enabled,
	)
	return srv.ListenAndServe()
}

// newServer assembles the HTTP server from cfg around the given handler.
func newServer(cfg *config.Config, handler transport.QueryHandler, metrics *observability.Metrics, g prometheus.Gatherer) (*transporthttp.Server, error) {
	opts := []transporthttp.ServerOption{
		transporthttp.WithAddr(cfg.Server.Addr()),
		transporthttp.WithMaxBodySize(cfg.Server.MaxBodySize),
		transporthttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout),
		transporthttp.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
		transporthttp.WithBackendName(cfg.Backend.Type),
		transporthttp.WithMetrics(metrics, g, cfg.Observability.Metrics.Addr(), cfg.Observability.Metrics.Path),
		transporthttp.WithCORS(cfg.Server.CORSAllowedOrigins),
	}

	authMW, err := newAuthMiddleware(cfg.Auth, metrics)
	if err != nil {
		return nil, fmt.Errorf("creating authenticator: %w", err)
	}
	if authMW != nil {
		opts = append(opts, transporthttp.WithMiddleware(authMW))
	}

	if cfg.MCP.Enabled {
		tool := transport.Chain(
			transport.Recovery(),
			transport.RequestID(),
			transport.Logging(slog.Default(), cfg.Backend.Type),
		)(handler)
		server := mcp.NewServer(tool, metrics, mcp.Config{Endpoint: cfg.MCP.Path, Version: version})
		opts = append(opts, transporthttp.WithMount(cfg.MCP.Path, mcp.Handler(server)))
	}

	return transporthttp.NewServer(handler, opts...), nil
}

// newBackend creates the QA backend selected by cfg.Type.
func newBackend(ctx context.Context, cfg config.BackendConfig) (qa.Answerer, error) {
	switch cfg.Type {
	case config.BackendHuggingFace:
		return huggingface.New(huggingface.Config{
			URL:          cfg.URL,
			APIKey:       cfg.APIKey,
			Timeout:      cfg.Timeout,
			WaitForModel: cfg.WaitForModel,
		})
	case config.BackendTransformers:
		return transformers.New(transformers.Config{
			URL:     cfg.URL,
			Timeout: cfg.Timeout,
		})
	case config.BackendOpenAI:
		return openai.New(openai.Config{
			BaseURL: cfg.URL,
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		})
	case config.BackendGemini:
		return gemini.New(ctx, gemini.Config{
			APIKey:   cfg.APIKey,
			Model:    cfg.Model,
			Endpoint: cfg.URL,
		})
	default:
		return nil, fmt.Errorf("unknown backend type %q", cfg.Type)
	}
}

// newAuthMiddleware builds the auth middleware for cfg. It returns nil when
// authentication is off and no rate limit applies to anonymous callers.
func newAuthMiddleware(cfg config.AuthConfig, metrics *observability.Metrics) (func(http.Handler) http.Handler, error) {
	chain := &auth.AuthChain{DefaultDecision: auth.No}

	switch cfg.Type {
	case "", "none":
		if cfg.RateLimit.DefaultRPM == 0 && len(cfg.RateLimit.Tiers) == 0 {
			return nil, nil
		}
		chain.Authenticators = []auth.Authenticator{&noop.Authenticator{}}
	case "apikey":
		entries := make([]apikey.RawKeyEntry, 0, len(cfg.APIKeys))
		for _, k := range cfg.APIKeys {
			entries = append(entries, apikey.RawKeyEntry{
				Key: k.Key,
				Identity: auth.Identity{
					Subject:     k.Subject,
					ServiceTier: k.ServiceTier,
				},
			})
		}
		chain.Authenticators = []auth.Authenticator{apikey.New(entries)}
	case "jwt":
		authn, err := jwt.New(jwt.Config{
			Issuer:      cfg.JWT.Issuer,
			Audience:    cfg.JWT.Audience,
			JWKSURL:     cfg.JWT.JWKSURL,
			UserClaim:   cfg.JWT.UserClaim,
			TierClaim:   cfg.JWT.TierClaim,
			ScopesClaim: cfg.JWT.ScopesClaim,
			CacheTTL:    cfg.JWT.CacheTTL,
			Leeway:      cfg.JWT.Leeway,
		})
		if err != nil {
			return nil, err
		}
		chain.Authenticators = []auth.Authenticator{authn}
	default:
		return nil, fmt.Errorf("unknown auth type %q", cfg.Type)
	}

	var limiter auth.RateLimiter
	if cfg.RateLimit.DefaultRPM > 0 || len(cfg.RateLimit.Tiers) > 0 {
		tiers := make(map[string]auth.TierConfig, len(cfg.RateLimit.Tiers))
		for name, rpm := range cfg.RateLimit.Tiers {
			tiers[name] = auth.TierConfig{RequestsPerMinute: rpm}
		}
		limiter = auth.NewInProcessLimiter(tiers, cfg.RateLimit.DefaultRPM)
	}

	return auth.Middleware(chain, limiter, auth.DefaultBypassEndpoints, metrics), nil
}
