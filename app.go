// Package deepagent hosts an HTTP server around the agent orchestration
// core: agents defined in YAML or code, a per-thread shared state with a
// virtual filesystem and todo list, and delegation to isolated subagents.
package deepagent

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"deepagent/agent"
	"deepagent/handlers"
	"deepagent/tracing"
)

// Server is the main deepagent instance. Create one with New(), register
// agents and tools, then call Start() to run the HTTP server.
type Server struct {
	host       string
	port       int
	configFile string
	logger     *zap.Logger

	tools  []agent.Tool
	agents map[string]*agent.Config

	deps *handlers.Deps
	srv  *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithPort sets the listen port (default 8000).
func WithPort(port int) Option {
	return func(s *Server) { s.port = port }
}

// WithHost sets the listen host (default "0.0.0.0").
func WithHost(host string) Option {
	return func(s *Server) { s.host = host }
}

// WithConfigFile sets the path to an agents.yaml config file.
func WithConfigFile(path string) Option {
	return func(s *Server) { s.configFile = path }
}

// WithLogger sets the structured logger (default zap.NewNop()).
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// New creates a new Server with the given options.
func New(opts ...Option) *Server {
	s := &Server{
		host:   "0.0.0.0",
		port:   8000,
		logger: zap.NewNop(),
		agents: make(map[string]*agent.Config),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// RegisterAgent registers an agent template before Start().
func (s *Server) RegisterAgent(id string, cfg *agent.Config) {
	s.agents[id] = cfg
}

// RegisterTool registers a native tool (e.g. *agent.FuncTool) before Start().
func (s *Server) RegisterTool(t agent.Tool) {
	s.tools = append(s.tools, t)
}

// Start initializes dependencies, builds routes, and runs the HTTP server.
// It blocks until the server is shut down via signal or Shutdown().
func (s *Server) Start() error {
	registry := agent.NewRegistry()

	s.deps = &handlers.Deps{
		Registry: registry,
		Threads:  agent.GlobalThreadStore,
		Traces:   tracing.NewStore(1000),
		Logger:   s.logger,
		Tools:    s.tools,
	}

	for id, cfg := range s.agents {
		registry.RegisterTemplate(id, cfg)
		s.logger.Info("registered agent", zap.String("agent_id", id), zap.String("name", cfg.Name))
	}
	for _, t := range s.tools {
		s.logger.Info("registered tool", zap.String("tool", t.Name()))
	}

	if s.configFile != "" {
		s.logger.Info("loading config", zap.String("path", s.configFile))
		if err := LoadConfigFile(s.configFile, registry, s.logger); err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"ok","agents_loaded":%d}`, registry.TemplateCount())
	})

	handlers.RegisterRoutes(mux, s.deps)

	handler := corsMiddleware(requestLogMiddleware(s.logger, mux))

	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	s.srv = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // disable for SSE
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		s.logger.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.srv.Shutdown(ctx)
	}()

	s.logger.Info("deepagent starting",
		zap.String("addr", addr),
		zap.Int("agents", registry.TemplateCount()))

	if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	if s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestLogMiddleware(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("elapsed", time.Since(start)))
	})
}
