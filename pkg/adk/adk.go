// Package adk wires the kagent A2A execution bridge: session services, the
// lifecycle callbacks, the part codec, and the protocol executor, behind a
// small HTTP surface.
package adk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-logr/logr"
	"github.com/gorilla/mux"
	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"trpc.group/trpc-go/trpc-a2a-go/protocol"

	"github.com/kagent-dev/kagent-bridge/pkg/adk/a2a"
	"github.com/kagent-dev/kagent-bridge/pkg/adk/auth"
	"github.com/kagent-dev/kagent-bridge/pkg/adk/config"
	"github.com/kagent-dev/kagent-bridge/pkg/adk/converters"
	"github.com/kagent-dev/kagent-bridge/pkg/adk/executor"
	"github.com/kagent-dev/kagent-bridge/pkg/adk/session"
	"github.com/kagent-dev/kagent-bridge/pkg/adk/skills"
)

// Config represents the bridge application configuration
type Config struct {
	KAgentURL    string
	AppName      string
	SkillsDir    string
	TokenPath    string
	SessionDBDSN string
	Host         string
	Port         int
	Streaming    bool
}

// App assembles the bridge around a runner configuration.
type App struct {
	Config         *Config
	SessionService session.Service
	TokenService   *auth.TokenService
	Executor       *executor.A2AExecutor
	Skills         *skills.Discovery

	executorCfg *executor.Config
	logger      logr.Logger
	router      *mux.Router
}

// NewApp creates a new bridge application. When KAgentURL is set the control
// plane owns sessions over HTTP; otherwise a local embedded store is used.
func NewApp(cfg *Config, runnerCfg *config.RunnerConfig, logger logr.Logger) (*App, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	app := &App{
		Config: cfg,
		logger: logger,
	}

	if cfg.KAgentURL != "" {
		app.TokenService = auth.NewTokenService(cfg.AppName, cfg.TokenPath)
		app.SessionService = session.NewKAgentService(cfg.KAgentURL, app.TokenService.GetToken)
	} else {
		local, err := session.NewLocalService(cfg.SessionDBDSN)
		if err != nil {
			return nil, err
		}
		app.SessionService = local
	}

	app.executorCfg = a2a.NewExecutorConfig(runnerCfg, app.SessionService, cfg.Streaming, cfg.AppName, logger)
	app.Executor = executor.NewA2AExecutor(app.executorCfg)
	app.Skills = skills.NewDiscovery(app.executorCfg.SkillsDirectory)

	return app, nil
}

// Build creates the HTTP server.
func (a *App) Build(ctx context.Context) (*http.Server, error) {
	if a.TokenService != nil {
		if err := a.TokenService.Start(ctx); err != nil {
			return nil, err
		}
	}

	a.router = mux.NewRouter()
	a.setupRoutes()

	server := &http.Server{
		Addr:        fmt.Sprintf("%s:%d", a.Config.Host, a.Config.Port),
		Handler:     a.router,
		ReadTimeout: 15 * time.Second,
	}

	return server, nil
}

// Shutdown stops the server and background services.
func (a *App) Shutdown(ctx context.Context, server *http.Server) error {
	var result *multierror.Error

	if err := server.Shutdown(ctx); err != nil {
		result = multierror.Append(result, err)
	}
	if a.TokenService != nil {
		a.TokenService.Stop()
	}

	return result.ErrorOrNil()
}

func (a *App) setupRoutes() {
	a.router.HandleFunc("/health", a.handleHealth).Methods("GET")
	a.router.HandleFunc("/info", a.handleInfo).Methods("GET")
	a.router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	a.router.HandleFunc("/a2a/message", a.handleMessage).Methods("POST")
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status": "healthy",
		"app":    a.Config.AppName,
	})
}

func (a *App) handleInfo(w http.ResponseWriter, r *http.Request) {
	skillList, err := a.Skills.List()
	if err != nil {
		a.logger.V(1).Info("failed to list skills", "error", err)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"app_name":  a.Config.AppName,
		"streaming": a.Config.Streaming,
		"skills":    skillList,
	})
}

// handleMessage accepts an A2A message and executes it as one task. In SSE
// mode every protocol event is streamed as it is produced; otherwise the
// response is the final status event alone.
func (a *App) handleMessage(w http.ResponseWriter, r *http.Request) {
	var message protocol.Message
	if err := json.NewDecoder(r.Body).Decode(&message); err != nil {
		http.Error(w, fmt.Sprintf("invalid message: %v", err), http.StatusBadRequest)
		return
	}

	contextID := ""
	if message.ContextID != nil {
		contextID = *message.ContextID
	}
	if contextID == "" {
		contextID = protocol.GenerateContextID()
	}

	reqCtx := &converters.RequestContext{
		TaskID:    protocol.GenerateTaskID(),
		ContextID: contextID,
		Message:   &message,
	}

	queue := make(chan protocol.StreamingMessageEvent, 16)
	done := make(chan error, 1)
	go func() {
		defer close(queue)
		done <- a.Executor.ExecuteTask(r.Context(), reqCtx, queue)
	}()

	if a.executorCfg.RunMode == executor.RunModeSSE {
		a.streamEvents(w, queue)
	} else {
		a.respondFinal(w, queue)
	}

	if err := <-done; err != nil {
		a.logger.Error(err, "task execution setup failed", "task_id", reqCtx.TaskID)
	}
}

func (a *App) streamEvents(w http.ResponseWriter, queue <-chan protocol.StreamingMessageEvent) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	for event := range queue {
		data, err := json.Marshal(&event)
		if err != nil {
			a.logger.Error(err, "failed to encode stream event")
			continue
		}
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
	}
}

func (a *App) respondFinal(w http.ResponseWriter, queue <-chan protocol.StreamingMessageEvent) {
	var final *protocol.TaskStatusUpdateEvent
	for event := range queue {
		if statusEvent, ok := event.Result.(*protocol.TaskStatusUpdateEvent); ok && statusEvent.Final {
			final = statusEvent
		}
	}

	if final == nil {
		http.Error(w, "task produced no terminal event", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(final)
}

// DefaultConfig returns the default configuration from environment variables
func DefaultConfig() *Config {
	port := 8080
	if p := os.Getenv("PORT"); p != "" {
		fmt.Sscanf(p, "%d", &port)
	}

	return &Config{
		KAgentURL:    os.Getenv("KAGENT_URL"),
		AppName:      getEnvOrDefault("APP_NAME", "kagent-app"),
		SkillsDir:    os.Getenv(a2a.SkillsFolderEnvVar),
		TokenPath:    getEnvOrDefault("KAGENT_TOKEN_PATH", auth.DefaultTokenPath),
		SessionDBDSN: os.Getenv("SESSION_DB_DSN"),
		Host:         getEnvOrDefault("HOST", "0.0.0.0"),
		Port:         port,
		Streaming:    os.Getenv("STREAMING") == "true",
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
