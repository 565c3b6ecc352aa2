// Command kagent-bridge serves an agent runtime over the A2A protocol.
// The built-in runner echoes the inbound message; production deployments
// replace it with a real agent runtime via config.RunnerConfig.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-logr/stdr"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	_ "go.uber.org/automaxprocs"

	"github.com/kagent-dev/kagent-bridge/pkg/adk"
	"github.com/kagent-dev/kagent-bridge/pkg/adk/config"
	"github.com/kagent-dev/kagent-bridge/pkg/adk/converters"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kagent-bridge",
		Short: "A2A protocol bridge for agent runtimes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}

	bindFlags(cmd.Flags())
	return cmd
}

func bindFlags(flags *pflag.FlagSet) {
	flags.String("host", "0.0.0.0", "listen host")
	flags.Int("port", 8080, "listen port")
	flags.String("app-name", "kagent-app", "application name")
	flags.String("kagent-url", "", "KAgent control plane URL (empty for local session store)")
	flags.Bool("streaming", false, "stream task events as server-sent events")

	viper.AutomaticEnv()
	_ = viper.BindPFlag("host", flags.Lookup("host"))
	_ = viper.BindPFlag("port", flags.Lookup("port"))
	_ = viper.BindPFlag("app_name", flags.Lookup("app-name"))
	_ = viper.BindPFlag("kagent_url", flags.Lookup("kagent-url"))
	_ = viper.BindPFlag("streaming", flags.Lookup("streaming"))
}

func serve(ctx context.Context) error {
	logger := stdr.New(log.New(os.Stderr, "", log.LstdFlags))

	cfg := adk.DefaultConfig()
	cfg.Host = viper.GetString("host")
	cfg.Port = viper.GetInt("port")
	cfg.AppName = viper.GetString("app_name")
	if url := viper.GetString("kagent_url"); url != "" {
		cfg.KAgentURL = url
	}
	cfg.Streaming = cfg.Streaming || viper.GetBool("streaming")

	runnerCfg := &config.RunnerConfig{Runner: &echoRunner{}}

	app, err := adk.NewApp(cfg, runnerCfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	server, err := app.Build(ctx)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving", "addr", server.Addr, "app", cfg.AppName)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return app.Shutdown(shutdownCtx, server)
}

// echoRunner is a stand-in runtime that echoes the first text part back.
type echoRunner struct{}

func (e *echoRunner) Run(ctx context.Context, args *converters.RunArgs) (<-chan *converters.Event, error) {
	events := make(chan *converters.Event, 4)

	go func() {
		defer close(events)

		text := "no message"
		if args.NewMessage != nil {
			for _, part := range args.NewMessage.Parts {
				if data, ok := part.Data.(*converters.TextPartData); ok && part.Type == converters.PartTypeText {
					text = data.Text
					break
				}
			}
		}

		events <- &converters.Event{Type: converters.EventTypeStart, Timestamp: time.Now()}
		events <- &converters.Event{
			Type: converters.EventTypeContent,
			Content: &converters.Content{
				Role: "assistant",
				Parts: []*converters.Part{
					{Type: converters.PartTypeText, Data: &converters.TextPartData{Text: "Echo: " + text}},
				},
			},
			Timestamp: time.Now(),
		}
		events <- &converters.Event{Type: converters.EventTypeComplete, Timestamp: time.Now()}
	}()

	return events, nil
}
