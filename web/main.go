package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/df07/go-swept-surface/pkg/config"
	"github.com/df07/go-swept-surface/web/server"
	"github.com/spf13/cobra"
)

func main() {
	var configFile, modelFile string
	var port int
	var watch, verbose bool

	cmd := &cobra.Command{
		Use:          "sweep-web",
		Short:        "Serve a swept surface model to interactive viewers",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			if modelFile == "" {
				modelFile = cfg.Server.Model
			}

			webServer := server.NewServer(cfg.Server.Port, cfg, logger)
			if modelFile != "" {
				if err := webServer.LoadModel(modelFile); err != nil {
					return err
				}
				if watch {
					ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
					defer stop()
					go func() {
						if err := webServer.Watch(ctx); err != nil {
							logger.Error("watch stopped", "error", err)
						}
					}()
				}
			} else {
				logger.Warn("no model loaded; PUT /api/model to provide one")
			}

			return webServer.Start()
		},
	}

	cmd.Flags().StringVar(&configFile, "config", "", "TOML config file (default "+config.DefaultFile+" if present)")
	cmd.Flags().StringVar(&modelFile, "model", "", "Model file to serve (default from config)")
	cmd.Flags().IntVar(&port, "port", 8080, "Port to serve on")
	cmd.Flags().BoolVar(&watch, "watch", true, "Reload the model when its file changes")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
