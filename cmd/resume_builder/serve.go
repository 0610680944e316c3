package main

import (
	"fmt"

	"github.com/jonathan/resume-builder/internal/server"
	"github.com/spf13/cobra"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web app and JSON API",
	Long:  `Start an HTTP server with the resume form, the preview and PDF download, and the JSON API.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (default from config, 8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := *appConfig
	if cmd.Flags().Changed("port") {
		cfg.Port = servePort
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := cmd.Context()
	client := newTextClient(ctx, &cfg, logger)

	srv := server.New(server.Config{
		Port:                     cfg.Port,
		MaxConcurrentGenerations: cfg.MaxConcurrentGenerations,
		GenerationTimeout:        cfg.GenerationTimeout(),
		Logger:                   logger,
	}, newPipeline(&cfg, client, logger), client)

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}
