package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/jonathan/resume-builder/internal/ingestion"
	"github.com/jonathan/resume-builder/internal/observability"
	"github.com/jonathan/resume-builder/internal/scoring"
	"github.com/spf13/cobra"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score existing bullets against a job description",
	Long: `Compute the TF-IDF keyword match score (0-100) between resume bullets and a job
description, and list the job keywords the bullets cover and miss.`,
	RunE: runScore,
}

var (
	scoreBulletsPath string
	scoreJobPath     string
	scoreTopN        int
	scoreJSON        bool
)

func init() {
	scoreCmd.Flags().StringVarP(&scoreBulletsPath, "bullets", "b", "", "Path to bullets file, one bullet per line")
	scoreCmd.Flags().StringVarP(&scoreJobPath, "job", "j", "", "Path to job description text or HTML file")
	scoreCmd.Flags().IntVar(&scoreTopN, "keywords", scoring.DefaultKeywordCount, "Number of job keywords to report")
	scoreCmd.Flags().BoolVar(&scoreJSON, "json", false, "Print the result as JSON")

	_ = scoreCmd.MarkFlagRequired("bullets")
	_ = scoreCmd.MarkFlagRequired("job")
	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, _ []string) error {
	bullets, err := readBullets(scoreBulletsPath)
	if err != nil {
		return err
	}
	job, err := ingestion.ReadFile(scoreJobPath)
	if err != nil {
		return fmt.Errorf("failed to read job description: %w", err)
	}

	result := scoring.Analyze(bullets, job, scoreTopN)

	if scoreJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintScore(result)
	return nil
}

// readBullets reads one bullet per line, dropping blank lines and list markers.
func readBullets(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read bullets: %w", err)
	}

	var bullets []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimSpace(strings.TrimLeft(line, "-*•"))
		if line != "" {
			bullets = append(bullets, line)
		}
	}
	return bullets, nil
}
