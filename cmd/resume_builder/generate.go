package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/jonathan/resume-builder/internal/ingestion"
	"github.com/jonathan/resume-builder/internal/observability"
	"github.com/jonathan/resume-builder/internal/pipeline"
	"github.com/jonathan/resume-builder/internal/rendering"
	"github.com/jonathan/resume-builder/internal/schemas"
	"github.com/jonathan/resume-builder/internal/types"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate resume bullets for a profile",
	Long: `Generate achievement-focused resume bullets for a profile and target role.

The profile can be loaded from a JSON file using --profile (same fields as the
/api/generate request). Individual flags override the file values. With --job or
--job-url the bullets are scored against the job description.`,
	RunE: runGenerate,
}

var (
	genProfilePath  string
	genName         string
	genEmail        string
	genSummary      string
	genEducation    string
	genSkills       string
	genProjectTitle string
	genProjectDesc  string
	genRole         string
	genJob          string
	genJobURL       string
	genPDF          string
	genJSON         bool
	genVerbose      bool
)

func init() {
	generateCmd.Flags().StringVarP(&genProfilePath, "profile", "p", "", "Path to profile JSON file")
	generateCmd.Flags().StringVarP(&genName, "name", "n", "", "Candidate name")
	generateCmd.Flags().StringVar(&genEmail, "email", "", "Candidate email")
	generateCmd.Flags().StringVar(&genSummary, "summary", "", "Brief summary or objective")
	generateCmd.Flags().StringVar(&genEducation, "education", "", "Education, one entry per line")
	generateCmd.Flags().StringVar(&genSkills, "skills", "", "Comma-separated skills")
	generateCmd.Flags().StringVar(&genProjectTitle, "project-title", "", "Sample project title")
	generateCmd.Flags().StringVar(&genProjectDesc, "project-description", "", "Sample project description")
	generateCmd.Flags().StringVarP(&genRole, "role", "r", "", "Target role (default \"General\")")
	generateCmd.Flags().StringVarP(&genJob, "job", "j", "", "Path to job description text or HTML file")
	generateCmd.Flags().StringVar(&genJobURL, "job-url", "", "URL to fetch the job description from")
	generateCmd.Flags().StringVar(&genPDF, "pdf", "", "Write the resume PDF to this path")
	generateCmd.Flags().BoolVar(&genJSON, "json", false, "Print the result as JSON")
	generateCmd.Flags().BoolVarP(&genVerbose, "verbose", "v", false, "Print progress and the profile")

	generateCmd.MarkFlagsMutuallyExclusive("job", "job-url")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	sub, err := loadSubmission(cmd)
	if err != nil {
		return err
	}
	if err := sub.Validate(); err != nil {
		return fmt.Errorf("invalid profile: %v", types.ValidationMessages(err))
	}

	client := newTextClient(ctx, appConfig, logger)
	if client != nil {
		defer func() {
			if err := client.Close(); err != nil {
				logger.Warn("failed to close text generation client", slog.Any("error", err))
			}
		}()
	}

	var onProgress pipeline.ProgressCallback
	if genVerbose && !genJSON {
		onProgress = func(event pipeline.ProgressEvent) {
			_, _ = fmt.Fprintf(os.Stderr, "[%s] %s\n", event.Category, event.Message)
		}
	}

	if timeout := appConfig.GenerationTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	result := newPipeline(appConfig, client, logger).Run(ctx, sub, onProgress)

	if genPDF != "" {
		data, err := rendering.RenderPDF(result.Document())
		if err != nil {
			return fmt.Errorf("failed to render PDF: %w", err)
		}
		if err := os.WriteFile(genPDF, data, 0644); err != nil {
			return fmt.Errorf("failed to write PDF: %w", err)
		}
		logger.Info("wrote PDF", slog.String("path", genPDF), slog.Int("bytes", len(data)))
	}

	if genJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	printer := observability.NewPrinter(cmd.OutOrStdout())
	if genVerbose {
		printer.PrintProfile(result.Profile, result.Role)
	}
	printer.PrintBullets(result.GenerationResult)
	if !result.Posting.Empty() || result.HasScore() {
		printer.PrintScore(result.ScoreResult)
	}
	return nil
}

// loadSubmission merges the profile file with flags; flags win when set.
func loadSubmission(cmd *cobra.Command) (types.Submission, error) {
	var sub types.Submission
	if genProfilePath != "" {
		data, err := os.ReadFile(genProfilePath)
		if err != nil {
			return sub, fmt.Errorf("failed to read profile: %w", err)
		}
		if err := schemas.Validate(schemas.GenerateRequest, data); err != nil {
			return sub, fmt.Errorf("invalid profile %s: %w", genProfilePath, err)
		}
		if err := json.Unmarshal(data, &sub); err != nil {
			return sub, fmt.Errorf("failed to parse profile: %w", err)
		}
	}

	flags := cmd.Flags()
	overrides := []struct {
		flag  string
		value string
		dst   *string
	}{
		{"name", genName, &sub.Name},
		{"email", genEmail, &sub.Email},
		{"summary", genSummary, &sub.Summary},
		{"education", genEducation, &sub.Education},
		{"skills", genSkills, &sub.Skills},
		{"project-title", genProjectTitle, &sub.ProjectTitle},
		{"project-description", genProjectDesc, &sub.ProjectDescription},
		{"role", genRole, &sub.TargetRole},
		{"job-url", genJobURL, &sub.JobURL},
	}
	for _, o := range overrides {
		if flags.Changed(o.flag) {
			*o.dst = o.value
		}
	}

	if genJob != "" {
		text, err := ingestion.ReadFile(genJob)
		if err != nil {
			return sub, fmt.Errorf("failed to read job description: %w", err)
		}
		sub.JobDescription = text
		sub.JobURL = ""
	}
	return sub, nil
}
