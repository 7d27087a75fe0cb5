package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/kozaktomas/skinstric/internal/analysis"
	"github.com/kozaktomas/skinstric/internal/config"
	"github.com/kozaktomas/skinstric/internal/demographics"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze FILE...",
	Short: "Send images to the Phase Two service and print demographics",
	Long: `Send one or more image files to the Phase Two analysis service and print
the race, age and gender confidence tables for each, sorted by probability.

Examples:
  skinstric analyze selfie.jpg
  skinstric analyze --json --max-size 1024 a.png b.jpg`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().Bool("json", false, "Output as JSON")
	analyzeCmd.Flags().Int("max-size", -1, "Downscale images to this edge length before upload (default from ANALYSIS_MAX_IMAGE_SIZE)")
}

// fileAnalysis is the per-file outcome of the analyze command.
type fileAnalysis struct {
	File   string                          `json:"file"`
	Result *analysis.Result                `json:"result,omitempty"`
	Tables map[string][]demographics.Score `json:"tables,omitempty"`
	Error  string                          `json:"error,omitempty"`
}

// phaseTwo is the part of the analysis client the command needs.
type phaseTwo interface {
	PostPhaseTwo(ctx context.Context, image string) (*analysis.Result, error)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	logger := newLogger(cmd, cfg.Log.Level, cfg.Log.Format)
	defer logger.Sync() //nolint:errcheck // best effort flush on exit

	if cfg.Analysis.URL == "" {
		return errors.New("ANALYSIS_URL environment variable is required")
	}
	client, err := analysis.NewClient(cfg.Analysis.URL, analysis.WithTimeout(cfg.Analysis.Timeout))
	if err != nil {
		return err
	}

	maxSize := mustGetInt(cmd, "max-size")
	if maxSize < 0 {
		maxSize = cfg.Analysis.MaxImageSize
	}
	jsonOutput := mustGetBool(cmd, "json")

	var bar *progressbar.ProgressBar
	if !jsonOutput && len(args) > 1 {
		bar = progressbar.NewOptions(len(args),
			progressbar.OptionSetWriter(cmd.ErrOrStderr()),
			progressbar.OptionSetDescription("Analyzing"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("images"),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionFullWidth(),
		)
	}

	results := analyzeFiles(cmd.Context(), client, args, maxSize, logger, func() {
		if bar != nil {
			_ = bar.Add(1)
		}
	})
	if bar != nil {
		_ = bar.Finish()
		fmt.Fprintln(cmd.ErrOrStderr())
	}

	if jsonOutput {
		if err := outputJSON(cmd.OutOrStdout(), results); err != nil {
			return err
		}
	} else {
		printAnalyses(cmd.OutOrStdout(), results)
	}

	var failed int
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d images failed", failed, len(results))
	}
	return nil
}

// analyzeFiles sends each file in order; a failing file does not stop the rest.
func analyzeFiles(ctx context.Context, client phaseTwo, files []string, maxSize int, logger *zap.Logger, done func()) []fileAnalysis {
	if ctx == nil {
		ctx = context.Background()
	}
	results := make([]fileAnalysis, 0, len(files))
	for _, file := range files {
		res := fileAnalysis{File: file}
		result, err := analyzeFile(ctx, client, file, maxSize)
		if err != nil {
			logger.Warn("analysis failed", zap.String("file", file), zap.Error(err))
			res.Error = err.Error()
		} else {
			res.Result = result
			res.Tables = map[string][]demographics.Score{
				"race":   demographics.SortScores(result.Data.Race),
				"age":    demographics.SortScores(result.Data.Age),
				"gender": demographics.SortScores(result.Data.Gender),
			}
		}
		results = append(results, res)
		if done != nil {
			done()
		}
	}
	return results
}

func analyzeFile(ctx context.Context, client phaseTwo, file string, maxSize int) (*analysis.Result, error) {
	data, err := os.ReadFile(filepath.Clean(file))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", file, err)
	}
	dataURL, err := analysis.PrepareUpload(data, maxSize)
	if err != nil {
		return nil, err
	}
	return client.PostPhaseTwo(ctx, dataURL)
}

func printAnalyses(w io.Writer, results []fileAnalysis) {
	for i, r := range results {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s\n", r.File)
		if r.Error != "" {
			fmt.Fprintf(w, "  error: %s\n", r.Error)
			continue
		}
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, category := range []string{"race", "age", "gender"} {
			scores := r.Tables[category]
			if len(scores) == 0 {
				continue
			}
			fmt.Fprintf(tw, "  %s\tA.I. CONFIDENCE\n", category)
			for _, s := range scores {
				fmt.Fprintf(tw, "    %s\t%s%%\n", s.Label, s.Pct)
			}
		}
		_ = tw.Flush()
	}
}
