package main

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/segment-research/internal/export"
	"github.com/sells-group/segment-research/internal/input"
	"github.com/sells-group/segment-research/internal/model"
	"github.com/sells-group/segment-research/internal/pipeline"
)

// runFlags are shared by the run and score commands.
type runFlags struct {
	url        string
	productFit string
	landscape  string
	out        string
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.url, "url", "", "company website URL (required)")
	cmd.Flags().StringVar(&f.productFit, "product-fit", "", "product fit JSON file (required)")
	cmd.Flags().StringVar(&f.landscape, "landscape", "", "data landscape JSON file")
	cmd.Flags().StringVar(&f.out, "out", "", "write the result to a .json or .xlsx file instead of stdout")
	_ = cmd.MarkFlagRequired("url")
	_ = cmd.MarkFlagRequired("product-fit")
}

var runOpts runFlags

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline for a single company",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("run"); err != nil {
			return err
		}
		return executeRun(cmd, runOpts, false)
	},
}

func executeRun(cmd *cobra.Command, f runFlags, skipSynthesis bool) error {
	ctx := cmd.Context()

	pf, err := input.LoadProductFit(f.productFit)
	if err != nil {
		return err
	}
	landscape, err := input.LoadLandscape(f.landscape)
	if err != nil {
		return err
	}

	env, err := initPipeline(ctx, cfg)
	if err != nil {
		return err
	}
	defer env.Close()

	result, err := env.Pipeline.Run(ctx, pipeline.Input{
		URL:           f.url,
		ProductFit:    pf,
		Landscape:     landscape,
		SkipSynthesis: skipSynthesis,
	})
	if err != nil {
		return eris.Wrap(err, "pipeline run")
	}

	zap.L().Info("run complete",
		zap.String("run_id", result.RunID),
		zap.String("company", result.Company.Name),
		zap.Int("qualified", len(result.Qualified)),
		zap.Int("segments", len(result.Segments)),
		zap.Float64("total_cost_usd", result.TotalCost),
	)

	return writeResult(cmd.OutOrStdout(), result, f.out)
}

// writeResult encodes result as indented JSON to w, or to path when set.
// A .xlsx path produces a workbook.
func writeResult(w io.Writer, result *model.RunResult, path string) error {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return export.WriteXLSX(result, path)
	}
	if path != "" {
		fh, err := os.Create(path)
		if err != nil {
			return eris.Wrap(err, "create output file")
		}
		defer fh.Close() //nolint:errcheck
		w = fh
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func init() {
	runOpts.register(runCmd)
	rootCmd.AddCommand(runCmd)
}
