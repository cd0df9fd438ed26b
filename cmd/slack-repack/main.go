package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/theimaginaryfoundation/repack-o-bot/repack"
	"github.com/theimaginaryfoundation/repack-o-bot/repack/schema"
)

var (
	cfgFile   string
	verbose   bool
	compact   bool
	schemaOut string

	cfg    Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "slack-repack <input-dir> [output-zip]",
	Short: "Package loose Slack search-export JSON files into a standard export archive",
	Long: `slack-repack converts a directory of loose search-export message files into
the channel and date layout downstream ingestion tools expect: users.json,
channels.json and one search_results/<date>.json per calendar date, bundled
into a single zip. A report.txt reconciling input and output message counts
is written into the input directory.

Inputs are read once and never modified. The archive defaults to
<input-dir>/slack_export.zip.`,
	Args: cobra.RangeArgs(1, 2),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := loadConfig(cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded

		zcfg := zap.NewProductionConfig()
		if cfg.LogLevel != "" {
			lvl, err := zapcore.ParseLevel(cfg.LogLevel)
			if err != nil {
				return fmt.Errorf("invalid log_level %q: %w", cfg.LogLevel, err)
			}
			zcfg.Level = zap.NewAtomicLevelAt(lvl)
		}
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		built, err := zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = built.With(zap.String("run_id", uuid.NewString()))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runConvert,
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Write JSON Schema documents describing the export layout",
	Long: `Writes users.schema.json, channels.schema.json and messages.schema.json so
produced archives can be validated downstream.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		outDir := schemaOut
		if outDir == "" {
			outDir = cfg.SchemaDir
		}
		if outDir == "" {
			outDir = "schemas"
		}
		outDir = filepath.Clean(outDir)

		res, err := schema.WriteExportSchemas(outDir, compactOutput(cmd))
		if err != nil {
			logger.Error("schema generation failed", zap.Error(err))
			return err
		}
		logger.Info("schemas written",
			zap.Int("count", res.SchemasWritten),
			zap.Int("bytes", res.BytesWritten),
			zap.String("dir", outDir))
		fmt.Fprintf(os.Stdout, "schemas_written=%d bytes_written=%d out_dir=%s\n",
			res.SchemasWritten, res.BytesWritten, outDir)
		return nil
	},
}

func runConvert(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	inputDir := filepath.Clean(args[0])
	outPath := cfg.OutputZip
	if len(args) > 1 {
		outPath = args[1]
	}
	if outPath != "" {
		outPath = filepath.Clean(outPath)
	}

	logger.Info("starting conversion",
		zap.String("input_dir", inputDir),
		zap.String("output_zip", outPath))

	res, err := repack.Run(cmd.Context(), repack.Options{
		InputDir:   inputDir,
		OutputPath: outPath,
		Compact:    compactOutput(cmd),
		Logger:     logger,
	})
	if err != nil {
		logger.Error("conversion failed", zap.Error(err))
		return err
	}

	fmt.Fprintf(os.Stdout, "zip=%s report=%s files=%d input_messages=%d output_messages=%d users=%d dates=%d team=%s\n",
		res.ArchivePath, res.ReportPath, res.FilesProcessed, res.InputMessages,
		res.OutputMessages, res.UsersWritten, res.DatesWritten, res.TeamID)
	if !res.CountsMatch() {
		logger.Warn("message count mismatch, check the report for details",
			zap.String("report", res.ReportPath))
	}
	return nil
}

// compactOutput resolves the compact setting: an explicit flag wins over the
// config file.
func compactOutput(cmd *cobra.Command) bool {
	if cmd.Flags().Changed("compact") {
		return compact
	}
	return cfg.Compact
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Optional YAML config file (or set SLACK_REPACK_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&compact, "compact", false, "Emit compact JSON instead of indented")
	schemaCmd.Flags().StringVar(&schemaOut, "out", "", "Directory for schema documents (default \"schemas\")")
	rootCmd.AddCommand(schemaCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
