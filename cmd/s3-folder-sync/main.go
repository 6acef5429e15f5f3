package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/dustin/go-humanize"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/yuya-takeyama/s3-folder-sync/pkg/comparator"
	"github.com/yuya-takeyama/s3-folder-sync/pkg/logger"
	"github.com/yuya-takeyama/s3-folder-sync/pkg/s3client"
	"github.com/yuya-takeyama/s3-folder-sync/pkg/syncer"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
	builtBy = "unknown"
)

type options struct {
	dryRun         bool
	deleteFlag     bool
	noDelete       bool
	excludes       []string
	quiet          bool
	verbose        bool
	concurrency    int
	compare        string
	profile        string
	region         string
	endpointURL    string
	configFile     string
	planJSONFile   string
	resultJSONFile string
}

func main() {
	var opts options

	rootCmd := &cobra.Command{
		Use:   "s3-folder-sync <LocalPath> <S3Uri>",
		Short: "Mirror a local directory into an S3 prefix",
		Long: `s3-folder-sync uploads new files, re-uploads changed files and removes
objects that no longer exist locally, so that the S3 prefix mirrors the
local directory.`,
		Version:       fmt.Sprintf("%s (commit: %s, built at: %s by %s)", version, commit, date, builtBy),
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cmd, args, &opts)
		},
	}

	rootCmd.Flags().BoolVar(&opts.dryRun, "dryrun", false, "Shows operations without executing")
	rootCmd.Flags().BoolVar(&opts.deleteFlag, "delete", true, "Delete dest files not in source")
	rootCmd.Flags().BoolVar(&opts.noDelete, "no-delete", false, "Keep dest files not in source")
	rootCmd.Flags().StringSliceVar(&opts.excludes, "exclude", nil, "Exclude patterns (multiple allowed)")
	rootCmd.Flags().BoolVar(&opts.quiet, "quiet", false, "Suppress non-error output")
	rootCmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log skipped files and debug details")
	rootCmd.Flags().IntVar(&opts.concurrency, "concurrency", 32, "Number of concurrent operations")
	rootCmd.Flags().StringVar(&opts.compare, "compare", "checksum", "How existing objects are compared: checksum, size or skip")
	rootCmd.Flags().StringVar(&opts.profile, "profile", "", "AWS profile to use")
	rootCmd.Flags().StringVar(&opts.region, "region", "", "AWS region (uses default if not specified)")
	rootCmd.Flags().StringVar(&opts.endpointURL, "endpoint-url", "", "Custom endpoint for S3-compatible stores")
	rootCmd.Flags().StringVar(&opts.configFile, "config", "", "Path to a TOML config file")
	rootCmd.Flags().StringVar(&opts.planJSONFile, "plan-json-file", "", "Path to output plan as JSON file")
	rootCmd.Flags().StringVar(&opts.resultJSONFile, "result-json-file", "", "Path to output result as JSON file")
	rootCmd.MarkFlagsMutuallyExclusive("delete", "no-delete")
	rootCmd.MarkFlagsMutuallyExclusive("quiet", "verbose")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cobra.Command, args []string, opts *options) error {
	localPath := args[0]
	bucket, prefix, err := s3client.ParseS3URI(args[1])
	if err != nil {
		return err
	}

	cfg, err := loadConfig(opts.configFile)
	if err != nil {
		return err
	}
	cfg.applyFlags(opts, cmd.Flags().Changed)

	policy, err := comparator.ParsePolicy(cfg.Compare)
	if err != nil {
		return err
	}

	localDir, err := filepath.Abs(localPath)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", localPath, err)
	}

	slogger := newSlogger(os.Stderr, isatty.IsTerminal(os.Stderr.Fd()), opts.verbose)

	var configOpts []func(*config.LoadOptions) error
	if cfg.Profile != "" {
		configOpts = append(configOpts, config.WithSharedConfigProfile(cfg.Profile))
	}
	if cfg.Region != "" {
		configOpts = append(configOpts, config.WithRegion(cfg.Region))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3client.NewAWSClient(awsCfg, s3client.AWSOptions{Endpoint: cfg.EndpointURL})
	fsys := osfs.New("/")

	cmp, err := comparator.New(policy, fsys, client)
	if err != nil {
		return err
	}

	syncLogger := &logger.SyncLogger{
		Slog:     slogger,
		IsDryRun: opts.dryRun,
		IsQuiet:  cfg.Quiet,
	}

	s := syncer.New(client,
		syncer.WithFilesystem(fsys),
		syncer.WithComparator(cmp),
		syncer.WithLogger(syncLogger),
		syncer.WithConcurrency(cfg.Concurrency),
	)

	req := syncer.NewRequest(localDir, bucket, prefix)
	req.AllowDeletes = cfg.Delete
	req.DryRun = opts.dryRun
	req.Excludes = cfg.Excludes

	plan, err := s.Plan(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to generate plan: %w", err)
	}

	if opts.planJSONFile != "" {
		if err := writeJSON(opts.planJSONFile, newPlanResult(bucket, prefix, req.AllowDeletes, plan)); err != nil {
			return fmt.Errorf("failed to write plan JSON: %w", err)
		}
	}

	start := time.Now()
	resp, err := s.Apply(ctx, req, plan)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	if opts.resultJSONFile != "" {
		if err := writeJSON(opts.resultJSONFile, newSyncResult(resp, opts.dryRun)); err != nil {
			return fmt.Errorf("failed to write result JSON: %w", err)
		}
	}

	if !cfg.Quiet {
		slogger.Info("sync complete",
			slog.Int("created", len(resp.AddedKeys)),
			slog.Int("updated", len(resp.ModifiedKeys)),
			slog.Int("deleted", len(resp.DeletedKeys)),
			slog.Int("skipped", len(resp.SkippedKeys)),
			slog.String("uploaded", humanize.Bytes(uint64(resp.BytesUploaded))),
			slog.Duration("elapsed", time.Since(start).Round(time.Millisecond)))
	}

	return nil
}

func newSlogger(w io.Writer, color, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
		NoColor:    !color,
	}))
}
