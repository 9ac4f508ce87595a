package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/hupe1980/vemos"
)

const version = "v0.1.0"

type globalOptions struct {
	logLevel    string
	logJSON     bool
	ddbTable    string
	concurrency int
}

func newRootCmd() *cobra.Command {
	g := &globalOptions{}
	cmd := &cobra.Command{
		Use:     "vemosctl",
		Short:   "Load score matrices and manage dataset snapshots",
		Version: version,
		Long: `vemosctl ingests pairwise score files (dense grids, pair lists and
multi-metric tables) into a dataset and stores it as versioned snapshots.

Stores are addressed by URI:
  ./dir or file:///dir          local directory
  s3://bucket/prefix            Amazon S3 (default AWS credential chain)
  minio://host:port/bucket/pfx  MinIO (MINIO_ACCESS_KEY, MINIO_SECRET_KEY)`,
		SilenceUsage: true,
	}

	f := cmd.PersistentFlags()
	f.StringVar(&g.logLevel, "log-level", "warn", "Log level (debug|info|warn|error)")
	f.BoolVar(&g.logJSON, "log-json", false, "Write logs as JSON")
	f.StringVar(&g.ddbTable, "ddb-table", "", "DynamoDB table committing CURRENT for s3:// stores")
	f.IntVar(&g.concurrency, "concurrency", 0, "Parallel file loads (0 uses GOMAXPROCS)")

	cmd.AddCommand(
		newDetectCmd(),
		newLoadCmd(g),
		newSnapshotCmd(g),
		newLookupCmd(g),
	)
	return cmd
}

func (g *globalOptions) logger(w io.Writer) (*vemos.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(g.logLevel)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q", g.logLevel)
	}
	opts := &slog.HandlerOptions{Level: level}
	if g.logJSON {
		return vemos.NewLogger(slog.NewJSONHandler(w, opts)), nil
	}
	return vemos.NewLogger(slog.NewTextHandler(w, opts)), nil
}

// datasetOptions returns the options shared by all commands. They are
// appended after config derived options and take precedence.
func (g *globalOptions) datasetOptions(cmd *cobra.Command) ([]vemos.Option, error) {
	logger, err := g.logger(cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	opts := []vemos.Option{vemos.WithLogger(logger)}
	if g.concurrency > 0 {
		opts = append(opts, vemos.WithConcurrency(g.concurrency))
	}
	return opts, nil
}
