// Package cli implements circlehubctl, the operator command line for the
// sync engines.
package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/dalemusser/circlehub/internal/app/store/docstore"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Output         string // "json" | "yaml"
	Backend        string // "mongo" | "memory"
	MongoURI       string
	MongoDatabase  string
	TxnMaxAttempts int
	Verbose        bool

	// Open connects to the store; close releases it. Tests replace it.
	Open func(ctx context.Context, opts *RootOptions, logger *zap.Logger) (ds docstore.Store, close func(), err error)

	logger *zap.Logger
}

// ValidOutputs defines the allowed output formats.
var ValidOutputs = []string{"json", "yaml"}

// NewRootCommand creates the root command. A nil opts uses defaults read
// from CIRCLEHUB_* environment variables.
func NewRootCommand(opts *RootOptions) *cobra.Command {
	if opts == nil {
		opts = &RootOptions{}
	}
	if opts.Open == nil {
		opts.Open = openStore
	}

	cmd := &cobra.Command{
		Use:   "circlehubctl",
		Short: "Operate CircleHub's sync engines",
		Long:  "Run member reconciliation, card moves and echoes directly against the document store.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidOutput(opts.Output) {
				return WrapExitError(ExitCommandError, "bad flags",
					fmt.Errorf("invalid output %q: must be one of %v", opts.Output, ValidOutputs))
			}
			logger, err := newLogger(opts.Verbose)
			if err != nil {
				return err
			}
			opts.logger = logger
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.Output, "output", "o", "json", "output format (json|yaml)")
	pf.StringVar(&opts.Backend, "store", envOr("CIRCLEHUB_STORE_BACKEND", "mongo"), "document store (mongo|memory)")
	pf.StringVar(&opts.MongoURI, "mongo-uri", envOr("CIRCLEHUB_MONGO_URI", "mongodb://localhost:27017"), "MongoDB connection URI")
	pf.StringVar(&opts.MongoDatabase, "mongo-database", envOr("CIRCLEHUB_MONGO_DATABASE", "circlehub"), "MongoDB database name")
	pf.IntVar(&opts.TxnMaxAttempts, "txn-max-attempts", envInt("CIRCLEHUB_TXN_MAX_ATTEMPTS", 5), "transaction attempts before a conflict is reported")
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "log engine activity to stderr")

	cmd.AddCommand(NewReconcileCommand(opts))
	cmd.AddCommand(NewMoveCardCommand(opts))
	cmd.AddCommand(NewEchoCommand(opts))

	return cmd
}

// withStore opens the store, runs fn and closes the store again.
func withStore(ctx context.Context, opts *RootOptions, fn func(ds docstore.Store) error) error {
	ds, closeFn, err := opts.Open(ctx, opts, opts.log())
	if err != nil {
		return WrapExitError(ExitCommandError, "open store", err)
	}
	defer closeFn()
	return fn(ds)
}

func (o *RootOptions) log() *zap.Logger {
	if o.logger == nil {
		return zap.NewNop()
	}
	return o.logger
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if !verbose {
		return zap.NewNop(), nil
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

func isValidOutput(format string) bool {
	for _, f := range ValidOutputs {
		if f == format {
			return true
		}
	}
	return false
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return def
}
