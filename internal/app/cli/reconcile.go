package cli

import (
	"github.com/dalemusser/circlehub/internal/app/store/docstore"
	"github.com/dalemusser/circlehub/internal/app/system/reconcile"
	"github.com/spf13/cobra"
)

// ReconcileOptions holds flags for the reconcile command.
type ReconcileOptions struct {
	*RootOptions
	UserID    string
	BatchSize int
}

// NewReconcileCommand creates the reconcile command.
func NewReconcileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReconcileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Repair member copies that drifted from their profiles",
		Long: `Repair member copies that drifted from their profiles.

Without --user every community is scanned. With --user only that user's
copies are refreshed, as after a profile edit.

Example:
  circlehubctl reconcile --user u123 -o yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), opts.RootOptions, func(ds docstore.Store) error {
				engine := reconcile.New(ds, opts.log(), reconcile.Config{BatchSize: opts.BatchSize})
				var (
					res reconcile.Result
					err error
				)
				if opts.UserID != "" {
					res, err = engine.ReconcileUser(cmd.Context(), opts.UserID)
				} else {
					res, err = engine.ReconcileAll(cmd.Context())
				}
				return report(cmd.OutOrStdout(), opts.Output, res, err)
			})
		},
	}

	cmd.Flags().StringVar(&opts.UserID, "user", "", "only reconcile this user's member copies")
	cmd.Flags().IntVar(&opts.BatchSize, "batch-size", reconcile.DefaultBatchSize, "communities committed per transaction")

	return cmd
}
