package cli

import (
	"github.com/dalemusser/circlehub/internal/app/store/docstore"
	"github.com/dalemusser/circlehub/internal/app/system/cardmove"
	"github.com/spf13/cobra"
)

// NewMoveCardCommand creates the move-card command.
func NewMoveCardCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "move-card <source-column> <target-column> <card-id>",
		Short: "Move a card between kanban columns",
		Long: `Move a card between kanban columns in one transaction.

A card that is no longer in the source column is reported as
{"moved": false} and nothing is written.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), rootOpts, func(ds docstore.Store) error {
				res, err := cardmove.New(ds, rootOpts.log()).MoveCard(cmd.Context(), args[0], args[1], args[2])
				return report(cmd.OutOrStdout(), rootOpts.Output, res, err)
			})
		},
	}
}
