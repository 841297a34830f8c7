package cli

import (
	"github.com/dalemusser/circlehub/internal/app/store/docstore"
	"github.com/dalemusser/circlehub/internal/app/system/echo"
	"github.com/dalemusser/circlehub/internal/domain/models"
	"github.com/spf13/cobra"
)

// EchoOptions holds flags for the echo command.
type EchoOptions struct {
	*RootOptions
	UserID    string
	UserName  string
	AvatarURL string
}

// NewEchoCommand creates the echo command.
func NewEchoCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EchoOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "echo <source-community> <form-id> <target-community>",
		Short: "Echo a form into another community",
		Long: `Echo a form into another community on behalf of a user.

The echo points at the root of the chain and the root's echo counter is
incremented in the same transaction.

Example:
  circlehubctl echo c1 f1 c2 --user-id u9 --user-name "Ops Bot"`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor := models.Actor{UserID: opts.UserID, Name: opts.UserName, AvatarURL: opts.AvatarURL}
			return withStore(cmd.Context(), opts.RootOptions, func(ds docstore.Store) error {
				res, err := echo.New(ds, opts.log()).Echo(cmd.Context(), args[0], args[1], args[2], actor)
				return report(cmd.OutOrStdout(), opts.Output, res, err)
			})
		},
	}

	cmd.Flags().StringVar(&opts.UserID, "user-id", "", "id of the user the echo is attributed to (required)")
	cmd.Flags().StringVar(&opts.UserName, "user-name", "", "display name of that user (required)")
	cmd.Flags().StringVar(&opts.AvatarURL, "user-avatar", "", "avatar URL of that user")
	_ = cmd.MarkFlagRequired("user-id")
	_ = cmd.MarkFlagRequired("user-name")

	return cmd
}
