package cli

import (
	"errors"
	"fmt"
	"slices"

	"github.com/anonto42/warbler/pkg/liketoggle"
	"github.com/spf13/cobra"
)

// commandEvent stands in for the click that a browser would deliver.
type commandEvent struct{}

func (commandEvent) PreventDefault() {}

// errNoToken is returned before any request when no bearer token is set.
var errNoToken = errors.New("not logged in: pass --token or set " + TokenEnv + " (see warbler login)")

// NewLikeCommand creates the like command. It always authenticates with a
// bearer token, which the server exempts from the CSRF check.
func NewLikeCommand(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "like <message-id>",
		Short: "Toggle your like on a warble",
		Long: `Toggle the like of the logged in user on a warble and print the new state.

Examples:
  warbler like 65f1c2a9e4b0a1b2c3d4e5f6 --token $WARBLER_TOKEN
  WARBLER_TOKEN=$(warbler login -u alice -p secret) warbler like 65f1c2a9e4b0a1b2c3d4e5f6`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if global.token == "" {
				return errNoToken
			}
			ctl := liketoggle.NewControl(global.client(), "", nil)
			form := liketoggle.LikeForm{DataMessageID: args[0]}
			if err := ctl.Handle(cmd.Context(), commandEvent{}, form); err != nil {
				return fmt.Errorf("like %s: %w", args[0], err)
			}

			state := "unfavorited"
			if slices.Contains(ctl.IconClasses(), liketoggle.ClassStarFill) {
				state = "favorited"
			}
			fmt.Fprintln(cmd.OutOrStdout(), state)
			return nil
		},
	}
}
