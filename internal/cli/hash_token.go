package cli

import (
	"bufio"
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ganot/verdant/internal/api"
)

type hashResult struct {
	Hash string `json:"hash"`
}

// NewHashTokenCommand creates the hash-token command. The token is read from
// the argument, or from the first line of stdin when no argument is given.
func NewHashTokenCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "hash-token [token]",
		Short:        "Print the bcrypt hash of an admin token for auth.token_hash",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var token string
			if len(args) == 1 {
				token = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return WrapExitError(ExitCommandError, "reading token from stdin", err)
				}
				token = strings.TrimRight(line, "\r\n")
			}
			if token == "" {
				return WrapExitError(ExitCommandError, "empty token", errors.New("token is required"))
			}
			hash, err := api.HashToken(token)
			if err != nil {
				return WrapExitError(ExitFailure, "hashing token", err)
			}
			return rootOpts.formatter(cmd).Success(hashResult{Hash: hash}, hash)
		},
	}
}
