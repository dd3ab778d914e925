package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/adamancini/ota/internal/update"
)

// AuthResult is the output of ota auth.
type AuthResult struct {
	Token  string `json:"token" yaml:"token"`
	Header string `json:"header,omitempty" yaml:"header,omitempty"`
}

func (a AuthResult) WriteText(w io.Writer) error {
	_, err := fmt.Fprintln(w, a.Token)
	return err
}

func newAuthCmd() *cobra.Command {
	var user, password string

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Print the basic auth token for a user and password",
		Long: `Auth prints the base64 token sent as "Authorization: Basic <token>".

Set both --user and --password, or neither for an empty token.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := newWriter(cmd)
			if err != nil {
				return err
			}
			token, err := update.BuildAuth(user, password)
			if err != nil {
				return err
			}
			result := AuthResult{Token: token}
			if token != "" {
				result.Header = "Basic " + token
			}
			return w.Write(result)
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "User name")
	cmd.Flags().StringVar(&password, "password", "", "Password")

	return cmd
}
