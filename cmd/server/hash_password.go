package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/jrsteele09/storefront-sessions/users"
	"github.com/spf13/cobra"
)

func newHashPasswordCommand() *cobra.Command {
	var skipStrength bool

	cmd := &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print the bcrypt hash stored in a principal's hashed_password field",
		Long:  "Print the bcrypt hash of a password. The password is read from stdin when no argument is given.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var password string
			if len(args) == 1 {
				password = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return errors.New("no password given")
				}
				password = strings.TrimRight(line, "\r\n")
			}

			if !skipStrength {
				if err := users.ValidatePasswordStrength(password); err != nil {
					return err
				}
			}

			hash, err := users.HashPassword(password)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
	cmd.Flags().BoolVar(&skipStrength, "skip-strength-check", false, "hash passwords that fail the strength rules")
	return cmd
}
