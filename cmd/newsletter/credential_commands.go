package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/nhle/newsletter-manager/internal/credential"
)

var credentialKeys = []string{credential.MailboxPassword}

func newCredentialCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "credential",
		Short:       "Manage secrets in the system keyring",
		Annotations: map[string]string{"skipConfigLoad": "true"},
	}

	var value string
	setCmd := &cobra.Command{
		Use:       "set <key>",
		Short:     "Store a secret",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: credentialKeys,
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := value
			if secret == "" {
				form := huh.NewForm(
					huh.NewGroup(
						huh.NewInput().
							Title(args[0]).
							EchoMode(huh.EchoModePassword).
							Value(&secret),
					),
				).WithInput(cmd.InOrStdin()).WithOutput(cmd.OutOrStdout())
				if err := form.Run(); err != nil {
					return fmt.Errorf("reading %s: %w", args[0], err)
				}
			}
			if strings.TrimSpace(secret) == "" {
				return errors.New("refusing to store an empty secret")
			}
			if err := credential.Set(args[0], secret); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stored %s in the keyring\n", args[0])
			return nil
		},
	}
	setCmd.Flags().StringVar(&value, "value", "", "Secret value (prompted when omitted)")

	cmd.AddCommand(setCmd)
	cmd.AddCommand(&cobra.Command{
		Use:       "delete <key>",
		Short:     "Remove a secret",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: credentialKeys,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := credential.Delete(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from the keyring\n", args[0])
			return nil
		},
	})
	return cmd
}
