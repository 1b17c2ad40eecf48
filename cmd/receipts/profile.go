package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dvloznov/receipts-web/internal/normalize"
	"github.com/spf13/cobra"
)

func profileCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or change the signed-in user's profile",
	}
	cmd.AddCommand(profileShowCmd(a))
	cmd.AddCommand(profileUpdateCmd(a))
	return cmd
}

func profileShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the profile",
		RunE: func(cmd *cobra.Command, _ []string) error {
			payload, err := a.api.Me(cmd.Context())
			if err != nil {
				return err
			}
			p, ok := normalize.Profile(payload)
			if !ok {
				return errors.New("Profile not available")
			}
			printProfile(cmd.OutOrStdout(), p)
			return nil
		},
	}
}

func profileUpdateCmd(a *app) *cobra.Command {
	var username, email, currency string

	cmd := &cobra.Command{
		Use:     "update",
		Short:   "Change profile fields",
		Example: `  receipts profile update --currency EUR`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			patch := map[string]any{}
			flags := cmd.Flags()
			if flags.Changed("username") {
				patch["username"] = strings.TrimSpace(username)
			}
			if flags.Changed("email") {
				patch["email"] = strings.TrimSpace(email)
			}
			if flags.Changed("currency") {
				patch["currency"] = strings.ToUpper(strings.TrimSpace(currency))
			}
			if len(patch) == 0 {
				return errors.New("nothing to update: pass --username, --email or --currency")
			}

			payload, err := a.api.UpdateMe(cmd.Context(), patch)
			if err != nil {
				return err
			}
			p, ok := normalize.Profile(payload)
			if !ok {
				if payload, err = a.api.Me(cmd.Context()); err != nil {
					return err
				}
				if p, ok = normalize.Profile(payload); !ok {
					return errors.New("Profile not available")
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Profile updated")
			printProfile(cmd.OutOrStdout(), p)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&username, "username", "", "new username")
	f.StringVar(&email, "email", "", "new email")
	f.StringVar(&currency, "currency", "", "preferred currency code")
	return cmd
}

func printProfile(w io.Writer, p normalize.UserProfile) {
	tw := newTable(w)
	fmt.Fprintf(tw, "ID\t%s\n", orDash(p.ID))
	fmt.Fprintf(tw, "Username\t%s\n", orDash(p.Username))
	fmt.Fprintf(tw, "Email\t%s\n", orDash(p.Email))
	fmt.Fprintf(tw, "Currency\t%s\n", orDash(p.Currency))
	if p.Active != nil {
		fmt.Fprintf(tw, "Active\t%t\n", *p.Active)
	}
	fmt.Fprintf(tw, "Member since\t%s\n", orDash(normalize.DisplayDate(p.CreatedAt)))
	tw.Flush()
}
