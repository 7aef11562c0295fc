package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newProfileCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "profile", Short: "View and update your profile"}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Fetch the current profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.session.CurrentUser(cmd.Context())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(user)
		},
	})

	var name, phone, company string
	update := &cobra.Command{
		Use:   "update",
		Short: "Update profile fields",
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.session.CurrentUser(cmd.Context())
			if err != nil {
				return err
			}
			if name != "" {
				user.FullName = name
			}
			if phone != "" {
				user.Phone = phone
			}
			if company != "" {
				user.Company = company
			}
			updated, err := a.session.UpdateProfile(cmd.Context(), user)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Profile updated for %s\n", updated.Email)
			return nil
		},
	}
	update.Flags().StringVar(&name, "name", "", "Full name")
	update.Flags().StringVar(&phone, "phone", "", "Phone number")
	update.Flags().StringVar(&company, "company", "", "Company name (client accounts)")
	cmd.AddCommand(update)

	return cmd
}
