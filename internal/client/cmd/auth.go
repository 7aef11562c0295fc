package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/willr196/vergo-db-sub002/internal/client/session"
	"github.com/willr196/vergo-db-sub002/internal/shared/models"
)

func newAuthCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "auth", Short: "Authentication commands"}

	var loginType string
	login := &cobra.Command{
		Use:   "login",
		Short: "Login and store session",
		RunE: func(cmd *cobra.Command, args []string) error {
			ut, err := parseUserType(loginType)
			if err != nil {
				return err
			}
			email := promptLine(cmd, "Email: ")
			password, err := promptPassword(cmd, "Password: ")
			if err != nil {
				return err
			}
			sess, err := a.session.Login(cmd.Context(), ut, email, string(password))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", sess.User.Email, sess.UserType)
			offerBiometrics(cmd, a)
			return nil
		},
	}
	login.Flags().StringVar(&loginType, "type", "jobseeker", "Account type: jobseeker or client")
	cmd.AddCommand(login)

	var regType string
	register := &cobra.Command{
		Use:   "register",
		Short: "Register a new account",
		RunE: func(cmd *cobra.Command, args []string) error {
			ut, err := parseUserType(regType)
			if err != nil {
				return err
			}
			req := session.RegisterRequest{
				Email:    promptLine(cmd, "Email: "),
				FullName: promptLine(cmd, "Full name: "),
				Phone:    promptLine(cmd, "Phone: "),
			}
			if ut == models.UserTypeClient {
				req.Company = promptLine(cmd, "Company: ")
			}
			password, err := promptPassword(cmd, "Password: ")
			if err != nil {
				return err
			}
			req.Password = string(password)

			var result session.RegisterResult
			if ut == models.UserTypeClient {
				result, err = a.session.RegisterClient(cmd.Context(), req)
			} else {
				result, err = a.session.RegisterJobSeeker(cmd.Context(), req)
			}
			if err != nil {
				return err
			}
			if result.Pending {
				fmt.Fprintln(cmd.OutOrStdout(), "Registered. Check your email to verify the account, then login.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered and logged in as %s\n", result.Session.User.Email)
			return nil
		},
	}
	register.Flags().StringVar(&regType, "type", "jobseeker", "Account type: jobseeker or client")
	cmd.AddCommand(register)

	cmd.AddCommand(&cobra.Command{
		Use:   "logout",
		Short: "Logout and wipe local session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.session.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "whoami",
		Short: "Show the restored session, if any",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.session.Restore(cmd.Context())
			if err != nil {
				return err
			}
			if !res.Authenticated {
				fmt.Fprintln(cmd.OutOrStdout(), "Not logged in")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", res.User.Email, res.UserType)
			return nil
		},
	})

	biometrics := &cobra.Command{Use: "biometrics", Short: "Manage the restore-time lock"}
	biometrics.AddCommand(&cobra.Command{
		Use:   "enable",
		Short: "Require local confirmation on session restore",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.session.EnableBiometrics()
		},
	})
	biometrics.AddCommand(&cobra.Command{
		Use:   "disable",
		Short: "Drop the restore-time lock",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.session.DisableBiometrics()
		},
	})
	cmd.AddCommand(biometrics)

	return cmd
}

// offerBiometrics shows the one-time opt-in prompt after a fresh login.
func offerBiometrics(cmd *cobra.Command, a *app) {
	if a.session.BiometricsAsked() {
		return
	}
	_ = a.session.MarkBiometricsAsked()
	answer := promptLine(cmd, "Lock session restore behind a local check? [y/N]: ")
	if strings.EqualFold(answer, "y") || strings.EqualFold(answer, "yes") {
		if err := a.session.EnableBiometrics(); err == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Restore lock enabled")
		}
	}
}

func parseUserType(s string) (models.UserType, error) {
	ut := models.UserType(strings.ToLower(strings.TrimSpace(s)))
	if !ut.Valid() {
		return "", fmt.Errorf("unknown account type %q (want jobseeker or client)", s)
	}
	return ut, nil
}

func promptLine(cmd *cobra.Command, prompt string) string {
	fmt.Fprint(cmd.OutOrStdout(), prompt)
	line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	return strings.TrimSpace(line)
}

func promptPassword(cmd *cobra.Command, prompt string) ([]byte, error) {
	fmt.Fprint(cmd.OutOrStdout(), prompt)
	pass, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(cmd.OutOrStdout())
	return pass, err
}
