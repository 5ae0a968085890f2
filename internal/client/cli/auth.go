package cli

import (
	"fmt"

	"github.com/dmitrijs2005/wordbook/internal/client/session"
	"github.com/spf13/cobra"
)

func readCredentials(cmd *cobra.Command, email string) (string, string, error) {
	sio := streams(cmd)
	var err error
	if email == "" {
		if email, err = GetSimpleText(sio.reader, "Email", sio.out); err != nil {
			return "", "", err
		}
	}
	password, err := GetPassword(sio.reader, sio.in, sio.out)
	if err != nil {
		return "", "", err
	}
	return email, password, nil
}

func signUpCommand(s *state) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			email, password, err := readCredentials(cmd, email)
			if err != nil {
				return err
			}
			u, err := s.app.api.SignUp(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Account created for %s. Run `wordbook signin` to start.\n", u.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	return cmd
}

func signInCommand(s *state) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Sign in and remember the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			email, password, err := readCredentials(cmd, email)
			if err != nil {
				return err
			}
			sess, err := s.app.sessions.SignIn(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", sess.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	return cmd
}

func signOutCommand(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "Forget the session and revoke it on the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := s.app.sessions.SignOut(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func whoAmICommand(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, ok := s.app.sessions.Current()
			if !ok || sess.UserID == "" {
				return session.ErrNotSignedIn
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", sess.Email, sess.UserID)
			return nil
		},
	}
}
