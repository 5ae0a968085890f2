package cli

import (
	"bufio"
	"context"
	"time"

	"github.com/dmitrijs2005/wordbook/internal/client/config"
	"github.com/spf13/cobra"
)

type rootFlags struct {
	configPath string
	serverURL  string
	sessionDB  string
	timeout    time.Duration
}

type opener func(ctx context.Context, c *config.Config) (*App, error)

// state carries the App from PersistentPreRunE to the commands.
type state struct {
	app *App
}

func streams(cmd *cobra.Command) cmdIO {
	in := cmd.InOrStdin()
	return cmdIO{in: in, reader: bufio.NewReader(in), out: cmd.OutOrStdout()}
}

// NewRootCommand builds the wordbook command tree.
func NewRootCommand() *cobra.Command {
	return newRootCommand(NewApp)
}

func newRootCommand(open opener) *cobra.Command {
	var (
		flags rootFlags
		s     state
	)

	root := &cobra.Command{
		Use:          "wordbook",
		Short:        "Personal English vocabulary",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig(flags.configPath)
			if err != nil {
				return err
			}
			pf := cmd.Flags()
			if pf.Changed("server") {
				cfg.ServerURL = flags.serverURL
			}
			if pf.Changed("session-db") {
				cfg.SessionDB = flags.sessionDB
			}
			if pf.Changed("timeout") {
				cfg.Timeout = flags.timeout
			}
			app, err := open(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			s.app = app
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if s.app == nil {
				return nil
			}
			return s.app.Close()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "path to a JSON config file")
	pf.StringVar(&flags.serverURL, "server", "", "base URL of the Wordbook API")
	pf.StringVar(&flags.sessionDB, "session-db", "", "path of the local session database")
	pf.DurationVar(&flags.timeout, "timeout", 0, "per-request timeout")

	root.AddCommand(
		signUpCommand(&s),
		signInCommand(&s),
		signOutCommand(&s),
		whoAmICommand(&s),
		listCommand(&s),
		showCommand(&s),
		addCommand(&s),
		editCommand(&s),
		deleteCommand(&s),
		mediaCommand(&s),
	)
	return root
}
