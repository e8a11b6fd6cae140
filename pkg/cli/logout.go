package cli

import (
	"context"
	"flag"
)

func newLogoutCommand() *Command {
	return &Command{
		Name:        "logout",
		Description: "End the current session",
		Flags:       flag.NewFlagSet("logout", flag.ExitOnError),
		Run:         runLogout,
	}
}

func runLogout(args []string) error {
	cmd := newLogoutCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}

	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	app.Session.Logout(context.Background())
	successf("Logged out")
	return nil
}
