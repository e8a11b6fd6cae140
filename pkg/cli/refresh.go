package cli

import (
	"context"
	"flag"
)

func newRefreshPermissionsCommand() *Command {
	cmd := &Command{
		Name:        "refresh-permissions",
		Description: "Refetch permissions for the active organization",
		Flags:       flag.NewFlagSet("refresh-permissions", flag.ExitOnError),
		Run:         runRefreshPermissions,
	}
	cmd.Flags.String("org", "", "Organization to scope the refresh to (defaults to the active one)")
	return cmd
}

func runRefreshPermissions(args []string) error {
	cmd := newRefreshPermissionsCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}
	orgID := cmd.Flags.Lookup("org").Value.String()

	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Session.RefreshPermissions(context.Background(), orgID); err != nil {
		return err
	}

	successf("Permissions refreshed")
	return nil
}
