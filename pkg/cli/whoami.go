package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/fatih/color"

	"github.com/Ngote-Technologies/skedlii-go/pkg/session"
)

func newWhoamiCommand() *Command {
	cmd := &Command{
		Name:        "whoami",
		Description: "Show the current user and permissions",
		Flags:       flag.NewFlagSet("whoami", flag.ExitOnError),
		Run:         runWhoami,
	}

	cmd.Flags.Bool("refresh", false, "Refetch user data from the backend first")

	return cmd
}

func runWhoami(args []string) error {
	cmd := newWhoamiCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}
	refresh := cmd.Flags.Lookup("refresh").Value.String() == "true"

	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if refresh {
		if err := app.Session.FetchUserData(context.Background()); err != nil {
			return fmt.Errorf("failed to refresh user data: %w", err)
		}
	}

	if app.Session.State() != session.StateAuthenticated {
		warnf("Not logged in")
		return nil
	}

	user := app.Session.User()
	flags := app.Session.Flags()
	sub := app.Session.Subscription()
	uc := app.Session.UserContext()

	fmt.Printf("%s %s <%s>\n", color.CyanString("User:"), user.Name, user.Email)
	fmt.Printf("%s %s (%s)\n", color.CyanString("Role:"), uc.UserRole, uc.UserType)
	if active := app.Organizations.Active(); active != nil {
		fmt.Printf("%s %s (role: %s)\n", color.CyanString("Organization:"), active.Name, active.Role)
	}
	fmt.Printf("%s tier=%s valid=%t\n", color.CyanString("Subscription:"), sub.Tier, sub.HasValidSubscription)
	fmt.Printf("%s admin=%t manageOrg=%t billing=%t social=%t teams=%t\n",
		color.CyanString("Access:"),
		flags.IsAdmin, flags.CanManageOrganization, flags.CanManageBilling,
		flags.CanConnectSocialAccounts, flags.CanCreateTeams)

	for _, team := range app.Session.Teams() {
		fmt.Printf("  team: %s (%s)\n", team.Name, team.ID)
	}
	return nil
}
