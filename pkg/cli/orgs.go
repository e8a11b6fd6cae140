package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/fatih/color"

	"github.com/Ngote-Technologies/skedlii-go/pkg/api"
	"github.com/Ngote-Technologies/skedlii-go/pkg/rbac"
)

func newOrgsCommand() *Command {
	cmd := &Command{
		Name:        "orgs",
		Description: "Manage organizations",
		Subcommands: make(map[string]*Command),
		Flags:       flag.NewFlagSet("orgs", flag.ExitOnError),
	}

	cmd.Subcommands["list"] = newOrgsListCommand()
	cmd.Subcommands["create"] = newOrgsCreateCommand()
	cmd.Subcommands["switch"] = newOrgsSwitchCommand()
	cmd.Subcommands["add-member"] = newOrgsAddMemberCommand()
	cmd.Subcommands["remove-member"] = newOrgsRemoveMemberCommand()

	cmd.Run = cmd.dispatch

	return cmd
}

func newOrgsListCommand() *Command {
	return &Command{
		Name:        "list",
		Description: "List your organizations",
		Flags:       flag.NewFlagSet("list", flag.ExitOnError),
		Run:         runOrgsList,
	}
}

func runOrgsList(args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Organizations.Fetch(context.Background()); err != nil {
		return err
	}

	organizations := app.Organizations.Organizations()
	if len(organizations) == 0 {
		warnf("No organizations")
		return nil
	}

	activeID := app.Organizations.ActiveID()
	for _, org := range organizations {
		marker := " "
		if org.ID == activeID {
			marker = color.GreenString("*")
		}
		fmt.Printf("%s %s  %s  role=%s members=%d\n", marker, org.ID, org.Name, org.Role, org.MemberCount)
	}
	return nil
}

func newOrgsCreateCommand() *Command {
	cmd := &Command{
		Name:        "create",
		Description: "Create an organization",
		Flags:       flag.NewFlagSet("create", flag.ExitOnError),
		Run:         runOrgsCreate,
	}

	cmd.Flags.String("name", "", "Organization name")

	return cmd
}

func runOrgsCreate(args []string) error {
	cmd := newOrgsCreateCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}

	name := cmd.Flags.Lookup("name").Value.String()
	if name == "" {
		return fmt.Errorf("name is required")
	}

	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	created, err := app.Organizations.CreateOrganization(context.Background(), api.CreateOrganizationRequest{Name: name})
	if err != nil {
		return err
	}

	successf("Created organization %s (%s), now active", created.Name, created.ID)
	return nil
}

func newOrgsSwitchCommand() *Command {
	cmd := &Command{
		Name:        "switch",
		Description: "Change the active organization",
		Flags:       flag.NewFlagSet("switch", flag.ExitOnError),
		Run:         runOrgsSwitch,
	}

	cmd.Flags.String("org", "", "Organization ID")

	return cmd
}

func runOrgsSwitch(args []string) error {
	cmd := newOrgsSwitchCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}

	orgID := cmd.Flags.Lookup("org").Value.String()
	if orgID == "" {
		return fmt.Errorf("org is required")
	}

	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Organizations.Fetch(context.Background()); err != nil {
		return err
	}

	app.Organizations.SwitchOrganization(orgID)
	if app.Organizations.ActiveID() != orgID {
		return fmt.Errorf("organization %s not found", orgID)
	}

	successf("Active organization is now %s", orgID)
	return nil
}

func newOrgsAddMemberCommand() *Command {
	cmd := &Command{
		Name:        "add-member",
		Description: "Add a member to an organization",
		Flags:       flag.NewFlagSet("add-member", flag.ExitOnError),
		Run:         runOrgsAddMember,
	}

	cmd.Flags.String("org", "", "Organization ID (defaults to the active organization)")
	cmd.Flags.String("email", "", "Member email")
	cmd.Flags.String("role", string(rbac.RoleMember), "Member role")

	return cmd
}

func runOrgsAddMember(args []string) error {
	cmd := newOrgsAddMemberCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}

	orgID := cmd.Flags.Lookup("org").Value.String()
	email := cmd.Flags.Lookup("email").Value.String()
	role := rbac.Role(cmd.Flags.Lookup("role").Value.String())

	if email == "" {
		return fmt.Errorf("email is required")
	}

	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if orgID == "" {
		orgID = app.Organizations.ActiveID()
	}
	if orgID == "" {
		return fmt.Errorf("no organization selected")
	}

	if err := app.Organizations.AddMember(context.Background(), orgID, api.AddMemberRequest{Email: email, Role: role}); err != nil {
		return err
	}

	successf("Added %s to organization %s as %s", email, orgID, role)
	return nil
}

func newOrgsRemoveMemberCommand() *Command {
	cmd := &Command{
		Name:        "remove-member",
		Description: "Remove a member from an organization",
		Flags:       flag.NewFlagSet("remove-member", flag.ExitOnError),
		Run:         runOrgsRemoveMember,
	}

	cmd.Flags.String("org", "", "Organization ID (defaults to the active organization)")
	cmd.Flags.String("user", "", "User ID to remove")

	return cmd
}

func runOrgsRemoveMember(args []string) error {
	cmd := newOrgsRemoveMemberCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}

	orgID := cmd.Flags.Lookup("org").Value.String()
	userID := cmd.Flags.Lookup("user").Value.String()

	if userID == "" {
		return fmt.Errorf("user is required")
	}

	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if orgID == "" {
		orgID = app.Organizations.ActiveID()
	}
	if orgID == "" {
		return fmt.Errorf("no organization selected")
	}

	if err := app.Organizations.RemoveMember(context.Background(), orgID, userID); err != nil {
		return err
	}

	successf("Removed user %s from organization %s", userID, orgID)
	return nil
}
