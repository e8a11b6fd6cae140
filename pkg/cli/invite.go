package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/Ngote-Technologies/skedlii-go/pkg/api"
	"github.com/Ngote-Technologies/skedlii-go/pkg/rbac"
)

func newInviteCommand() *Command {
	cmd := &Command{
		Name:        "invite",
		Description: "Manage organization invitations",
		Subcommands: make(map[string]*Command),
		Flags:       flag.NewFlagSet("invite", flag.ExitOnError),
	}

	cmd.Subcommands["send"] = newInviteSendCommand()
	cmd.Subcommands["verify"] = newInviteVerifyCommand()
	cmd.Subcommands["accept"] = newInviteAcceptCommand()
	cmd.Subcommands["resend"] = newInviteResendCommand()

	cmd.Run = cmd.dispatch

	return cmd
}

func newInviteSendCommand() *Command {
	cmd := &Command{
		Name:        "send",
		Description: "Invite a user to an organization",
		Flags:       flag.NewFlagSet("send", flag.ExitOnError),
		Run:         runInviteSend,
	}

	cmd.Flags.String("org", "", "Organization ID (defaults to the active organization)")
	cmd.Flags.String("email", "", "Invitee email")
	cmd.Flags.String("role", string(rbac.RoleMember), "Role to grant")

	return cmd
}

func runInviteSend(args []string) error {
	cmd := newInviteSendCommand()
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

	invitation, err := app.Invitations.Create(context.Background(), api.CreateInvitationRequest{
		OrganizationID: orgID,
		Email:          email,
		Role:           role,
	})
	if err != nil {
		return err
	}

	successf("Invited %s as %s (invitation %s)", email, role, invitation.ID)
	return nil
}

func newInviteVerifyCommand() *Command {
	cmd := &Command{
		Name:        "verify",
		Description: "Verify an invitation token",
		Flags:       flag.NewFlagSet("verify", flag.ExitOnError),
		Run:         runInviteVerify,
	}

	cmd.Flags.String("token", "", "Invitation token")

	return cmd
}

func runInviteVerify(args []string) error {
	cmd := newInviteVerifyCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}

	token := cmd.Flags.Lookup("token").Value.String()
	if token == "" {
		return fmt.Errorf("token is required")
	}

	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	verification, err := app.Invitations.Verify(context.Background(), token)
	if err != nil {
		return err
	}
	if !verification.Valid {
		return fmt.Errorf("invitation is invalid or expired")
	}

	successf("Invitation valid: %s invited to %s", verification.Email, verification.OrganizationName)
	if verification.RequiresPassword {
		fmt.Println("A password is required to accept (new account)")
	}
	return nil
}

func newInviteAcceptCommand() *Command {
	cmd := &Command{
		Name:        "accept",
		Description: "Accept an invitation",
		Flags:       flag.NewFlagSet("accept", flag.ExitOnError),
		Run:         runInviteAccept,
	}

	cmd.Flags.String("token", "", "Invitation token")
	cmd.Flags.String("password", "", "Password for a new account (omit for existing accounts)")

	return cmd
}

func runInviteAccept(args []string) error {
	cmd := newInviteAcceptCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}

	token := cmd.Flags.Lookup("token").Value.String()
	password := cmd.Flags.Lookup("password").Value.String()

	if token == "" {
		return fmt.Errorf("token is required")
	}

	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	result, err := app.Invitations.Accept(context.Background(), token, password)
	if err != nil {
		return err
	}

	successf("Joined organization %s", result.OrganizationID)
	return nil
}

func newInviteResendCommand() *Command {
	cmd := &Command{
		Name:        "resend",
		Description: "Resend a pending invitation email",
		Flags:       flag.NewFlagSet("resend", flag.ExitOnError),
		Run:         runInviteResend,
	}

	cmd.Flags.String("email", "", "Invitee email")

	return cmd
}

func runInviteResend(args []string) error {
	cmd := newInviteResendCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}

	email := cmd.Flags.Lookup("email").Value.String()
	if email == "" {
		return fmt.Errorf("email is required")
	}

	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Invitations.Resend(context.Background(), email); err != nil {
		return err
	}

	successf("Invitation resent to %s", email)
	return nil
}
