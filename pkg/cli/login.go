package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/Ngote-Technologies/skedlii-go/pkg/api"
	"github.com/Ngote-Technologies/skedlii-go/pkg/rbac"
)

func newLoginCommand() *Command {
	cmd := &Command{
		Name:        "login",
		Description: "Authenticate with the Skedlii backend",
		Flags:       flag.NewFlagSet("login", flag.ExitOnError),
		Run:         runLogin,
	}

	cmd.Flags.String("email", "", "Account email")
	cmd.Flags.String("password", "", "Account password")

	return cmd
}

func runLogin(args []string) error {
	cmd := newLoginCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}

	email := cmd.Flags.Lookup("email").Value.String()
	password := cmd.Flags.Lookup("password").Value.String()

	if email == "" || password == "" {
		return fmt.Errorf("email and password are required")
	}

	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	result := app.Session.Login(context.Background(), email, password)
	if !result.OK {
		return fmt.Errorf("login failed: %s", result.Message)
	}

	if err := app.Organizations.Fetch(context.Background()); err != nil {
		warnf("logged in, but fetching organizations failed: %v", err)
	}

	successf("Logged in as %s", email)
	return nil
}

func newRegisterCommand() *Command {
	cmd := &Command{
		Name:        "register",
		Description: "Create a Skedlii account",
		Flags:       flag.NewFlagSet("register", flag.ExitOnError),
		Run:         runRegister,
	}

	cmd.Flags.String("email", "", "Account email")
	cmd.Flags.String("password", "", "Account password")
	cmd.Flags.String("name", "", "Display name")
	cmd.Flags.String("type", "individual", "Account type (individual or organization)")
	cmd.Flags.String("org-name", "", "Organization name (organization accounts only)")

	return cmd
}

func runRegister(args []string) error {
	cmd := newRegisterCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}

	email := cmd.Flags.Lookup("email").Value.String()
	password := cmd.Flags.Lookup("password").Value.String()
	name := cmd.Flags.Lookup("name").Value.String()
	userType := rbac.UserType(cmd.Flags.Lookup("type").Value.String())
	orgName := cmd.Flags.Lookup("org-name").Value.String()

	if email == "" || password == "" || name == "" {
		return fmt.Errorf("email, password and name are required")
	}
	if userType != rbac.UserTypeIndividual && userType != rbac.UserTypeOrganization {
		return fmt.Errorf("type must be individual or organization")
	}
	if userType == rbac.UserTypeOrganization && orgName == "" {
		return fmt.Errorf("org-name is required for organization accounts")
	}

	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	result := app.Session.Register(context.Background(), api.RegisterRequest{
		Email:            email,
		Password:         password,
		Name:             name,
		UserType:         userType,
		OrganizationName: orgName,
	})
	if !result.OK {
		return fmt.Errorf("registration failed: %s", result.Message)
	}

	successf("Registered and logged in as %s", email)
	return nil
}
