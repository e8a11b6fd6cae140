package cli

import (
	"flag"
	"fmt"
	"os"
)

const rootName = "skedlii"

// Command is a named CLI verb. Group commands like orgs and invite carry
// Subcommands and route through dispatch; leaf commands parse their own
// Flags inside Run.
type Command struct {
	Name        string
	Description string
	Run         func(args []string) error
	Subcommands map[string]*Command
	Flags       *flag.FlagSet
}

// NewRootCommand assembles the skedlii command tree
func NewRootCommand() *Command {
	root := &Command{
		Name:        rootName,
		Description: "Skedlii - Social media scheduling CLI",
		Subcommands: make(map[string]*Command),
		Flags:       flag.NewFlagSet(rootName, flag.ExitOnError),
	}

	root.Subcommands["login"] = newLoginCommand()
	root.Subcommands["register"] = newRegisterCommand()
	root.Subcommands["logout"] = newLogoutCommand()
	root.Subcommands["whoami"] = newWhoamiCommand()
	root.Subcommands["orgs"] = newOrgsCommand()
	root.Subcommands["invite"] = newInviteCommand()
	root.Subcommands["refresh-permissions"] = newRefreshPermissionsCommand()
	root.Subcommands["theme"] = newThemeCommand()

	return root
}

// Execute runs the command named on the command line
func (c *Command) Execute() error {
	args := os.Args[1:]
	if len(args) > 0 && (args[0] == "-h" || args[0] == "--help") {
		return c.usage()
	}
	return c.dispatch(args)
}

// dispatch routes args to a registered subcommand; without arguments it
// prints usage instead
func (c *Command) dispatch(args []string) error {
	if len(args) == 0 {
		return c.usage()
	}
	if subcmd, ok := c.Subcommands[args[0]]; ok {
		return subcmd.Run(args[1:])
	}
	if c.Name == rootName {
		return fmt.Errorf("unknown command: %s", args[0])
	}
	return fmt.Errorf("unknown %s command: %s", c.Name, args[0])
}

// usage prints the command usage
func (c *Command) usage() error {
	fmt.Printf("Usage: %s <command> [args]\n\n", c.Name)
	fmt.Printf("Commands:\n")
	for name, cmd := range c.Subcommands {
		fmt.Printf("  %-20s %s\n", name, cmd.Description)
	}
	return nil
}
