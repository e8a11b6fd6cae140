package cli

import (
	"flag"
	"fmt"

	"github.com/Ngote-Technologies/skedlii-go/pkg/credentials"
)

const (
	themeColor = "color"
	themePlain = "plain"
)

func newThemeCommand() *Command {
	cmd := &Command{
		Name:        "theme",
		Description: "Show or set the terminal color theme",
		Flags:       flag.NewFlagSet("theme", flag.ExitOnError),
		Run:         runTheme,
	}

	cmd.Flags.String("set", "", "Theme to persist (color or plain)")

	return cmd
}

func runTheme(args []string) error {
	cmd := newThemeCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}

	value := cmd.Flags.Lookup("set").Value.String()
	if value != "" && value != themeColor && value != themePlain {
		return fmt.Errorf("theme must be %s or %s", themeColor, themePlain)
	}

	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if value == "" {
		fmt.Println(loadTheme(app.files))
		return nil
	}

	if err := app.files.SetJSON(credentials.KeyTheme, value); err != nil {
		return err
	}
	successf("Theme set to %s", value)
	return nil
}

// loadTheme reads the persisted theme preference, defaulting to color
func loadTheme(files *credentials.FileStore) string {
	var theme string
	found, err := files.GetJSON(credentials.KeyTheme, &theme)
	if err != nil || !found || theme != themePlain {
		return themeColor
	}
	return themePlain
}
