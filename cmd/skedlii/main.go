package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/Ngote-Technologies/skedlii-go/pkg/cli"
)

func main() {
	// Local overrides for base URLs, feature flags, and state directory
	_ = godotenv.Load()

	rootCmd := cli.NewRootCommand()

	flag.Parse()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
