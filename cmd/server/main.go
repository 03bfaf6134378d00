package main

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func run(args []string) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	root := newRootCommand()
	root.SetArgs(args)
	return root.Execute()
}

type rootOptions struct {
	envFile    string
	configFile string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "sessions",
		Short:         "Storefront session authority: login, logout and credential validation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before reading configuration")
	root.PersistentFlags().StringVar(&opts.configFile, "config", os.Getenv("CONFIG_FILE"), "optional YAML file of configuration defaults (env CONFIG_FILE)")

	root.AddCommand(
		newServeCommand(opts),
		newSweepCommand(opts),
		newHashPasswordCommand(),
	)
	return root
}
