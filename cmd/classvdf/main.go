package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := Command().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Command is the classvdf root command.
func Command() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:           "classvdf",
		Short:         "Class-group VDF evaluation, hashing and accumulation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to the yaml configuration file")
	cmd.AddCommand(
		serveCommand(&configPath),
		discriminantCommand(&configPath),
		hashCommand(&configPath),
		accumulateCommand(&configPath),
	)
	return cmd
}
