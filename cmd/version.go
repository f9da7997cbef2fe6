package cmd

import "github.com/spf13/cobra"

var version = "3.0.0"

func setVersion(cmd *cobra.Command) {
	cmd.Version = version
	cmd.SetVersionTemplate("awake {{.Version}}\n")
}
