package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the server answers on /api/ping",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if _, err := apiCall("GET", "/api/ping", "", nil); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "ok")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pingCmd)
}
