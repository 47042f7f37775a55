package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	loginUser string
	loginPass string
	meToken   string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate and print a session token",
	RunE: func(cmd *cobra.Command, _ []string) error {
		resp, err := apiCall("POST", "/api/login", "", map[string]string{
			"username": loginUser,
			"password": loginPass,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "token: %v\nexpiresIn: %v\n", resp["token"], resp["expiresIn"])
		return nil
	},
}

var meCmd = &cobra.Command{
	Use:   "me",
	Short: "Show the principal behind a session token",
	RunE: func(cmd *cobra.Command, _ []string) error {
		resp, err := apiCall("GET", "/api/me", meToken, nil)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%v\n", resp["user"])
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVarP(&loginUser, "username", "u", "", "username")
	loginCmd.Flags().StringVarP(&loginPass, "password", "p", "", "password")
	_ = loginCmd.MarkFlagRequired("username")
	_ = loginCmd.MarkFlagRequired("password")

	meCmd.Flags().StringVar(&meToken, "token", "", "session token (from 'backctl login')")
	_ = meCmd.MarkFlagRequired("token")

	rootCmd.AddCommand(loginCmd, meCmd)
}
