package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authorize Google Drive and Sheets access and cache the token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		defer a.Close()

		provider, err := a.credentialProvider()
		if err != nil {
			return err
		}
		if err := provider.Reauthorize(cmd.Context()); err != nil {
			return err
		}
		fmt.Printf("Token saved to %s\n", a.cfg.Google.TokenFile)
		return nil
	},
}
