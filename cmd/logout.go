package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cybou-fr/cybs3/internal/secretstore"
	"github.com/cybou-fr/cybs3/internal/ui"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the mnemonic from the OS secret store",
	Long:  `Deletes the mnemonic saved by 'cybs3 login'. The encrypted config on disk is untouched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		home, err := homeDir()
		if err != nil {
			return err
		}

		store, err := secretstore.Open()
		if err != nil {
			store = secretstore.OpenFileFallback(home)
		}
		if err := store.Delete(); err != nil {
			return Logger.ErrorfAndReturn("failed to remove mnemonic: %v", err)
		}

		fmt.Println(ui.Success.Sprint("✓") + " Logged out")
		return nil
	},
}
