package cmd

import (
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/cybou-fr/cybs3/internal/mnemonic"
	"github.com/cybou-fr/cybs3/internal/secretstore"
	"github.com/cybou-fr/cybs3/internal/ui"
	"github.com/cybou-fr/cybs3/internal/vaultconfig"
)

var loginGenerate bool

func init() {
	loginCmd.Flags().BoolVar(&loginGenerate, "generate", false, "generate a new mnemonic instead of entering an existing one")
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Unlock the config, or store a mnemonic in the OS secret store",
	Long: `Validates a mnemonic against the local encrypted config (creating a
fresh one on first use) and saves it to the OS secret store so later
commands don't prompt for it every time.

Use --generate to create a brand-new 12-word mnemonic instead of entering
an existing one. The words are printed exactly once; write them down.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		home, err := homeDir()
		if err != nil {
			return err
		}

		var m mnemonic.Mnemonic
		if loginGenerate {
			m, err = mnemonic.Generate()
			if err != nil {
				return Logger.ErrorfAndReturn("failed to generate mnemonic: %v", err)
			}
			fmt.Println(ui.Warning.Sprint("Write these words down; they will not be shown again:"))
			fmt.Println()
			fmt.Println("  " + strings.Join([]string(m), " "))
			fmt.Println()
		} else {
			prompt := promptui.Prompt{
				Label: "Mnemonic",
				Mask:  '*',
				Validate: func(input string) error {
					return mnemonic.Validate(mnemonic.ParseMnemonic(input))
				},
			}
			result, err := prompt.Run()
			if err != nil {
				return Logger.ErrorfAndReturn("cancelled: %v", err)
			}
			m = mnemonic.ParseMnemonic(result)
		}

		cfg, err := vaultconfig.Load(home, m)
		if err != nil {
			return Logger.ErrorfAndReturn("failed to unlock config: %v", err)
		}

		store, err := secretstore.Open()
		if err != nil {
			Logger.Warnf("OS secret store unavailable, falling back to %s: %v", secretstore.FileFallbackName, err)
			store = secretstore.OpenFileFallback(home)
		}
		if err := store.Save(strings.Join([]string(m), " ")); err != nil {
			return Logger.ErrorfAndReturn("failed to save mnemonic: %v", err)
		}

		fmt.Println(ui.Success.Sprint("✓") + fmt.Sprintf(" Logged in — %d vault(s) configured", len(cfg.Vaults)))
		return nil
	},
}
