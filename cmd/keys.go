package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/cybou-fr/cybs3/internal/auditlog"
	"github.com/cybou-fr/cybs3/internal/mnemonic"
	"github.com/cybou-fr/cybs3/internal/secretstore"
	"github.com/cybou-fr/cybs3/internal/session"
	"github.com/cybou-fr/cybs3/internal/ui"
	"github.com/cybou-fr/cybs3/internal/vaultconfig"
)

var KeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage the mnemonic that unlocks the local config",
}

var keysRotateGenerate bool

func init() {
	keysRotateCmd.Flags().BoolVar(&keysRotateGenerate, "generate", false, "generate the new mnemonic instead of entering one")
	KeysCmd.AddCommand(keysRotateCmd)
}

var keysRotateCmd = &cobra.Command{
	Use:   "rotate",
	Short: "Replace the mnemonic that unlocks the config, keeping the Data Key",
	Long: `Rotates the Master Key by re-encrypting the config under a new
mnemonic. The Data Key that encrypts object bodies is unchanged, so objects
already uploaded remain decryptable — only the mnemonic that unlocks the
local config changes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		home, err := homeDir()
		if err != nil {
			return err
		}

		oldMnemonic, err := resolveCurrentMnemonic(home)
		if err != nil {
			return Logger.ErrorfAndReturn("failed to resolve current mnemonic: %v", err)
		}

		var newMnemonic mnemonic.Mnemonic
		if keysRotateGenerate {
			newMnemonic, err = mnemonic.Generate()
			if err != nil {
				return Logger.ErrorfAndReturn("failed to generate mnemonic: %v", err)
			}
			fmt.Println(ui.Warning.Sprint("Write these words down; they will not be shown again:"))
			fmt.Println()
			fmt.Println("  " + strings.Join([]string(newMnemonic), " "))
			fmt.Println()
		} else {
			prompt := promptui.Prompt{
				Label: "New mnemonic",
				Mask:  '*',
				Validate: func(input string) error {
					return mnemonic.Validate(mnemonic.ParseMnemonic(input))
				},
			}
			result, err := prompt.Run()
			if err != nil {
				return Logger.ErrorfAndReturn("cancelled: %v", err)
			}
			newMnemonic = mnemonic.ParseMnemonic(result)
		}

		s, cleanup := startSpinner("Rotating master key...")
		defer cleanup()

		if err := vaultconfig.RotateMaster(home, oldMnemonic, newMnemonic); err != nil {
			return Logger.ErrorfAndReturn("rotation failed: %v", err)
		}

		store, err := secretstore.Open()
		if err != nil {
			store = secretstore.OpenFileFallback(home)
		}
		if _, found, _ := store.Load(); found {
			if err := store.Save(strings.Join([]string(newMnemonic), " ")); err != nil {
				Logger.Warnf("rotated config but failed to update stored mnemonic: %v", err)
			}
		}

		logAudit(home, auditlog.Entry{Operation: "keys rotate"})

		s.FinalMSG = ui.Success.Sprint("✓") + " Master key rotated"
		return nil
	},
}

// resolveCurrentMnemonic implements the same env > store > prompt chain as
// internal/session, duplicated here because keys rotate needs the *current*
// mnemonic without constructing a full session.Session.
func resolveCurrentMnemonic(home string) (mnemonic.Mnemonic, error) {
	if raw := os.Getenv(session.MnemonicEnvVar); raw != "" {
		m := mnemonic.ParseMnemonic(raw)
		return m, mnemonic.Validate(m)
	}

	store, err := secretstore.Open()
	if err != nil {
		store = secretstore.OpenFileFallback(home)
	}
	if raw, found, err := store.Load(); err != nil {
		return nil, err
	} else if found {
		m := mnemonic.ParseMnemonic(raw)
		return m, mnemonic.Validate(m)
	}

	prompt := promptui.Prompt{
		Label: "Current mnemonic",
		Mask:  '*',
		Validate: func(input string) error {
			return mnemonic.Validate(mnemonic.ParseMnemonic(input))
		},
	}
	result, err := prompt.Run()
	if err != nil {
		return nil, err
	}
	return mnemonic.ParseMnemonic(result), nil
}
