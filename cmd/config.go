package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cybou-fr/cybs3/internal/ui"
	"github.com/cybou-fr/cybs3/internal/vaultconfig"
)

var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and migrate the local config store",
}

func init() {
	ConfigCmd.AddCommand(configShowCmd)
	ConfigCmd.AddCommand(configDoctorCmd)
	ConfigCmd.AddCommand(configMigrateCmd)
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display metadata about the local config store",
	Long: `Displays read-only metadata about the config store: its path,
when it was created and last saved, how many vaults it has, and which
one is active. Never touches key material.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, home, err := resolveSession(cmd.Context())
		if err != nil {
			return err
		}
		defer sess.Close()

		meta := vaultconfig.Describe(home, sess.Config)
		fmt.Printf("%-16s %s\n", "Path:", ui.Path.Sprint(meta.Path))
		fmt.Printf("%-16s %s\n", "Created:", meta.CreatedAt.Format("2006-01-02T15:04:05Z07:00"))
		fmt.Printf("%-16s %s\n", "Last saved:", meta.LastAccessedAt.Format("2006-01-02T15:04:05Z07:00"))
		fmt.Printf("%-16s %d\n", "Vaults:", meta.VaultCount)
		if meta.ActiveVault != "" {
			fmt.Printf("%-16s %s\n", "Active vault:", ui.Highlight.Sprint(meta.ActiveVault))
		} else {
			fmt.Printf("%-16s %s\n", "Active vault:", ui.Muted.Sprint("none"))
		}
		return nil
	},
}

var configDoctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run health checks on the local config store",
	Long: `Checks that the config directory and file exist with the
expected permissions, and reports whether legacy pre-migration files are
still present.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		home, err := homeDir()
		if err != nil {
			return err
		}

		ok := true
		check := func(label string, pass bool, detail string) {
			mark := ui.Success.Sprint("✓")
			if !pass {
				mark = ui.Error.Sprint("✗")
				ok = false
			}
			fmt.Printf("%s %s %s\n", mark, label, ui.Muted.Sprint(detail))
		}

		dirInfo, dirErr := os.Stat(vaultconfig.Dir(home))
		check("config directory exists", dirErr == nil, vaultconfig.Dir(home))
		if dirErr == nil {
			check("config directory mode is 0700", dirInfo.Mode().Perm() == 0700, dirInfo.Mode().Perm().String())
		}

		fileInfo, fileErr := os.Stat(vaultconfig.Path(home))
		check("config file exists", fileErr == nil, vaultconfig.Path(home))
		if fileErr == nil {
			check("config file mode is 0600", fileInfo.Mode().Perm() == 0600, fileInfo.Mode().Perm().String())
		}

		legacySettings := filepath.Join(home, ".cybs3.json")
		legacyVaults := filepath.Join(home, ".cybs3.vaults")
		if _, err := os.Stat(legacySettings); err == nil {
			check("no pending legacy settings file", false, "run 'cybs3 config migrate'")
		}
		if _, err := os.Stat(legacyVaults); err == nil {
			check("no pending legacy vaults file", false, "run 'cybs3 config migrate'")
		}

		if !ok {
			return fmt.Errorf("one or more health checks failed")
		}
		return nil
	},
}

var configMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate legacy settings/vaults files into the encrypted config store",
	Long: `Reads the legacy ~/.cybs3.json and ~/.cybs3.vaults files (if
present), writes a timestamped backup of each, merges their contents into
a new config.enc, and renames the originals to *.bak.

If no legacy files are present, nothing is migrated: an existing
config.enc is opened as is, or a fresh one is created the same way
'cybs3 login' would.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		home, err := homeDir()
		if err != nil {
			return err
		}

		m, err := resolveCurrentMnemonic(home)
		if err != nil {
			return Logger.ErrorfAndReturn("failed to resolve mnemonic: %v", err)
		}

		s, cleanup := startSpinner("Migrating legacy config...")
		defer cleanup()

		cfg, result, err := vaultconfig.MigrateWithTimestampedBackup(home, m)
		if err != nil {
			return Logger.ErrorfAndReturn("migration failed: %v", err)
		}

		lines := ui.Success.Sprint("✓") + " Migration complete\n"
		if result.SettingsMigrated {
			lines += "  settings migrated into defaultRegion/defaultBucket\n"
		}
		for _, name := range result.MigratedVaultNames {
			lines += fmt.Sprintf("  vault %q migrated\n", name)
		}
		for _, path := range result.BackupPaths {
			lines += "  backed up " + ui.Path.Sprint(path) + "\n"
		}
		lines += fmt.Sprintf("  %d vault(s) now configured\n", len(cfg.Vaults))
		s.FinalMSG = lines
		return nil
	},
}
