package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cybou-fr/cybs3/internal/auditlog"
	"github.com/cybou-fr/cybs3/internal/errkinds"
	"github.com/cybou-fr/cybs3/internal/ui"
	"github.com/cybou-fr/cybs3/internal/vaultconfig"
)

var VaultsCmd = &cobra.Command{
	Use:   "vaults",
	Short: "Manage named S3 connection profiles",
}

var (
	vaultAddEndpoint  string
	vaultAddAccessKey string
	vaultAddSecretKey string
	vaultAddRegion    string
	vaultAddBucket    string
)

func init() {
	vaultsAddCmd.Flags().StringVar(&vaultAddEndpoint, "endpoint", "", "S3 endpoint host[:port]")
	vaultsAddCmd.Flags().StringVar(&vaultAddAccessKey, "access-key", "", "S3 access key")
	vaultsAddCmd.Flags().StringVar(&vaultAddSecretKey, "secret-key", "", "S3 secret key")
	vaultsAddCmd.Flags().StringVar(&vaultAddRegion, "region", "", "S3 region")
	vaultsAddCmd.Flags().StringVar(&vaultAddBucket, "bucket", "", "default bucket for this vault")

	VaultsCmd.AddCommand(vaultsAddCmd)
	VaultsCmd.AddCommand(vaultsRemoveCmd)
	VaultsCmd.AddCommand(vaultsListCmd)
	VaultsCmd.AddCommand(vaultsUseCmd)
}

var vaultsAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a new named connection profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, home, err := resolveSession(cmd.Context())
		if err != nil {
			return err
		}
		defer sess.Close()

		name := args[0]
		if _, exists := sess.Config.VaultByName(name); exists {
			return Logger.ErrorfAndReturn("vault %q already exists", name)
		}

		sess.Config.Vaults = append(sess.Config.Vaults, vaultconfig.Vault{
			Name:      name,
			Endpoint:  vaultAddEndpoint,
			AccessKey: vaultAddAccessKey,
			SecretKey: vaultAddSecretKey,
			Region:    vaultAddRegion,
			Bucket:    vaultAddBucket,
		})

		if err := sess.Save(home); err != nil {
			return err
		}

		logAudit(home, auditlog.Entry{Operation: "vaults add", Vault: name})
		fmt.Println(ui.Success.Sprint("✓") + fmt.Sprintf(" Vault %q added", name))
		return nil
	},
}

var vaultsRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a named connection profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, home, err := resolveSession(cmd.Context())
		if err != nil {
			return err
		}
		defer sess.Close()

		name := args[0]
		idx := -1
		for i, v := range sess.Config.Vaults {
			if v.Name == name {
				idx = i
				break
			}
		}
		if idx == -1 {
			return &errkinds.VaultNotFoundError{Name: name}
		}

		sess.Config.Vaults = append(sess.Config.Vaults[:idx], sess.Config.Vaults[idx+1:]...)
		if sess.Config.ActiveVaultName == name {
			sess.Config.ActiveVaultName = ""
		}

		if err := sess.Save(home); err != nil {
			return err
		}

		logAudit(home, auditlog.Entry{Operation: "vaults remove", Vault: name})
		fmt.Println(ui.Success.Sprint("✓") + fmt.Sprintf(" Vault %q removed", name))
		return nil
	},
}

var vaultsUseCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "Set the active vault used when --vault is not given",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, home, err := resolveSession(cmd.Context())
		if err != nil {
			return err
		}
		defer sess.Close()

		name := args[0]
		if _, exists := sess.Config.VaultByName(name); !exists {
			return &errkinds.VaultNotFoundError{Name: name}
		}

		sess.Config.ActiveVaultName = name
		if err := sess.Save(home); err != nil {
			return err
		}

		fmt.Println(ui.Success.Sprint("✓") + fmt.Sprintf(" Active vault set to %q", name))
		return nil
	},
}

var vaultsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured vaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, _, err := resolveSession(cmd.Context())
		if err != nil {
			return err
		}
		defer sess.Close()

		if len(sess.Config.Vaults) == 0 {
			fmt.Println(ui.Muted.Sprint("no vaults configured"))
			return nil
		}

		for _, v := range sess.Config.Vaults {
			marker := " "
			if v.Name == sess.Config.ActiveVaultName {
				marker = ui.Success.Sprint("*")
			}
			fmt.Printf("%s %s %s\n", marker, ui.Highlight.Sprint(v.Name), ui.Muted.Sprint(v.Endpoint))
		}
		return nil
	},
}
