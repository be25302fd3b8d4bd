// Package cmd wires the core packages (C1-C7, session, secretstore,
// auditlog) into a cobra CLI surface: keys, vaults, buckets, files, config,
// login, logout.
package cmd

import (
	"fmt"
	"os"

	"github.com/common-nighthawk/go-figure"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	logger "github.com/cybou-fr/cybs3/internal/logging"
)

var (
	verbose  bool
	debug    bool
	noColor  bool
	Logger   logger.Logger

	vaultFlag     string
	accessKeyFlag string
	secretKeyFlag string
	regionFlag    string
	bucketFlag    string
	endpointFlag  string
)

var RootCmd = &cobra.Command{
	Use:   "cybs3",
	Short: "Encrypted command-line client for S3-compatible object storage",
	Long: `cybs3 stores objects in S3-compatible buckets with client-side
encryption: every object body is sealed with a chunked AEAD stream before
it ever leaves this machine, and connection profiles are kept in a local
encrypted config unlocked by a BIP39 mnemonic.

Available command groups:
  login      Unlock or store the mnemonic for this machine
  logout     Remove the stored mnemonic
  keys       Rotate the mnemonic that unlocks the config
  vaults     Manage named S3 connection profiles
  buckets    Create, list, and delete buckets
  files      Put, get, list, and remove encrypted objects
  config     Inspect and migrate the local config store

Run 'cybs3 <command> --help' for details on a specific command.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		Logger = logger.Logger{Verbose: verbose, Debug: debug}
		if noColor {
			color.NoColor = true
		}
		Logger.Debugf("cybs3 starting: verbose=%t debug=%t no-color=%t", verbose, debug, noColor)
	},
	Run: func(cmd *cobra.Command, args []string) {
		banner := figure.NewColorFigure("cybs3", "slant", "cyan", true)
		banner.Print()
		fmt.Println("Run 'cybs3 --help' to see available commands.")
	},
}

func init() {
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	RootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug output")
	RootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	RootCmd.PersistentFlags().StringVar(&vaultFlag, "vault", "", "vault to use for this command")
	RootCmd.PersistentFlags().StringVar(&accessKeyFlag, "access-key", "", "S3 access key (overrides vault/config/env)")
	RootCmd.PersistentFlags().StringVar(&secretKeyFlag, "secret-key", "", "S3 secret key (overrides vault/config/env)")
	RootCmd.PersistentFlags().StringVar(&regionFlag, "region", "", "S3 region (overrides vault/config/env)")
	RootCmd.PersistentFlags().StringVar(&bucketFlag, "bucket", "", "default bucket (overrides vault/config/env)")
	RootCmd.PersistentFlags().StringVar(&endpointFlag, "endpoint", "", "S3 endpoint host[:port] (overrides vault/config/env)")

	RootCmd.AddCommand(loginCmd)
	RootCmd.AddCommand(logoutCmd)
	RootCmd.AddCommand(KeysCmd)
	RootCmd.AddCommand(VaultsCmd)
	RootCmd.AddCommand(BucketsCmd)
	RootCmd.AddCommand(FilesCmd)
	RootCmd.AddCommand(ConfigCmd)
}

// Execute runs the root command and, on a non-nil error, prints it to
// stderr and exits with status 1. main.go's only job is to call this.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("✗ ")+err.Error())
		os.Exit(1)
	}
}
