package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/cybou-fr/cybs3/internal/auditlog"
	"github.com/cybou-fr/cybs3/internal/ui"
)

var BucketsCmd = &cobra.Command{
	Use:   "buckets",
	Short: "Create, list, and delete buckets",
}

func init() {
	BucketsCmd.AddCommand(bucketsCreateCmd)
	BucketsCmd.AddCommand(bucketsDeleteCmd)
	BucketsCmd.AddCommand(bucketsListCmd)
}

var bucketsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a bucket",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, home, err := resolveSession(cmd.Context())
		if err != nil {
			return err
		}
		defer sess.Close()

		name := args[0]
		s, cleanup := startSpinner(fmt.Sprintf("Creating bucket %s...", name))
		defer cleanup()

		if err := sess.Client.CreateBucket(cmd.Context(), name); err != nil {
			return Logger.ErrorfAndReturn("failed to create bucket: %v", err)
		}

		logAudit(home, auditlog.Entry{Operation: "buckets create", Bucket: name})
		s.FinalMSG = ui.Success.Sprint("✓") + fmt.Sprintf(" Bucket %q created", name)
		return nil
	},
}

var bucketsDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete an empty bucket",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, home, err := resolveSession(cmd.Context())
		if err != nil {
			return err
		}
		defer sess.Close()

		name := args[0]
		s, cleanup := startSpinner(fmt.Sprintf("Deleting bucket %s...", name))
		defer cleanup()

		if err := sess.Client.DeleteBucket(cmd.Context(), name); err != nil {
			return Logger.ErrorfAndReturn("failed to delete bucket: %v", err)
		}

		logAudit(home, auditlog.Entry{Operation: "buckets delete", Bucket: name})
		s.FinalMSG = ui.Success.Sprint("✓") + fmt.Sprintf(" Bucket %q deleted", name)
		return nil
	},
}

var bucketsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List buckets visible to the current credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, _, err := resolveSession(cmd.Context())
		if err != nil {
			return err
		}
		defer sess.Close()

		names, err := sess.Client.ListBuckets(cmd.Context())
		if err != nil {
			return Logger.ErrorfAndReturn("failed to list buckets: %v", err)
		}

		sort.Strings(names)
		for _, name := range names {
			fmt.Println(ui.Highlight.Sprint(name))
		}
		return nil
	},
}
