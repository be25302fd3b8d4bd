package cmd

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/cybou-fr/cybs3/internal/auditlog"
	"github.com/cybou-fr/cybs3/internal/streamcodec"
	"github.com/cybou-fr/cybs3/internal/ui"
)

var FilesCmd = &cobra.Command{
	Use:   "files",
	Short: "Put, get, list, and remove encrypted objects",
}

func init() {
	FilesCmd.AddCommand(filesPutCmd)
	FilesCmd.AddCommand(filesGetCmd)
	FilesCmd.AddCommand(filesRmCmd)
	FilesCmd.AddCommand(filesLsCmd)
}

var filesPutCmd = &cobra.Command{
	Use:   "put <local-path> <key>",
	Short: "Encrypt a local file and upload it as an object",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, home, err := resolveSession(cmd.Context())
		if err != nil {
			return err
		}
		defer sess.Close()

		localPath, key := args[0], args[1]
		bucket, err := resolveBucket("", sess.Settings.Bucket)
		if err != nil {
			return err
		}

		file, err := os.Open(localPath)
		if err != nil {
			return Logger.ErrorfAndReturn("failed to open %s: %v", localPath, err)
		}
		defer file.Close()

		info, err := file.Stat()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to stat %s: %v", localPath, err)
		}

		s, cleanup := startSpinner(fmt.Sprintf("Uploading %s -> s3://%s/%s...", localPath, bucket, key))
		defer cleanup()

		ciphertextLen := streamcodec.CiphertextLength(info.Size())
		encrypted := streamcodec.NewEncryptReader([32]byte(sess.DataKey), file)

		if err := sess.Client.PutObjectStream(cmd.Context(), bucket, key, encrypted, ciphertextLen); err != nil {
			return Logger.ErrorfAndReturn("upload failed: %v", err)
		}

		logAudit(home, auditlog.Entry{Operation: "files put", Bucket: bucket, Keys: []string{key}, BytesMoved: info.Size()})
		s.FinalMSG = ui.Success.Sprint("✓") + fmt.Sprintf(" Uploaded %s (%d bytes plaintext)", key, info.Size())
		return nil
	},
}

var filesGetCmd = &cobra.Command{
	Use:   "get <key> <local-path>",
	Short: "Download an object and decrypt it to a local file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, home, err := resolveSession(cmd.Context())
		if err != nil {
			return err
		}
		defer sess.Close()

		key, localPath := args[0], args[1]
		bucket, err := resolveBucket("", sess.Settings.Bucket)
		if err != nil {
			return err
		}

		s, cleanup := startSpinner(fmt.Sprintf("Downloading s3://%s/%s -> %s...", bucket, key, localPath))
		defer cleanup()

		body, err := sess.Client.GetObjectStream(cmd.Context(), bucket, key)
		if err != nil {
			return Logger.ErrorfAndReturn("download failed: %v", err)
		}
		defer body.Close()

		out, err := os.Create(localPath)
		if err != nil {
			return Logger.ErrorfAndReturn("failed to create %s: %v", localPath, err)
		}
		defer out.Close()

		decrypted := streamcodec.NewDecryptReader([32]byte(sess.DataKey), body)
		written, err := io.Copy(out, decrypted)
		if err != nil {
			return Logger.ErrorfAndReturn("decryption/write failed: %v", err)
		}

		logAudit(home, auditlog.Entry{Operation: "files get", Bucket: bucket, Keys: []string{key}, BytesMoved: written})
		s.FinalMSG = ui.Success.Sprint("✓") + fmt.Sprintf(" Downloaded %s (%d bytes plaintext)", key, written)
		return nil
	},
}

var filesRmCmd = &cobra.Command{
	Use:   "rm <key>",
	Short: "Delete an object",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, home, err := resolveSession(cmd.Context())
		if err != nil {
			return err
		}
		defer sess.Close()

		key := args[0]
		bucket, err := resolveBucket("", sess.Settings.Bucket)
		if err != nil {
			return err
		}

		if err := sess.Client.DeleteObject(cmd.Context(), bucket, key); err != nil {
			return Logger.ErrorfAndReturn("delete failed: %v", err)
		}

		logAudit(home, auditlog.Entry{Operation: "files rm", Bucket: bucket, Keys: []string{key}})
		fmt.Println(ui.Success.Sprint("✓") + fmt.Sprintf(" Removed %s", key))
		return nil
	},
}

var filesLsPrefix string

func init() {
	filesLsCmd.Flags().StringVar(&filesLsPrefix, "prefix", "", "only list keys with this prefix")
}

var filesLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List objects in the current bucket",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, _, err := resolveSession(cmd.Context())
		if err != nil {
			return err
		}
		defer sess.Close()

		bucket, err := resolveBucket("", sess.Settings.Bucket)
		if err != nil {
			return err
		}

		objects, err := sess.Client.ListObjects(cmd.Context(), bucket, filesLsPrefix, "/")
		if err != nil {
			return Logger.ErrorfAndReturn("list failed: %v", err)
		}

		sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
		for _, obj := range objects {
			if obj.IsDirectory {
				fmt.Println(ui.Path.Sprint(obj.Key))
				continue
			}
			fmt.Printf("%s  %s\n", ui.Muted.Sprint(fmt.Sprintf("%12d", obj.Size)), obj.Key)
		}
		return nil
	},
}
