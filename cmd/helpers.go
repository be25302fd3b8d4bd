package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/briandowns/spinner"

	"github.com/cybou-fr/cybs3/internal/auditlog"
	"github.com/cybou-fr/cybs3/internal/session"
	"github.com/cybou-fr/cybs3/internal/ui"
)

// startSpinner mirrors the teacher's cmd/secrets_helper_methods.go: a
// spinner in normal mode, plain log lines in verbose/debug mode so the two
// don't fight over the same terminal line. spinner.FinalMSG values do not
// need trailing newlines; cleanup adds one.
func startSpinner(message string) (*spinner.Spinner, func()) {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message

	if err := s.Color("cyan"); err != nil {
		Logger.Warnf("failed to set spinner color: %v", err)
	}

	if !verbose && !debug {
		s.Start()
		log.SetOutput(io.Discard)
	} else {
		Logger.Infof("%s", message)
	}

	cleanup := func() {
		if !verbose && !debug {
			log.SetOutput(os.Stdout)
		}

		finalMsg := ""
		if s.FinalMSG != "" {
			finalMsg = ui.EnsureNewline(s.FinalMSG)
			s.FinalMSG = ""
		}

		if !verbose && !debug {
			s.Stop()
		}

		if finalMsg != "" {
			fmt.Print(finalMsg)
		}
	}
	return s, cleanup
}

// homeDir resolves the real home directory once per invocation.
func homeDir() (string, error) {
	return os.UserHomeDir()
}

// resolveSession builds session.ResolveOptions from the global persistent
// flags and delegates to session.Resolve. Every mutating command must
// defer sess.Close() on the returned Session.
func resolveSession(ctx context.Context) (*session.Session, string, error) {
	home, err := homeDir()
	if err != nil {
		return nil, "", err
	}

	store := session.ResolveMnemonicFromKeychain(home)
	sess, err := session.Resolve(ctx, session.ResolveOptions{
		Home:          home,
		VaultFlag:     vaultFlag,
		AccessKeyFlag: accessKeyFlag,
		SecretKeyFlag: secretKeyFlag,
		RegionFlag:    regionFlag,
		BucketFlag:    bucketFlag,
		EndpointFlag:  endpointFlag,
		Store:         store,
	})
	if err != nil {
		return nil, home, err
	}
	return sess, home, nil
}

// logAudit appends an audit entry without ever failing the caller's
// command, matching the teacher's "operations should not fail just because
// audit logging failed." auditlog.Log reports no error, so a write failure
// is dropped silently; no warning is printed.
func logAudit(home string, entry auditlog.Entry) {
	auditlog.Log(home, entry)
}

// resolveBucket returns the explicit argument if given, else the
// session's effective default bucket, else an error.
func resolveBucket(explicit, effective string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if effective != "" {
		return effective, nil
	}
	return "", Logger.ErrorfAndReturn("no bucket given: pass one explicitly or set --bucket/a vault default")
}
