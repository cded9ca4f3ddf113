package main

import (
	"fmt"
	"os"
	"syscall"

	"github.com/waizdev/playgate/internal/config"
	"github.com/waizdev/playgate/internal/media"
	"github.com/waizdev/playgate/pkg/library"
	"github.com/waizdev/playgate/pkg/store"
	"github.com/waizdev/playgate/pkg/vault"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	dataDirFlag string

	cfg *config.Config
	st  *store.Store
	lib *library.Library
	vlt *vault.Controller
)

var rootCmd = &cobra.Command{
	Use:   "playgate",
	Short: "playgate is a local video library with a password-protected vault",
	Long: `A personal video library manager. Videos, playlists, and playback
progress live in a local database; sensitive videos can be moved into a
vault gated by a password.`,
	SilenceUsage: true,
	// PersistentPreRunE runs before every subcommand and wires up the
	// store, the library layer, and the vault controller.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		dir := dataDirFlag
		if dir == "" {
			var err error
			dir, err = config.DefaultDataDir()
			if err != nil {
				return err
			}
		}
		var err error
		cfg, err = config.Load(dir)
		if err != nil {
			return err
		}
		if dataDirFlag != "" {
			// An explicit flag beats the config file.
			cfg.DataDir = dataDirFlag
		}

		st, err = store.Open(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("storage unavailable: %w", err)
		}
		lib = library.New(st, media.NewFFmpegProber(), nil)

		creds, err := vault.NewCredentialStore(vault.StoreKindFilesystem, cfg.DataDir)
		if err != nil {
			return err
		}
		vlt, err = vault.New(creds, nil)
		return err
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if vlt != nil && cfg.AutoLock {
			if err := vlt.Lock(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to re-lock vault: %v\n", err)
			}
		}
		if st != nil {
			return st.Close()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "",
		"Data directory (default: ~/.playgate, or data_dir from config.yaml)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// readPassword prompts without echo.
func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(passwordBytes), nil
}

// ensureUnlocked interactively unlocks the vault when it is locked. A wrong
// password gets a retry, not an error trace.
func ensureUnlocked() error {
	switch vlt.State() {
	case vault.StateUnlocked:
		return nil
	case vault.StateNoPassword:
		return fmt.Errorf("no vault password set; run 'playgate vault set-password' first")
	}

	for attempt := 0; attempt < 3; attempt++ {
		password, err := readPassword("Enter vault password: ")
		if err != nil {
			return err
		}
		ok, err := vlt.Unlock(password)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		fmt.Println("Incorrect password. Try again.")
	}
	return fmt.Errorf("too many failed attempts")
}
