package main

import (
	"fmt"

	"github.com/waizdev/playgate/pkg/vault"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(vaultCmd)

	vaultCmd.AddCommand(vaultSetPasswordCmd)
	vaultCmd.AddCommand(vaultUnlockCmd)
	vaultCmd.AddCommand(vaultLockCmd)
	vaultCmd.AddCommand(vaultStatusCmd)
	vaultCmd.AddCommand(vaultResetCmd)
	vaultCmd.AddCommand(vaultUnlockKeyCmd)
	vaultCmd.AddCommand(vaultMoveCmd)
	vaultCmd.AddCommand(vaultRestoreCmd)
}

var vaultCmd = &cobra.Command{
	Use:   "vault",
	Short: "Manage the password-protected vault",
}

var vaultSetPasswordCmd = &cobra.Command{
	Use:   "set-password",
	Short: "Set the vault password (first-time setup)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		password1, err := readPassword("Enter vault password: ")
		if err != nil {
			return err
		}
		password2, err := readPassword("Confirm vault password: ")
		if err != nil {
			return err
		}
		if password1 != password2 {
			return fmt.Errorf("passwords do not match")
		}
		if password1 == "" {
			return fmt.Errorf("password cannot be empty")
		}

		strength := vault.EvaluatePassword(password1)
		fmt.Printf("Password strength: %s\n", strength)
		if strength == vault.PasswordWeak {
			fmt.Println("Warning: short passwords are easy to guess; consider 8+ characters")
		}

		if err := vlt.SetPassword(password1); err != nil {
			return err
		}
		fmt.Println("Vault password set; vault is unlocked")
		return nil
	},
}

var vaultUnlockCmd = &cobra.Command{
	Use:   "unlock",
	Short: "Unlock the vault for this session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := ensureUnlocked(); err != nil {
			return err
		}
		fmt.Println("Vault unlocked")
		return nil
	},
}

var vaultLockCmd = &cobra.Command{
	Use:   "lock",
	Short: "Lock the vault and discard the session key",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := vlt.Lock(); err != nil {
			return err
		}
		fmt.Println("Vault locked")
		return nil
	},
}

var vaultStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the vault state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		switch vlt.State() {
		case vault.StateNoPassword:
			fmt.Println("No vault password set")
		case vault.StateLocked:
			fmt.Println("Locked")
		case vault.StateUnlocked:
			fmt.Println("Unlocked")
		case vault.StateChallengeIssued:
			fmt.Println("Password reset in progress")
		}
		return nil
	},
}

var vaultResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Start a password reset (forgotten password)",
	Long: `Generates a support code to relay to support. The unlock key they
compute from it is submitted with 'playgate vault unlock-key'. A valid key
removes the old password so a new one can be set; vaulted videos stay
vaulted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		code, err := vlt.StartReset()
		if err != nil {
			return err
		}
		fmt.Printf("Support code: %s\n", code)
		fmt.Println("Relay this code to support, then run 'playgate vault unlock-key <key>'")
		return nil
	},
}

var vaultUnlockKeyCmd = &cobra.Command{
	Use:   "unlock-key [key]",
	Short: "Submit the unlock key for an in-progress password reset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ok, err := vlt.SubmitUnlockKey(args[0])
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Incorrect unlock key")
			return fmt.Errorf("unlock key rejected")
		}
		fmt.Println("Password removed; run 'playgate vault set-password' to set a new one")
		return nil
	},
}

var vaultMoveCmd = &cobra.Command{
	Use:   "move [video-id]",
	Short: "Move a video into the vault",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := ensureUnlocked(); err != nil {
			return err
		}
		if err := lib.ToggleVault(args[0], true); err != nil {
			return err
		}
		fmt.Printf("Moved %s into the vault\n", args[0])
		return nil
	},
}

var vaultRestoreCmd = &cobra.Command{
	Use:   "restore [video-id]",
	Short: "Move a video out of the vault back to the library",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := ensureUnlocked(); err != nil {
			return err
		}
		if err := lib.ToggleVault(args[0], false); err != nil {
			return err
		}
		fmt.Printf("Moved %s back to the library\n", args[0])
		return nil
	},
}
