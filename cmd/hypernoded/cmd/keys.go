package cmd

import (
	"bufio"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/cosmos/go-bip39"
	"github.com/spf13/cobra"

	"github.com/hypernode-network/hypernode/x/hypernode/types"
)

const (
	flagMnemonicLength = "mnemonic-length"
	flagKeyFile        = "key"
	flagNoBackup       = "no-backup"
)

// KeyFile is the on-disk form of a signing key. The mnemonic is the only
// secret; the public key is stored for display.
type KeyFile struct {
	PublicKey types.PublicKey `json:"public_key"`
	Mnemonic  string          `json:"mnemonic"`
}

// PrivateKey derives the ed25519 key from the mnemonic.
func (k KeyFile) PrivateKey() (ed25519.PrivateKey, error) {
	return keyFromMnemonic(k.Mnemonic)
}

// keyFromMnemonic seeds an ed25519 key with the first 32 bytes of the BIP39
// seed.
func keyFromMnemonic(mnemonic string) (ed25519.PrivateKey, error) {
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, "")
	if err != nil {
		return nil, fmt.Errorf("invalid mnemonic: %w", err)
	}
	return ed25519.NewKeyFromSeed(seed[:ed25519.SeedSize]), nil
}

func newKeyFile(mnemonic string) (KeyFile, error) {
	priv, err := keyFromMnemonic(mnemonic)
	if err != nil {
		return KeyFile{}, err
	}
	pub, _ := priv.Public().(ed25519.PublicKey)
	return KeyFile{PublicKey: types.PublicKeyFromEd25519(pub), Mnemonic: mnemonic}, nil
}

// generateMnemonic returns a fresh 12 or 24 word mnemonic.
func generateMnemonic(words int) (string, error) {
	var entropyBits int
	switch words {
	case 12:
		entropyBits = 128
	case 24:
		entropyBits = 256
	default:
		return "", fmt.Errorf("mnemonic length must be 12 or 24 words")
	}
	entropy := make([]byte, entropyBits/8)
	if _, err := rand.Read(entropy); err != nil {
		return "", fmt.Errorf("failed to generate secure entropy: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("failed to generate mnemonic: %w", err)
	}
	return mnemonic, nil
}

// normalizeMnemonic collapses whitespace and checks the word count and
// checksum.
func normalizeMnemonic(raw string) (string, error) {
	words := strings.Fields(raw)
	if len(words) != 12 && len(words) != 24 {
		return "", fmt.Errorf("invalid mnemonic length: expected 12 or 24 words, got %d", len(words))
	}
	mnemonic := strings.Join(words, " ")
	if !bip39.IsMnemonicValid(mnemonic) {
		return "", fmt.Errorf("invalid mnemonic: checksum failed")
	}
	return mnemonic, nil
}

func writeKeyFile(path string, key KeyFile) error {
	bz, err := json.MarshalIndent(key, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, append(bz, '\n'), 0o600); err != nil {
		return fmt.Errorf("failed to write key file %s: %w", path, err)
	}
	return nil
}

func readKeyFile(path string) (KeyFile, error) {
	bz, err := os.ReadFile(path)
	if err != nil {
		return KeyFile{}, fmt.Errorf("failed to read key file %s: %w", path, err)
	}
	var key KeyFile
	if err := json.Unmarshal(bz, &key); err != nil {
		return KeyFile{}, fmt.Errorf("failed to decode key file %s: %w", path, err)
	}
	derived, err := newKeyFile(key.Mnemonic)
	if err != nil {
		return KeyFile{}, err
	}
	if derived.PublicKey != key.PublicKey {
		return KeyFile{}, fmt.Errorf("key file %s: public key does not match mnemonic", path)
	}
	return key, nil
}

// KeysCmd manages ed25519 signing keys backed by BIP39 mnemonics.
func KeysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage signing keys with BIP39 mnemonic backup",
	}
	cmd.AddCommand(
		generateKeyCmd(),
		recoverKeyCmd(),
		showKeyCmd(),
	)
	return cmd
}

func generateKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate [key-file]",
		Short: "Generate a new key and write it to key-file",
		Long: `Generate a new ed25519 signing key from a fresh BIP39 mnemonic.

WARNING: the mnemonic is the only way to recover the key. Store it somewhere safe.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			words, _ := cmd.Flags().GetInt(flagMnemonicLength)
			noBackup, _ := cmd.Flags().GetBool(flagNoBackup)

			mnemonic, err := generateMnemonic(words)
			if err != nil {
				return err
			}
			key, err := newKeyFile(mnemonic)
			if err != nil {
				return err
			}
			if err := writeKeyFile(args[0], key); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "public key: %s\n", key.PublicKey)
			if !noBackup {
				fmt.Fprintf(out, "\n**IMPORTANT** Write this mnemonic phrase in a safe place.\n\n%s\n", mnemonic)
			}
			return nil
		},
	}
	cmd.Flags().Int(flagMnemonicLength, 24, "Mnemonic length (12 or 24 words)")
	cmd.Flags().Bool(flagNoBackup, false, "Do not print the mnemonic")
	return cmd
}

func recoverKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recover [key-file]",
		Short: "Recover a key from a mnemonic read on stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("failed to read mnemonic: %w", err)
			}
			mnemonic, err := normalizeMnemonic(line)
			if err != nil {
				return err
			}
			key, err := newKeyFile(mnemonic)
			if err != nil {
				return err
			}
			if err := writeKeyFile(args[0], key); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "public key: %s\n", key.PublicKey)
			return nil
		},
	}
}

func showKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [key-file]",
		Short: "Print the public key stored in key-file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := readKeyFile(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), key.PublicKey.String())
			return nil
		},
	}
}
