package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/majorcontext/aniflax/internal/config"
	"github.com/majorcontext/aniflax/internal/secrets"
	"github.com/majorcontext/aniflax/internal/ui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	tokenUser string
	tokenSave bool
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage the bot token in the OS keyring",
}

var tokenSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Store the bot token in the OS keyring",
	Long: `Prompt for the bot token and store it in the OS keyring. Input is hidden
when stdin is a terminal; otherwise one line is read, so the token can be piped.

With --save the config file's token is set to the keyring reference, so
'aniflax run' picks it up without the token ever touching disk.

Examples:
  aniflax token set --save
  op read op://bots/aniflax/token | aniflax token set`,
	Args: cobra.NoArgs,
	RunE: runTokenSet,
}

var tokenDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Remove the bot token from the OS keyring",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := secrets.DeleteFromKeyring(tokenUser); err != nil {
			return err
		}
		ui.Printf("%s Token removed from keyring.\n", ui.OKTag())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.AddCommand(tokenSetCmd, tokenDeleteCmd)
	tokenCmd.PersistentFlags().StringVar(&tokenUser, "user", secrets.KeyringUser, "keyring entry name")
	tokenSetCmd.Flags().BoolVar(&tokenSave, "save", false, "point the config file's token at the keyring entry")
}

func runTokenSet(cmd *cobra.Command, args []string) error {
	token, err := promptForToken("Bot token")
	if err != nil {
		return err
	}
	token = strings.TrimPrefix(token, "Bot ")
	if token == "" {
		return errors.New("no token entered")
	}

	ref, err := secrets.StoreInKeyring(tokenUser, token)
	if err != nil {
		return err
	}
	ui.Printf("%s Token stored in keyring as %s\n", ui.OKTag(), ui.Bold(ref))

	if !tokenSave {
		ui.Infof("Set token: %s in the config file, or rerun with --save.", ref)
		return nil
	}
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	if err := config.SetToken(path, ref); err != nil {
		return err
	}
	ui.Printf("%s Updated %s\n", ui.OKTag(), path)
	return nil
}

// promptForToken reads a line without echo from a terminal, or a plain line
// from piped input.
func promptForToken(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(os.Stderr, prompt+": ")
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("failed to read token: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	return strings.TrimSpace(line), nil
}
