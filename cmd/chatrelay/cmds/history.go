package cmds

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/go-go-golems/chatrelay/pkg/ledger"
	"github.com/go-go-golems/chatrelay/pkg/store"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/tcnksm/go-input"
)

func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect and reset the conversation history",
	}
	cmd.AddCommand(NewHistoryShowCommand())
	cmd.AddCommand(NewHistoryResetCommand())
	return cmd
}

func NewHistoryShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the live conversation, or the whole history document",
		Long:  "Print the live conversation. The data directory is only read, never initialised.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			fs, err := store.NewFileStore(s.DataDir, store.WithDefaultSchemas())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			path, err := fs.Path(store.KindHistory)
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); os.IsNotExist(err) {
				_, err = fmt.Fprintf(out, "No conversation history in %s.\n", s.DataDir)
				return err
			}

			h, err := ledger.New(fs).Snapshot(cmd.Context())
			if err != nil {
				return err
			}

			if all, _ := cmd.Flags().GetBool("json"); all {
				b, err := json.MarshalIndent(h, "", "    ")
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, string(b))
				return err
			}

			entries := h.Entries()
			if len(entries) == 0 {
				_, err = fmt.Fprintf(out, "No messages in the current conversation (%d archived).\n", len(h.Archived))
				return err
			}
			for _, e := range entries {
				_, err = fmt.Fprintf(out, "[%s]\n  User: %s\n  Bot:  %s\n", e.MessageID, e.Exchange.UserInput, e.Exchange.ResponseText())
				if err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "Print the whole history document, archived conversations included")
	return cmd
}

func NewHistoryResetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Archive the live conversation and start a new one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			yes, _ := cmd.Flags().GetBool("yes")
			if !yes {
				ok, err := confirm(cmd, "Archive the current conversation? [y/n]")
				if err != nil {
					return err
				}
				if !ok {
					_, err = fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
					return err
				}
			}

			l, err := openLedger(cmd)
			if err != nil {
				return err
			}
			n, err := l.Reset(cmd.Context())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Conversation history has been reset (%d messages archived).\n", n)
			return err
		},
	}
	cmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func openLedger(cmd *cobra.Command) (*ledger.Ledger, error) {
	s, err := loadSettings(cmd)
	if err != nil {
		return nil, err
	}
	fs, err := openStore(cmd.Context(), s)
	if err != nil {
		return nil, err
	}
	return ledger.New(fs), nil
}

func confirm(cmd *cobra.Command, query string) (bool, error) {
	ui := &input.UI{
		Writer: cmd.OutOrStdout(),
		Reader: cmd.InOrStdin(),
	}

	answer, err := ui.Ask(query, &input.Options{
		Default:  "n",
		Required: true,
		Loop:     true,
		ValidateFunc: func(answer string) error {
			switch strings.ToLower(answer) {
			case "y", "n":
				return nil
			default:
				return errors.New("please enter 'y' or 'n'")
			}
		},
	})
	if err != nil {
		return false, errors.Wrap(err, "could not read confirmation")
	}
	return strings.ToLower(answer) == "y", nil
}
