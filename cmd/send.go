package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

var errNotDelivered = errors.New("message was not delivered")

func sendCmd() *cobra.Command {
	var markdown bool

	cmd := &cobra.Command{
		Use:   "send [text...]",
		Short: "Send a text message to the configured chat",
		Long: `Send a text message to the configured chat.

The words given as arguments are joined with spaces. Without arguments the
message is read from standard input. Text longer than the message limit is
cut and ends with "...".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if len(args) == 0 {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("failed to read message from stdin: %w", err)
				}
				text = strings.TrimRight(string(data), "\n")
			}
			if strings.TrimSpace(text) == "" {
				return errors.New("message text is empty")
			}

			client, _, err := newNotifier(true)
			if err != nil {
				return err
			}
			if !client.SendMessage(text, markdown) {
				return errNotDelivered
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&markdown, "markdown", false, "ask the provider to parse the text as markdown")

	return cmd
}
