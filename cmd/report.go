package main

import (
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"crashgram/internal/classify"
	"crashgram/internal/exception"
)

func reportCmd() *cobra.Command {
	var (
		message string
		class   string
		parents []string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Report a synthetic exception through the full pipeline",
		Long: `Report a synthetic exception through the full pipeline: ignore filter,
detail extraction, template rendering, truncation and delivery.

Useful to check the bot token, chat id and templates of a deployment. The
report is suppressed, like any other, when the environment is local or the
classification is ignored.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, probe, err := newNotifier(true)
			if err != nil {
				return err
			}

			report := classify.New(class, message, parents...)
			if !client.ReportException(report, exception.Scope{Environment: probe}) {
				log.Warn().Str("class", class).Str("env", probe.Name()).Msg("Exception was not reported")
				return errors.New("exception was not reported")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&message, "message", "Test exception from crashgram", "exception message")
	cmd.Flags().StringVar(&class, "class", "crashgram.test", "exception classification")
	cmd.Flags().StringSliceVar(&parents, "parent", nil, "parent classifications the exception also satisfies")

	return cmd
}
