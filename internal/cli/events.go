package cli

import (
	"github.com/spf13/cobra"

	"github.com/HamStudy/kubescroll/internal/logging"
	"github.com/HamStudy/kubescroll/internal/source"
)

func newEventsCmd(s *session) *cobra.Command {
	var (
		fieldSelector string
		noWatch       bool
	)

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Scroll and watch cluster events",
		Example: `  # Watch events in the current namespace
  kubescroll events

  # Only warnings, without watching
  kubescroll events --field-selector type=Warning --no-watch`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationTUI: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := s.client()
			if err != nil {
				return err
			}
			src := source.NewEventSource(client, source.EventOptions{
				Namespace:     s.flags.namespace,
				FieldSelector: fieldSelector,
				Watch:         !noWatch,
				Logger:        logging.Component(s.logger, "source"),
			})
			return s.run(cmd, src)
		},
	}

	cmd.Flags().StringVar(&fieldSelector, "field-selector", "", "filter events by field, e.g. type=Warning")
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "list current events and stop")
	return cmd
}
