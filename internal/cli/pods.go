package cli

import (
	"github.com/spf13/cobra"

	"github.com/HamStudy/kubescroll/internal/logging"
	"github.com/HamStudy/kubescroll/internal/source"
)

func newPodsCmd(s *session) *cobra.Command {
	var (
		selector string
		noWatch  bool
		metrics  bool
	)

	cmd := &cobra.Command{
		Use:     "pods",
		Aliases: []string{"pod", "po"},
		Short:   "Scroll pods with their containers and usage",
		Example: `  # Pods of one app with CPU and memory usage
  kubescroll pods -l app=web --metrics`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationTUI: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := s.client()
			if err != nil {
				return err
			}
			src := source.NewPodSource(client, source.PodOptions{
				Namespace: s.flags.namespace,
				Selector:  selector,
				Watch:     !noWatch,
				Interval:  s.cfg.Sources.RefreshInterval,
				Metrics:   metrics,
				Logger:    logging.Component(s.logger, "source"),
			})
			return s.run(cmd, src)
		},
	}

	cmd.Flags().StringVarP(&selector, "selector", "l", "", "label selector")
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "list pods once and stop")
	cmd.Flags().BoolVar(&metrics, "metrics", false, "include CPU and memory from the metrics API")
	return cmd
}
