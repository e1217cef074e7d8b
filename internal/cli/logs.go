package cli

import (
	"github.com/spf13/cobra"

	"github.com/HamStudy/kubescroll/internal/logging"
	"github.com/HamStudy/kubescroll/internal/source"
)

func newLogsCmd(s *session) *cobra.Command {
	var (
		container     string
		allContainers bool
		previous      bool
		tail          int64
	)

	cmd := &cobra.Command{
		Use:   "logs POD",
		Short: "Scroll container logs of a pod",
		Example: `  # Tail the last 500 lines of a pod
  kubescroll logs web-7d4b9c-x2x9q

  # Follow every container of a pod
  kubescroll logs web-7d4b9c-x2x9q --all-containers -f

  # Logs of the previous instance of a crashed container
  kubescroll logs web-7d4b9c-x2x9q -c app --previous`,
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{annotationTUI: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := s.client()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("tail") {
				tail = s.cfg.Sources.TailLines
			}
			src := source.NewPodLogSource(client, source.PodLogOptions{
				Namespace:     s.flags.namespace,
				Pod:           args[0],
				Container:     container,
				AllContainers: allContainers,
				Follow:        s.cfg.Follow,
				TailLines:     tail,
				Previous:      previous,
				Mode:          s.mode(),
				Logger:        logging.Component(s.logger, "source"),
			})
			return s.run(cmd, src)
		},
	}

	cmd.Flags().StringVarP(&container, "container", "c", "", "container name")
	cmd.Flags().BoolVar(&allContainers, "all-containers", false, "stream every container of the pod")
	cmd.Flags().BoolVarP(&previous, "previous", "p", false, "logs of the previous container instance")
	cmd.Flags().Int64Var(&tail, "tail", 0, "lines of recent log to show; 0 shows all (default from config)")
	cmd.MarkFlagsMutuallyExclusive("container", "all-containers")
	return cmd
}
