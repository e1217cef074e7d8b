package cli

import (
	"time"

	"github.com/HamStudy/kubescroll/internal/core"
	"github.com/HamStudy/kubescroll/internal/k8s"
)

// requestTimeout bounds single API requests; streams and watches are not
// affected
const requestTimeout = 30 * time.Second

// client connects to the cluster selected by flags and environment
func (s *session) client() (*k8s.Client, error) {
	base, err := core.LoadConfig()
	if err != nil {
		return nil, err
	}

	opts := k8s.ClientOptions{
		Kubeconfig: base.KubeConfig,
		Context:    base.Context,
		Namespace:  base.Namespace,
		Timeout:    requestTimeout,
	}
	if s.flags.kubeconfig != "" {
		opts.Kubeconfig = s.flags.kubeconfig
	}
	if s.flags.context != "" {
		opts.Context = s.flags.context
	}
	if s.flags.namespace != "" {
		opts.Namespace = s.flags.namespace
	}

	client, err := k8s.NewClient(opts)
	if err != nil {
		return nil, err
	}
	s.logger.Debug().
		Str("context", opts.Context).
		Str("namespace", client.Namespace()).
		Msg("connected to cluster")
	return client, nil
}
