package cli

import (
	"fmt"

	"github.com/rshade/postquery/internal/logging"
	"github.com/rshade/postquery/internal/query"
	"github.com/rshade/postquery/internal/transport"
)

// services builds the transport and the single query client for this run.
// The caller closes the client.
func (s *session) services() (*transport.Client, *query.Client, error) {
	api, err := transport.New(s.cfg.Endpoint, transport.WithTimeout(s.cfg.Transport.Timeout))
	if err != nil {
		return nil, nil, err
	}

	client, err := query.New(
		query.WithStaleTime(s.cfg.Query.StaleTime),
		query.WithGCTime(s.cfg.Query.GCTime),
		query.WithLogger(logging.ComponentLogger(s.logger, "query")),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("creating query client: %w", err)
	}
	return api, client, nil
}
