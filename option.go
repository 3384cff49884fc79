package streamr

import (
	"github.com/sam-thetutor/streamr/cache"
	"github.com/sam-thetutor/streamr/clients"
	"github.com/sam-thetutor/streamr/logger"
	"github.com/sam-thetutor/streamr/metrics"
)

type Option func(*Streamr)

func WithLogger(l logger.Logger) Option {
	return func(s *Streamr) {
		s.log = l
	}
}

func WithMetrics(r metrics.Recorder) Option {
	return func(s *Streamr) {
		s.rec = r
	}
}

func WithCache(store cache.Store) Option {
	return func(s *Streamr) {
		s.store = store
	}
}

func WithSigner(signer clients.Signer) Option {
	return func(s *Streamr) {
		s.signer = signer
	}
}

// WithClient swaps the contract client, mainly for tests and embedders with
// their own transport.
func WithClient(client clients.ContractClient) Option {
	return func(s *Streamr) {
		s.client = client
	}
}
