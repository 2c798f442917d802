package fetch

import (
	"context"
	"sync"
)

// Static serves manifests from memory. URLs without an entry are absent.
// It records every requested URL, which makes it convenient in tests.
type Static struct {
	mu        sync.Mutex
	manifests map[string]string
	failures  map[string]error
	requests  []string
}

// NewStatic creates a Static fetcher over manifests keyed by raw URL.
func NewStatic(manifests map[string]string) *Static {
	m := make(map[string]string, len(manifests))
	for k, v := range manifests {
		m[k] = v
	}
	return &Static{manifests: m, failures: map[string]error{}}
}

// Fail makes every fetch of rawURL return err.
func (s *Static) Fail(rawURL string, err error) *Static {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[rawURL] = err
	return s
}

// Fetch returns the stored manifest, the registered failure, or NotFound.
func (s *Static) Fetch(ctx context.Context, rawURL string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, rawURL)
	if err, ok := s.failures[rawURL]; ok {
		return Result{}, err
	}
	if text, ok := s.manifests[rawURL]; ok {
		return Found(text), nil
	}
	return NotFound(), nil
}

// Requests returns the URLs fetched so far, in order.
func (s *Static) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

var _ Fetcher = (*Static)(nil)
