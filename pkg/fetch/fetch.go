// Package fetch retrieves manifest text from raw-content URLs.
//
// A [Fetcher] maps a raw URL to one of three outcomes:
//
//   - found: (Result{Status: StatusFound, Text: body}, nil)
//   - absent: (Result{Status: StatusNotFound}, nil)
//   - transport failure: a non-nil error with code NETWORK_ERROR or TIMEOUT
//
// Absence is decided by a [Detector]. The default, [DefaultSentinel], compares
// the body against the fixed text raw.githubusercontent.com returns for a
// missing file. That is a host-specific heuristic; [StatusDetector] and [AnyOf] cover
// hosts that answer with a real 404.
//
// [HTTPFetcher] and [CommandFetcher] talk to the network. [CachedFetcher]
// memoizes any Fetcher through a cache.Cache. [Static] and [Func] serve tests.
package fetch

import (
	"context"
	"net/http"
	"unicode/utf8"

	apperr "github.com/matzehuels/reposgraph/pkg/errors"
)

// Status is the transport-level outcome of a successful fetch.
type Status int

const (
	StatusFound Status = iota
	StatusNotFound
)

func (s Status) String() string {
	switch s {
	case StatusFound:
		return "found"
	case StatusNotFound:
		return "not found"
	default:
		return "unknown"
	}
}

// Result is the outcome of a fetch that did not fail at the transport level.
type Result struct {
	Status Status
	Text   string // Manifest text; empty unless Status is StatusFound
}

// Found returns a found result carrying text.
func Found(text string) Result { return Result{Status: StatusFound, Text: text} }

// NotFound returns an absent result.
func NotFound() Result { return Result{Status: StatusNotFound} }

// Fetcher retrieves the manifest at a raw URL.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (Result, error)
}

// Func adapts a plain function to [Fetcher].
type Func func(ctx context.Context, rawURL string) (Result, error)

// Fetch calls f.
func (f Func) Fetch(ctx context.Context, rawURL string) (Result, error) {
	return f(ctx, rawURL)
}

// =============================================================================
// Absence detection
// =============================================================================

// Detector decides whether a response means "this manifest does not exist".
// status is the HTTP status code, or 0 when the transport has none.
type Detector interface {
	IsAbsent(status int, body string) bool
}

// DefaultSentinelBody is the body raw.githubusercontent.com serves for a
// missing file.
const DefaultSentinelBody = "404: Not Found"

// DefaultSentinel matches [DefaultSentinelBody] exactly.
var DefaultSentinel = Sentinel{Body: DefaultSentinelBody}

// Sentinel reports absence when the body equals Body exactly, whatever the
// status.
type Sentinel struct {
	Body string
}

func (s Sentinel) IsAbsent(_ int, body string) bool { return body == s.Body }

// StatusDetector reports absence when the HTTP status is one of Codes. An empty
// Codes means 404 and 410.
type StatusDetector struct {
	Codes []int
}

func (s StatusDetector) IsAbsent(status int, _ string) bool {
	codes := s.Codes
	if len(codes) == 0 {
		codes = []int{http.StatusNotFound, http.StatusGone}
	}
	for _, c := range codes {
		if status == c {
			return true
		}
	}
	return false
}

// AnyOf reports absence when any of ds does.
func AnyOf(ds ...Detector) Detector { return anyOf(ds) }

type anyOf []Detector

func (a anyOf) IsAbsent(status int, body string) bool {
	for _, d := range a {
		if d != nil && d.IsAbsent(status, body) {
			return true
		}
	}
	return false
}

// decode converts a fetched body to text, rejecting invalid UTF-8.
func decode(rawURL string, body []byte) (string, error) {
	if !utf8.Valid(body) {
		return "", apperr.New(apperr.ErrCodeNetwork, "fetch %s: response is not valid UTF-8", rawURL)
	}
	return string(body), nil
}
