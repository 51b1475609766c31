package ports

import (
	"context"
	"errors"
	"fmt"

	"github.com/dkozyrev/jambot/internal/modules/music/domain"
)

// TrackResolver turns a source URL into playable track metadata.
type TrackResolver interface {
	// Resolve extracts track metadata for the given URL. With flat=true it
	// returns only lightweight identifiers for multi-track sources (used to
	// build the queue without resolving every entry upfront); with
	// flat=false it fully resolves exactly one track to a direct stream
	// URL, verified live before returning. Failures are *ResolutionError.
	Resolve(ctx context.Context, url string, flat bool) (*Resolution, error)
}

// Resolution is the outcome of a successful resolver call: either a single
// fully resolved track, or the ordered entry list of a multi-track source.
type Resolution struct {
	// Track is set for flat=false calls (exactly one resolved track).
	Track *domain.ResolvedTrack

	// Entries is set when the source is playlist-shaped. Entries are
	// lightweight and unresolved; the caller resolves each one as it
	// becomes current.
	Entries []domain.PendingTrack
}

// IsPlaylist reports whether the resolution describes a multi-track source.
func (r *Resolution) IsPlaylist() bool {
	return len(r.Entries) > 1
}

// ResolutionErrorKind classifies resolver failures for user guidance.
type ResolutionErrorKind string

const (
	KindNotFound          ResolutionErrorKind = "not_found"
	KindRequiresAuth      ResolutionErrorKind = "requires_auth"
	KindFormatUnavailable ResolutionErrorKind = "format_unavailable"
	KindNetworkTimeout    ResolutionErrorKind = "network_timeout"
	KindUnknown           ResolutionErrorKind = "unknown"
)

// ResolutionStage distinguishes where a resolution failed: the extraction
// call itself, or the liveness probe against the resolved stream URL.
type ResolutionStage string

const (
	StageExtract ResolutionStage = "extract"
	StageProbe   ResolutionStage = "probe"
)

// ResolutionError is a typed resolver failure. Callers switch on Kind to
// pick user guidance instead of pattern-matching error text.
type ResolutionError struct {
	Kind  ResolutionErrorKind
	Stage ResolutionStage
	Err   error
}

func (e *ResolutionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("resolution failed (%s, %s)", e.Stage, e.Kind)
	}
	return fmt.Sprintf("resolution failed (%s, %s): %v", e.Stage, e.Kind, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// AsResolutionError unwraps err as a *ResolutionError, or nil.
func AsResolutionError(err error) *ResolutionError {
	var resErr *ResolutionError
	if errors.As(err, &resErr) {
		return resErr
	}
	return nil
}
