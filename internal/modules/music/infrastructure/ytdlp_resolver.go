package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"
	"golang.org/x/time/rate"

	"github.com/dkozyrev/jambot/internal/modules/music/application/ports"
	"github.com/dkozyrev/jambot/internal/modules/music/domain"
)

const (
	// maxPlaylistEntries caps how many playlist entries are extracted per
	// request. Larger playlists are truncated.
	maxPlaylistEntries = 120

	extractRetries = "10"
	socketTimeout  = 15.0 // seconds, passed to yt-dlp
	probeTimeout   = 5 * time.Second

	defaultResolvesPerSecond = 2
)

// browserUserAgents is rotated per extraction so repeated requests don't
// present a single fingerprint.
var browserUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:125.0) Gecko/20100101 Firefox/125.0",
}

// ResolverOptions configures the yt-dlp resolver.
type ResolverOptions struct {
	// CookiesFile is a Netscape-format cookies file passed to yt-dlp for
	// age-restricted or member content. Empty disables it.
	CookiesFile string

	// Proxy is forwarded to yt-dlp for all extraction traffic. Empty
	// disables it.
	Proxy string

	// ResolvesPerSecond rate-limits extraction calls across all guilds.
	ResolvesPerSecond float64
}

// YtdlpResolver resolves source URLs by shelling out to yt-dlp. Flat calls
// for playlist-shaped sources consult the playlist cache before extracting.
type YtdlpResolver struct {
	opts       ResolverOptions
	cache      ports.PlaylistCache // may be nil
	limiter    *rate.Limiter
	httpClient *http.Client
}

// NewYtdlpResolver creates a YtdlpResolver. cache may be nil to disable
// playlist caching.
func NewYtdlpResolver(cache ports.PlaylistCache, opts ResolverOptions) *YtdlpResolver {
	rps := opts.ResolvesPerSecond
	if rps <= 0 {
		rps = defaultResolvesPerSecond
	}

	return &YtdlpResolver{
		opts:    opts,
		cache:   cache,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		httpClient: &http.Client{
			Timeout: probeTimeout,
		},
	}
}

// Resolve implements ports.TrackResolver.
func (r *YtdlpResolver) Resolve(ctx context.Context, url string, flat bool) (*ports.Resolution, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, &ports.ResolutionError{Kind: ports.KindNetworkTimeout, Stage: ports.StageExtract, Err: err}
	}

	if flat {
		return r.resolveFlat(ctx, url)
	}
	return r.resolveFull(ctx, url)
}

func (r *YtdlpResolver) resolveFlat(ctx context.Context, url string) (*ports.Resolution, error) {
	if r.cache != nil {
		entries, ok, err := r.cache.Get(url)
		if err != nil {
			slog.Warn("playlist cache lookup failed", "url", url, "error", err)
		} else if ok {
			slog.Debug("playlist cache hit", "url", url, "entries", len(entries))
			return &ports.Resolution{Entries: entries}, nil
		}
	}

	res, err := r.command().
		FlatPlaylist().
		Print("%(url)s\t%(title)s").
		PlaylistItems(fmt.Sprintf("1-%d", maxPlaylistEntries)).
		Run(ctx, url)
	if err != nil {
		return nil, classifyExtractError(err, stderrOf(res))
	}

	entries := parseFlatEntries(res.Stdout, url)
	if len(entries) == 0 {
		return nil, &ports.ResolutionError{
			Kind:  ports.KindNotFound,
			Stage: ports.StageExtract,
			Err:   errors.New("no entries extracted"),
		}
	}

	// Only playlist shapes are worth caching: single-video flat results
	// are trivial and direct stream URLs expire anyway.
	if len(entries) > 1 && r.cache != nil {
		if err := r.cache.Put(url, entries); err != nil {
			slog.Warn("playlist cache store failed", "url", url, "error", err)
		}
	}

	return &ports.Resolution{Entries: entries}, nil
}

func (r *YtdlpResolver) resolveFull(ctx context.Context, url string) (*ports.Resolution, error) {
	res, err := r.command().
		Format("bestaudio/best").
		NoPlaylist().
		Print("%(url)s\t%(title)s").
		Run(ctx, url)
	if err != nil {
		return nil, classifyExtractError(err, stderrOf(res))
	}

	streamURL, title, ok := parseResolvedTrack(res.Stdout)
	if !ok {
		return nil, &ports.ResolutionError{
			Kind:  ports.KindFormatUnavailable,
			Stage: ports.StageExtract,
			Err:   errors.New("no stream URL extracted"),
		}
	}

	// Extracted stream URLs sometimes point at dead CDN hosts. Verify the
	// URL answers before handing it to the decoder.
	if err := r.probe(ctx, streamURL); err != nil {
		return nil, err
	}

	return &ports.Resolution{
		Track: &domain.ResolvedTrack{
			SourceURL: url,
			StreamURL: streamURL,
			Title:     title,
		},
	}, nil
}

func (r *YtdlpResolver) command() *ytdlp.Command {
	cmd := ytdlp.New().
		NoWarnings().
		IgnoreConfig().
		SocketTimeout(socketTimeout).
		Retries(extractRetries).
		UserAgent(browserUserAgents[rand.IntN(len(browserUserAgents))])

	if r.opts.CookiesFile != "" {
		cmd.Cookies(r.opts.CookiesFile)
	}
	if r.opts.Proxy != "" {
		cmd.Proxy(r.opts.Proxy)
	}

	return cmd
}

// probe issues a HEAD request against the resolved stream URL. Anything but
// a plain 200 is treated as dead: redirects on CDN URLs usually lead to
// error pages, not media.
func (r *YtdlpResolver) probe(ctx context.Context, streamURL string) error {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, streamURL, nil)
	if err != nil {
		return &ports.ResolutionError{Kind: ports.KindUnknown, Stage: ports.StageProbe, Err: err}
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return &ports.ResolutionError{Kind: ports.KindNetworkTimeout, Stage: ports.StageProbe, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return &ports.ResolutionError{
			Kind:  probeStatusKind(resp.StatusCode),
			Stage: ports.StageProbe,
			Err:   fmt.Errorf("stream URL answered %d", resp.StatusCode),
		}
	}

	return nil
}

func probeStatusKind(status int) ports.ResolutionErrorKind {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ports.KindRequiresAuth
	case http.StatusNotFound, http.StatusGone:
		return ports.KindNotFound
	default:
		return ports.KindUnknown
	}
}

// parseFlatEntries parses tab-separated url/title lines from a flat
// extraction. Lines whose URL prints as NA fall back to the source URL, as
// happens for some single-video extractors in flat mode.
func parseFlatEntries(stdout, sourceURL string) []domain.PendingTrack {
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	entries := make([]domain.PendingTrack, 0, len(lines))
	for _, line := range lines {
		parts := strings.Split(line, "\t")
		if len(parts) < 2 {
			continue
		}
		url, title := parts[0], parts[1]
		if url == "" || url == "NA" {
			url = sourceURL
		}
		if title == "NA" {
			title = ""
		}
		entries = append(entries, domain.NewPendingTrack(url, title))
	}
	return entries
}

// parseResolvedTrack parses the first url/title line of a full extraction.
func parseResolvedTrack(stdout string) (streamURL, title string, ok bool) {
	for _, line := range strings.Split(strings.TrimSpace(stdout), "\n") {
		parts := strings.Split(line, "\t")
		if len(parts) < 2 || parts[0] == "" || parts[0] == "NA" {
			continue
		}
		title = parts[1]
		if title == "NA" {
			title = ""
		}
		if title == "" {
			title = domain.UnknownTitle
		}
		return parts[0], title, true
	}
	return "", "", false
}

func stderrOf(res *ytdlp.Result) string {
	if res == nil {
		return ""
	}
	return res.Stderr
}

// classifyExtractError maps a yt-dlp failure to a ResolutionError by
// pattern-matching its stderr, so callers can give actionable guidance.
func classifyExtractError(err error, stderr string) *ports.ResolutionError {
	kind := ports.KindUnknown
	text := strings.ToLower(stderr + " " + err.Error())

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = ports.KindNetworkTimeout
	case strings.Contains(text, "sign in") ||
		strings.Contains(text, "login required") ||
		strings.Contains(text, "members-only") ||
		strings.Contains(text, "private video") ||
		strings.Contains(text, "age-restricted"):
		kind = ports.KindRequiresAuth
	case strings.Contains(text, "video unavailable") ||
		strings.Contains(text, "not found") ||
		strings.Contains(text, "404") ||
		strings.Contains(text, "has been removed"):
		kind = ports.KindNotFound
	case strings.Contains(text, "requested format") ||
		strings.Contains(text, "no video formats") ||
		strings.Contains(text, "unsupported url"):
		kind = ports.KindFormatUnavailable
	case strings.Contains(text, "timed out") ||
		strings.Contains(text, "timeout") ||
		strings.Contains(text, "connection reset") ||
		strings.Contains(text, "temporary failure"):
		kind = ports.KindNetworkTimeout
	}

	return &ports.ResolutionError{Kind: kind, Stage: ports.StageExtract, Err: err}
}

// Ensure YtdlpResolver implements TrackResolver.
var _ ports.TrackResolver = (*YtdlpResolver)(nil)
