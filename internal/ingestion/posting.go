package ingestion

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jonathan/resume-builder/internal/fetch"
)

var (
	// ErrHTTPRequestFailed is returned when the posting could not be downloaded
	ErrHTTPRequestFailed = errors.New("HTTP request failed")
	// ErrContentExtractionFailed is returned when no text could be extracted
	ErrContentExtractionFailed = errors.New("content extraction failed")
)

// Origin records where a job description came from.
type Origin string

const (
	OriginNone    Origin = ""
	OriginPasted  Origin = "pasted"
	OriginURL     Origin = "url"
	OriginBrowser Origin = "browser"
)

// Posting is a cleaned job description.
type Posting struct {
	Text     string
	Origin   Origin
	URL      string
	Platform fetch.Platform
	Hash     string // SHA256 hex digest of Text
}

// Empty reports whether the posting carries no text.
func (p *Posting) Empty() bool {
	return p == nil || p.Text == ""
}

// Options configures job description resolution.
type Options struct {
	Fetch *fetch.Options
	// UseBrowser re-renders short pages with Renderer.
	UseBrowser bool
	Renderer   fetch.Renderer
	Logger     *slog.Logger
}

func (o *Options) logger() *slog.Logger {
	if o == nil || o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

func newPosting(text string, origin Origin, url string) *Posting {
	sum := sha256.Sum256([]byte(text))
	return &Posting{
		Text:   text,
		Origin: origin,
		URL:    url,
		Hash:   hex.EncodeToString(sum[:]),
	}
}

// JobDescription resolves the job description for a submission.
// Pasted text wins over the URL; with neither it returns an empty posting.
func JobDescription(ctx context.Context, text, url string, opts *Options) (*Posting, error) {
	if strings.TrimSpace(text) != "" {
		stripped, err := StripHTML(text)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrContentExtractionFailed, err)
		}
		return newPosting(CleanText(stripped), OriginPasted, ""), nil
	}

	url = strings.TrimSpace(url)
	if url == "" {
		return &Posting{}, nil
	}
	return FromURL(ctx, url, opts)
}

// FromURL fetches a posting and extracts its text using platform-specific selectors.
func FromURL(ctx context.Context, url string, opts *Options) (*Posting, error) {
	if opts == nil {
		opts = &Options{}
	}
	logger := opts.logger()

	platform := fetch.DetectPlatform(url)
	logger.DebugContext(ctx, "fetching job posting", slog.String("url", url), slog.String("platform", string(platform)))

	result, err := fetch.URL(ctx, url, opts.Fetch)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrHTTPRequestFailed, err)
	}

	contentSelectors := fetch.PlatformContentSelectors(platform)
	noiseSelectors := fetch.PlatformNoiseSelectors(platform)

	var text string
	if result.IsHTML() {
		text, err = fetch.ExtractMainText(result.HTML, contentSelectors, noiseSelectors...)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrContentExtractionFailed, err)
		}
	} else {
		text = result.HTML
	}
	origin := OriginURL

	if opts.UseBrowser && opts.Renderer != nil && fetch.ShouldUseBrowser(text) {
		logger.DebugContext(ctx, "content too short, rendering in browser",
			slog.Int("chars", len(text)), slog.Int("min", fetch.MinContentLength))

		rendered, renderErr := opts.Renderer(ctx, url)
		if renderErr != nil {
			logger.WarnContext(ctx, "browser rendering failed, using HTTP content", slog.Any("error", renderErr))
		} else if browserText, extractErr := fetch.ExtractMainText(rendered, contentSelectors, noiseSelectors...); extractErr != nil {
			logger.WarnContext(ctx, "browser content extraction failed", slog.Any("error", extractErr))
		} else if len(browserText) > len(text) {
			text = browserText
			origin = OriginBrowser
		}
	}

	text = CleanText(text)
	if text == "" {
		return nil, fmt.Errorf("%w: no text found at %s", ErrContentExtractionFailed, url)
	}

	posting := newPosting(text, origin, url)
	posting.Platform = platform
	logger.DebugContext(ctx, "fetched job posting",
		slog.String("origin", string(origin)), slog.Int("chars", len(text)), slog.String("hash", posting.Hash[:12]))
	return posting, nil
}
