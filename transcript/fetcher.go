// Package transcript pulls a shared AI conversation page, extracts the
// conversation block and records a model-written summary as an activity.
package transcript

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

const maxPageBytes = 8 << 20

var (
	ErrInvalidLink   = errors.New("invalid transcript link")
	ErrBlockNotFound = errors.New("failed to extract the conversation block")
	ErrUpstream      = errors.New("upstream request failed")
)

// The share page embeds the conversation as escaped JSON; once backslashes
// are removed the messages sit between the system role marker and the
// moderation results.
var conversationBlock = regexp.MustCompile(`(?s)"role","system".*?"moderation_results"`)

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type FetcherConfig struct {
	AllowedPrefixes []string
	Timeout         time.Duration
	UserAgent       string
	HTTPClient      httpDoer
}

type Fetcher struct {
	allowedPrefixes []string
	userAgent       string
	httpClient      httpDoer
}

func NewFetcher(cfg FetcherConfig) (*Fetcher, error) {
	prefixes := make([]string, 0, len(cfg.AllowedPrefixes))
	for _, prefix := range cfg.AllowedPrefixes {
		if prefix = strings.TrimSpace(prefix); prefix != "" {
			prefixes = append(prefixes, prefix)
		}
	}
	if len(prefixes) == 0 {
		return nil, errors.New("at least one allowed link prefix is required")
	}

	doer := cfg.HTTPClient
	if doer == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		doer = &http.Client{Timeout: timeout}
	}

	return &Fetcher{
		allowedPrefixes: prefixes,
		userAgent:       strings.TrimSpace(cfg.UserAgent),
		httpClient:      doer,
	}, nil
}

// ValidateLink checks link against the allowed share prefixes.
func (f *Fetcher) ValidateLink(link string) error {
	link = strings.TrimSpace(link)
	if link == "" {
		return fmt.Errorf("%w: link is required", ErrInvalidLink)
	}
	for _, prefix := range f.allowedPrefixes {
		if strings.HasPrefix(link, prefix) {
			return nil
		}
	}
	return fmt.Errorf("%w: %q must start with one of %s", ErrInvalidLink, link, strings.Join(f.allowedPrefixes, ", "))
}

// Fetch downloads link and returns the extracted conversation block.
func (f *Fetcher) Fetch(ctx context.Context, link string) (string, error) {
	link = strings.TrimSpace(link)
	if err := f.ValidateLink(link); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return "", fmt.Errorf("%w: create request: %v", ErrInvalidLink, err)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: fetch %s: %w", ErrUpstream, link, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf(
			"%w: fetch %s failed with status %d: %s",
			ErrUpstream,
			link,
			resp.StatusCode,
			strings.TrimSpace(string(body)),
		)
	}

	page, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %w", ErrUpstream, link, err)
	}
	return ExtractBlock(string(page))
}

// ExtractBlock strips backslashes from raw and returns the first
// conversation block, trimmed.
func ExtractBlock(raw string) (string, error) {
	cleaned := strings.ReplaceAll(raw, `\`, "")
	match := conversationBlock.FindString(cleaned)
	if match == "" {
		return "", ErrBlockNotFound
	}
	return strings.TrimSpace(match), nil
}
