package providers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/davidleathers/fraudguard-backend/internal/domain/values"
)

// maxPageBytes bounds how much page text the keyword scan reads.
const maxPageBytes = 256 << 10

// HTTPPageFetcher retrieves page text for keyword scanning. It
// implements PageFetcher.
type HTTPPageFetcher struct {
	httpClient *http.Client
}

// NewHTTPPageFetcher creates a page fetcher with a bounded timeout and
// no redirect following, so a lure page cannot bounce the scanner to a
// different host.
func NewHTTPPageFetcher() *HTTPPageFetcher {
	return &HTTPPageFetcher{
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// FetchText retrieves up to maxPageBytes of the page body.
func (f *HTTPPageFetcher) FetchText(ctx context.Context, target values.NormalizedURL) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return "", fmt.Errorf("building page request: %w", err)
	}
	req.Header.Set("Accept", "text/html")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", target.String(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching %s: status %d", target.String(), resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", target.String(), err)
	}
	return string(body), nil
}
