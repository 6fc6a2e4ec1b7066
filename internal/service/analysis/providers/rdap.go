package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// DefaultRDAPBaseURL is the public RDAP bootstrap redirector.
const DefaultRDAPBaseURL = "https://rdap.org"

// RDAPClient resolves domain registration dates via the RDAP protocol.
// It implements RegistrationLookup.
type RDAPClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewRDAPClient creates an RDAP registration lookup. An empty baseURL
// selects the public redirector.
func NewRDAPClient(baseURL string, logger *zap.Logger) *RDAPClient {
	if baseURL == "" {
		baseURL = DefaultRDAPBaseURL
	}
	return &RDAPClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

type rdapResponse struct {
	Events []rdapEvent `json:"events"`
}

type rdapEvent struct {
	Action string `json:"eventAction"`
	Date   string `json:"eventDate"`
}

// RegistrationDate queries RDAP for the domain's registration event.
func (c *RDAPClient) RegistrationDate(ctx context.Context, domain string) (time.Time, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/domain/"+domain, nil)
	if err != nil {
		return time.Time{}, fmt.Errorf("building rdap request: %w", err)
	}
	req.Header.Set("Accept", "application/rdap+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return time.Time{}, fmt.Errorf("rdap query for %s: %w", domain, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return time.Time{}, fmt.Errorf("rdap query for %s: status %d", domain, resp.StatusCode)
	}

	var body rdapResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return time.Time{}, fmt.Errorf("decoding rdap response for %s: %w", domain, err)
	}

	for _, ev := range body.Events {
		if ev.Action != "registration" {
			continue
		}
		registered, err := time.Parse(time.RFC3339, ev.Date)
		if err != nil {
			c.logger.Warn("unparseable rdap registration date",
				zap.String("domain", domain),
				zap.String("date", ev.Date))
			continue
		}
		return registered, nil
	}

	return time.Time{}, fmt.Errorf("rdap response for %s has no registration event", domain)
}
