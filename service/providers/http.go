package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/brojonat/solwallet-tax/service/metrics"
)

// maxResponseSize bounds how much of an upstream body is read.
const maxResponseSize = 16 << 20

// DefaultTimeout is the per-call timeout used when none is configured.
const DefaultTimeout = 10 * time.Second

// newHTTPClient returns httpClient, or a default client when it is nil.
func newHTTPClient(httpClient *http.Client) *http.Client {
	if httpClient == nil {
		return &http.Client{Timeout: 2 * DefaultTimeout}
	}
	return httpClient
}

// getJSON performs one GET request bounded by timeout and decodes the JSON
// body into out. Transport failures and non-2xx statuses wrap
// ErrUpstreamUnavailable; undecodable bodies wrap ErrMalformedResponse.
func getJSON(
	ctx context.Context,
	httpClient *http.Client,
	timeout time.Duration,
	provider string,
	u string,
	header http.Header,
	m *metrics.Metrics,
	out any,
) (err error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	status := "success"
	defer metrics.Timer(time.Now(), func(d float64) {
		if err != nil {
			status = Classify(err)
		}
		m.RecordUpstreamRequest(provider, status, d)
	})()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%w: %s request: %w", ErrUpstreamUnavailable, provider, ctxErr)
		}
		// url.Error embeds the request URL, which may carry a credential.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return fmt.Errorf("%w: %s request failed: %v", ErrUpstreamUnavailable, provider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseSize))
		return fmt.Errorf("%w: %s returned status %d", ErrUpstreamUnavailable, provider, resp.StatusCode)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedResponse, provider, err)
	}

	return nil
}
