package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/vango-dev/lazydefine/pkg/customelements"
)

// DefaultHTTPTimeout bounds a single descriptor fetch.
const DefaultHTTPTimeout = 30 * time.Second

// maxDescriptorSize caps descriptor bodies.
const maxDescriptorSize = 1 << 20

// HTTP loads element descriptors over http and https.
type HTTP struct {
	client *http.Client
}

// NewHTTP creates an HTTP loader. A nil client gets one with
// DefaultHTTPTimeout.
func NewHTTP(client *http.Client) *HTTP {
	if client == nil {
		client = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	return &HTTP{client: client}
}

// Load fetches and decodes the descriptor at u. 204 No Content yields a nil
// implementation; 404 wraps ErrNotFound.
func (h *HTTP) Load(ctx context.Context, u *url.URL) (customelements.Implementation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json, application/yaml;q=0.9")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNoContent:
		return nil, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, u)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("loader: %s returned status %d", u, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDescriptorSize+1))
	if err != nil {
		return nil, err
	}
	if len(body) > maxDescriptorSize {
		return nil, fmt.Errorf("loader: descriptor at %s exceeds %d bytes", u, maxDescriptorSize)
	}
	return Decode(body, DetectFormat(resp.Header.Get("Content-Type"), u.Path))
}
