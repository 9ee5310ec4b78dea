// Package source obtains raw schema text for the import pipeline.
package source

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"fastcontrol/internal/domain"
)

const (
	// DefaultField is the JSON member holding the dump text.
	DefaultField = "dumpSQL"
	// DefaultMaxBytes caps the size of a dump response body.
	DefaultMaxBytes int64 = 32 << 20
	// DefaultTimeout bounds a dump request when no client is supplied.
	DefaultTimeout = 15 * time.Second
)

// HTTPDumpProvider fetches a schema dump from a remote endpoint that answers a
// GET with a JSON object such as {"dumpSQL": "CREATE TABLE ..."}.
// A single request is made per call; there is no retry.
type HTTPDumpProvider struct {
	URL      string
	Field    string         // defaults to DefaultField
	Dialect  domain.Dialect // defaults to domain.DialectMySQL
	Client   *http.Client   // defaults to a client with DefaultTimeout
	MaxBytes int64          // defaults to DefaultMaxBytes
}

var _ domain.SchemaSource = (*HTTPDumpProvider)(nil)

// NewHTTPDumpProvider creates a provider for url with the default settings.
func NewHTTPDumpProvider(url string) *HTTPDumpProvider {
	return &HTTPDumpProvider{URL: url}
}

// FetchDump implements domain.SchemaSource. Every failure is reported as a
// *domain.SourceUnavailableError.
func (p *HTTPDumpProvider) FetchDump(ctx context.Context) (domain.RawSchema, error) {
	if p.URL == "" {
		return domain.RawSchema{}, domain.ErrSourceUnavailable(nil, "dump url is not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return domain.RawSchema{}, domain.ErrSourceUnavailable(err, "create dump request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client().Do(req)
	if err != nil {
		return domain.RawSchema{}, domain.ErrSourceUnavailable(err, "dump request failed")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domain.RawSchema{}, domain.ErrSourceUnavailable(nil, "dump endpoint returned status %d", resp.StatusCode)
	}

	limit := p.maxBytes()
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return domain.RawSchema{}, domain.ErrSourceUnavailable(err, "read dump response")
	}
	if int64(len(body)) > limit {
		return domain.RawSchema{}, domain.ErrSourceUnavailable(nil, "dump response exceeds %d bytes", limit)
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return domain.RawSchema{}, domain.ErrSourceUnavailable(err, "decode dump response")
	}
	field := p.field()
	raw, ok := payload[field]
	if !ok {
		return domain.RawSchema{}, domain.ErrSourceUnavailable(nil, "dump response has no %q member", field)
	}
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return domain.RawSchema{}, domain.ErrSourceUnavailable(nil, "dump member %q is not a string", field)
	}
	if text == "" {
		return domain.RawSchema{}, domain.ErrSourceUnavailable(nil, "dump member %q is empty", field)
	}

	return domain.RawSchema{Text: text, Dialect: p.dialect()}, nil
}

func (p *HTTPDumpProvider) client() *http.Client {
	if p.Client != nil {
		return p.Client
	}
	return &http.Client{
		Timeout: DefaultTimeout,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
	}
}

func (p *HTTPDumpProvider) field() string {
	if p.Field == "" {
		return DefaultField
	}
	return p.Field
}

func (p *HTTPDumpProvider) dialect() domain.Dialect {
	if p.Dialect == "" {
		return domain.DialectMySQL
	}
	return p.Dialect
}

func (p *HTTPDumpProvider) maxBytes() int64 {
	if p.MaxBytes <= 0 {
		return DefaultMaxBytes
	}
	return p.MaxBytes
}

// String describes the provider for logs.
func (p *HTTPDumpProvider) String() string {
	return fmt.Sprintf("http dump %s (%s)", p.URL, p.dialect())
}
