// Package httpclient fetches the route from a running API over HTTP.
package httpclient

import (
	"context"
	"encoding/json"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/samirrijal/vehicle-tracker/internal/core/domain"
	"github.com/samirrijal/vehicle-tracker/internal/pkg/validation"
)

// DefaultTimeout bounds a fetch when ctx carries no earlier deadline.
const DefaultTimeout = 10 * time.Second

// Provider implements ports.LocationProvider against GET /api/vehicle-location.
type Provider struct {
	client  *fasthttp.Client
	url     string
	timeout time.Duration
}

// New creates a Provider for url. A nil client gets a default one.
func New(url string, client *fasthttp.Client) *Provider {
	if client == nil {
		client = &fasthttp.Client{
			Name:                "vehicle-tracker-player",
			MaxIdleConnDuration: 30 * time.Second,
		}
	}
	return &Provider{client: client, url: url, timeout: DefaultTimeout}
}

// FetchRoute performs one GET. Every failure is a *domain.TransportError.
// fasthttp has no context support, so ctx contributes only its deadline and
// a pre-flight cancellation check.
func (p *Provider) FetchRoute(ctx context.Context) (domain.Route, error) {
	if err := ctx.Err(); err != nil {
		return nil, &domain.TransportError{Op: "fetch", URL: p.url, Err: err}
	}

	deadline := time.Now().Add(p.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(p.url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set(fasthttp.HeaderAccept, "application/json")

	if err := p.client.DoDeadline(req, resp, deadline); err != nil {
		return nil, &domain.TransportError{Op: "fetch", URL: p.url, Err: err}
	}
	if status := resp.StatusCode(); status != fasthttp.StatusOK {
		return nil, &domain.TransportError{Op: "fetch", URL: p.url, StatusCode: status}
	}

	var route domain.Route
	if err := json.Unmarshal(resp.Body(), &route); err != nil {
		return nil, &domain.TransportError{Op: "decode", URL: p.url, Err: err}
	}
	if route == nil {
		route = domain.Route{}
	}
	if err := validation.Each(route); err != nil {
		return nil, &domain.TransportError{Op: "decode", URL: p.url, Err: err}
	}
	return route, nil
}
