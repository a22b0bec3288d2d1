// Package client holds the HTTP clients for the external merge service.
// Every call runs through a circuit breaker and retry with backoff, and
// errors are translated into domain errors at this boundary.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/boddenberg/timesheet-charts-go/internal/domain"
	"github.com/boddenberg/timesheet-charts-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("client")

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 << 10

// errorPayload is the error shape of the merge service. Some endpoints use
// "detail" instead of "error".
type errorPayload struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

// statusError classifies a non-2xx response. 4xx answers are permanent;
// anything else is retried.
func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	msg := strings.TrimSpace(string(body))
	var p errorPayload
	if json.Unmarshal(body, &p) == nil {
		switch {
		case p.Error != "":
			msg = p.Error
		case p.Detail != "":
			msg = p.Detail
		}
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return resilience.Permanent(&domain.ErrUnauthorized{Message: msg})
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return resilience.Permanent(&domain.ErrRemote{Status: resp.StatusCode, Message: msg})
	default:
		return fmt.Errorf("%s returned status %d: %s", resp.Request.URL.Path, resp.StatusCode, msg)
	}
}

// translate maps a breaker/retry failure onto the domain error taxonomy.
func translate(ctx context.Context, service string, err error) error {
	var unauthorized *domain.ErrUnauthorized
	var remote *domain.ErrRemote

	switch {
	case errors.As(err, &unauthorized):
		return unauthorized
	case errors.As(err, &remote):
		return remote
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return &domain.ErrCircuitOpen{Service: service}
	case errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
		return &domain.ErrTimeout{Operation: service}
	default:
		return &domain.ErrExternalService{Service: service, Err: err}
	}
}
