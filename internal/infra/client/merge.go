package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/boddenberg/timesheet-charts-go/internal/domain"
	"github.com/boddenberg/timesheet-charts-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
)

// MergeClient posts CSV exports to the merge service.
type MergeClient struct {
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
}

// NewMergeClient creates a new MergeClient.
func NewMergeClient(httpClient *http.Client, baseURL string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *MergeClient {
	return &MergeClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		cb:         cb,
		cfg:        cfg,
	}
}

// Merge uploads the files as multipart form data to /merge, authenticated
// with token when one is given.
func (c *MergeClient) Merge(ctx context.Context, token string, req *domain.MergeRequest) (*domain.MergeResult, error) {
	ctx, span := tracer.Start(ctx, "MergeClient.Merge")
	defer span.End()
	span.SetAttributes(attribute.Int("merge.files", len(req.Files)))

	body, contentType, err := encodeMultipart(req)
	if err != nil {
		return nil, fmt.Errorf("encoding merge request: %w", err)
	}

	result, err := c.cb.Execute(func() (any, error) {
		var out domain.MergeResult
		innerErr := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/merge", bytes.NewReader(body))
			if err != nil {
				return resilience.Permanent(err)
			}
			httpReq.Header.Set("Content-Type", contentType)
			httpReq.Header.Set("Accept", "application/json")
			if token != "" {
				httpReq.Header.Set("Authorization", "Bearer "+token)
			}

			resp, err := c.httpClient.Do(httpReq)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode/100 != 2 {
				return statusError(resp)
			}

			out = domain.MergeResult{}
			if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
				return fmt.Errorf("decoding merge response: %w", err)
			}
			if out.Error != "" {
				return resilience.Permanent(&domain.ErrRemote{Status: resp.StatusCode, Message: out.Error})
			}
			return nil
		})
		if innerErr != nil {
			return nil, innerErr
		}
		return &out, nil
	})

	if err != nil {
		span.RecordError(err)
		return nil, translate(ctx, "merge", err)
	}

	res := result.(*domain.MergeResult)
	span.SetAttributes(
		attribute.String("merge.mode", res.Mode),
		attribute.Int("merge.csv_bytes", len(res.DownloadCSV)),
	)
	return res, nil
}

func encodeMultipart(req *domain.MergeRequest) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range req.Files {
		name := f.Filename
		if name == "" {
			name = f.Field + ".csv"
		}
		part, err := w.CreateFormFile(f.Field, name)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(f.Content); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
