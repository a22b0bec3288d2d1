package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/boddenberg/timesheet-charts-go/internal/domain"
	"github.com/boddenberg/timesheet-charts-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
)

// AuthClient exchanges credentials for an access token.
type AuthClient struct {
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
}

// NewAuthClient creates a new AuthClient.
func NewAuthClient(httpClient *http.Client, baseURL string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *AuthClient {
	return &AuthClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		cb:         cb,
		cfg:        cfg,
	}
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	Token       string `json:"token"`
}

// Login posts the credentials to /auth/login and returns the access token.
func (c *AuthClient) Login(ctx context.Context, req *domain.LoginRequest) (string, error) {
	ctx, span := tracer.Start(ctx, "AuthClient.Login")
	defer span.End()

	body, err := json.Marshal(req)
	if err != nil {
		return "", err
	}

	result, err := c.cb.Execute(func() (any, error) {
		var token string
		innerErr := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/login", bytes.NewReader(body))
			if err != nil {
				return resilience.Permanent(err)
			}
			httpReq.Header.Set("Content-Type", "application/json")

			resp, err := c.httpClient.Do(httpReq)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode/100 != 2 {
				return statusError(resp)
			}

			var lr loginResponse
			if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
				return fmt.Errorf("decoding login response: %w", err)
			}
			token = lr.AccessToken
			if token == "" {
				token = lr.Token
			}
			if token == "" {
				return resilience.Permanent(&domain.ErrUnauthorized{Message: "login response carried no token"})
			}
			return nil
		})
		if innerErr != nil {
			return nil, innerErr
		}
		return token, nil
	})

	if err != nil {
		span.RecordError(err)
		return "", translate(ctx, "auth", err)
	}
	return result.(string), nil
}
