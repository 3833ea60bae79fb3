package gameclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"wordduel/internal/apperr"
)

// baseClient wraps the HTTP plumbing shared by all gateway operations:
// request construction, default headers, and normalization of every failure
// into the apperr taxonomy. Gateway methods never see a raw transport error.
type baseClient struct {
	baseURL string
	client  *http.Client
	headers map[string]string
}

func newBaseClient(baseURL string, timeout time.Duration) *baseClient {
	return &baseClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: timeout,
		},
		headers: make(map[string]string),
	}
}

func (c *baseClient) setHeader(key, value string) {
	c.headers[key] = value
}

// errorBody is the authority's error envelope.
type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// doJSON performs one request and decodes a 2xx response into out. Failures
// come back classified: network trouble and timeouts are Transient, authority
// reason codes are DomainRejection (or InvalidInput when the authority says
// so), anything else Unknown.
func (c *baseClient) doJSON(ctx context.Context, method, endpoint string, body any, out any) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return apperr.Unknown("encode request", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return apperr.Unknown("create request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return apperr.Transient(apperr.ReasonTimeout, "request timed out", err)
		}
		if errors.Is(err, context.Canceled) {
			return apperr.Unknown("request cancelled", err)
		}
		return apperr.Transient(apperr.ReasonNetwork, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return apperr.Unknown("decode response", err)
		}
		return nil
	}

	return c.classifyFailure(method, endpoint, resp)
}

func (c *baseClient) classifyFailure(method, endpoint string, resp *http.Response) error {
	var eb errorBody
	decodeErr := json.NewDecoder(resp.Body).Decode(&eb)
	if decodeErr == nil && eb.Error.Code != "" {
		log.Debug().
			Str("method", method).
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode).
			Str("code", eb.Error.Code).
			Msg("authority rejected request")
		if eb.Error.Code == apperr.ReasonInvalidInput {
			return apperr.Invalid(eb.Error.Message)
		}
		return apperr.Domain(eb.Error.Code, eb.Error.Message)
	}

	switch {
	case resp.StatusCode == http.StatusRequestTimeout,
		resp.StatusCode == http.StatusTooManyRequests,
		resp.StatusCode >= 500:
		return apperr.Transient(apperr.ReasonNetwork,
			fmt.Sprintf("authority returned status %d", resp.StatusCode), nil)
	default:
		return apperr.Unknown(fmt.Sprintf("authority returned status %d", resp.StatusCode), nil)
	}
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
