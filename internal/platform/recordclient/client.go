package recordclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"payslipgen/internal/domain/payslip"
)

const failurePrefix = "failed to save and generate payslip"

// Error is returned for any failed create call. Message carries the service
// error text when the service sent one.
type Error struct {
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	detail := e.Message
	if detail == "" && e.Err != nil {
		detail = e.Err.Error()
	}
	if detail == "" {
		detail = fmt.Sprintf("unexpected status %d", e.Status)
	}
	return failurePrefix + ": " + detail
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Client talks to the payslip record service.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Token   string
}

func New(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
		Token:   token,
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Create submits rec once. There is no retry; the caller keeps rec and may
// submit it again.
func (c *Client) Create(ctx context.Context, rec payslip.Record) (payslip.Payslip, error) {
	body, err := json.Marshal(rec)
	if err != nil {
		return payslip.Payslip{}, &Error{Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/payslips", bytes.NewReader(body))
	if err != nil {
		return payslip.Payslip{}, &Error{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return payslip.Payslip{}, &Error{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return payslip.Payslip{}, &Error{Status: resp.StatusCode, Err: err}
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)
	if resp.StatusCode < 200 || resp.StatusCode > 299 || !env.Success {
		failure := &Error{Status: resp.StatusCode, Err: decodeErr}
		if env.Error != nil {
			failure.Code = env.Error.Code
			failure.Message = env.Error.Message
		}
		return payslip.Payslip{}, failure
	}
	if decodeErr != nil {
		return payslip.Payslip{}, &Error{Status: resp.StatusCode, Err: decodeErr}
	}

	var created payslip.Payslip
	if err := json.Unmarshal(env.Data, &created); err != nil {
		return payslip.Payslip{}, &Error{Status: resp.StatusCode, Err: err}
	}
	return created, nil
}
