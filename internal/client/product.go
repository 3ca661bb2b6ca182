// Package client contains the outbound HTTP client the user service uses
// to propagate account lifecycle changes to the product service. The call
// is synchronous and single-shot: the admin request that triggered it
// blocks until the product service answers, and a failure is reported to
// that caller after the local change has already been committed. There is
// no retry, outbox or reconciliation; a failed propagation leaves the two
// stores divergent until the next successful call overwrites the state.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrPropagationFailed is returned when the product service answers with a
// non-2xx status. Handlers surface it as a server error to the admin
// caller.
var ErrPropagationFailed = errors.New("product service propagation failed")

// ErrMissingToken is returned when the inbound request carried no bearer
// token to forward. The propagation endpoints on the product service are
// admin-gated, so the call is pointless without the caller's credential.
var ErrMissingToken = errors.New("authorization token is missing")

// ProductClient talks to the product service's internal bulk endpoints.
// The caller's own bearer token is forwarded unmodified; the product
// service re-verifies it and checks the Admin role, never item ownership.
type ProductClient struct {
	BaseURL string
	HTTP    *http.Client
}

// NewProductClient builds a client for the product service at baseURL.
func NewProductClient(baseURL string) *ProductClient {
	// Transport defaults only: the propagation call deliberately has no
	// timeout or retry policy of its own.
	return &ProductClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{},
	}
}

// NotifyUserStatusChanged asks the product service to set is_deleted on
// every product of userID: isActive=false hides them all, isActive=true
// restores them all. The body is a bare JSON boolean.
func (c *ProductClient) NotifyUserStatusChanged(ctx context.Context, bearer string, userID uint64, isActive bool) error {
	url := fmt.Sprintf("%s/api/products/toggle-user-products/%d", c.BaseURL, userID)
	body := "false"
	if isActive {
		body = "true"
	}
	return c.send(ctx, http.MethodPut, url, bearer, body)
}

// NotifyUserDeleted asks the product service to physically remove every
// product of userID, soft-deleted rows included.
func (c *ProductClient) NotifyUserDeleted(ctx context.Context, bearer string, userID uint64) error {
	url := fmt.Sprintf("%s/api/products/user/%d", c.BaseURL, userID)
	return c.send(ctx, http.MethodDelete, url, bearer, "")
}

func (c *ProductClient) send(ctx context.Context, method, url, bearer, body string) error {
	bearer = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(bearer), "Bearer"))
	if bearer == "" {
		return ErrMissingToken
	}

	req, err := http.NewRequestWithContext(ctx, method, url, strings.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+bearer)
	if method == http.MethodPut {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPropagationFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: status %d", ErrPropagationFailed, resp.StatusCode)
	}
	return nil
}
