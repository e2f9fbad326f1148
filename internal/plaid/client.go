// Package plaid es un cliente tipado y minimo de la API REST de Plaid.
package plaid

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrBadResponse indica que la respuesta no tiene la forma esperada.
	ErrBadResponse   = errors.New("plaid: unexpected response shape")
	ErrNotConfigured = errors.New("plaid: client not configured")
)

const maxSyncPages = 20

var environments = map[string]string{
	"sandbox":     "https://sandbox.plaid.com",
	"development": "https://development.plaid.com",
	"production":  "https://production.plaid.com",
}

// APIError es el cuerpo de error que devuelve Plaid.
type APIError struct {
	Status         int    `json:"-"`
	ErrorType      string `json:"error_type"`
	ErrorCode      string `json:"error_code"`
	ErrorMessage   string `json:"error_message"`
	DisplayMessage string `json:"display_message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("plaid api error: status=%d type=%s code=%s", e.Status, e.ErrorType, e.ErrorCode)
}

// Client implementa las llamadas que usa el backend.
type Client struct {
	baseURL  string
	clientID string
	secret   string
	client   *http.Client
	logger   *zap.Logger
}

// NewClient construye un cliente para el entorno dado (sandbox, development, production o una URL).
func NewClient(env, clientID, secret string, logger *zap.Logger) *Client {
	baseURL, ok := environments[strings.ToLower(strings.TrimSpace(env))]
	if !ok {
		baseURL = strings.TrimRight(env, "/")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:  baseURL,
		clientID: clientID,
		secret:   secret,
		client:   &http.Client{Timeout: 30 * time.Second},
		logger:   logger,
	}
}

func (c *Client) Configured() bool {
	return c != nil && c.clientID != "" && c.secret != "" && c.baseURL != ""
}

func (c *Client) CreateLinkToken(ctx context.Context, userID string) (LinkToken, error) {
	req := linkTokenCreateRequest{
		ClientName:   "PFM Dashboard",
		User:         linkUser{ClientUserID: userID},
		Products:     []string{"transactions"},
		CountryCodes: []string{"US"},
		Language:     "en",
	}
	var resp LinkToken
	if err := c.post(ctx, "/link/token/create", &req, &resp); err != nil {
		return LinkToken{}, err
	}
	if resp.LinkToken == "" {
		return LinkToken{}, fmt.Errorf("%w: missing link_token", ErrBadResponse)
	}
	return resp, nil
}

func (c *Client) ExchangePublicToken(ctx context.Context, publicToken string) (ItemAccess, error) {
	req := publicTokenExchangeRequest{PublicToken: publicToken}
	var resp ItemAccess
	if err := c.post(ctx, "/item/public_token/exchange", &req, &resp); err != nil {
		return ItemAccess{}, err
	}
	if resp.AccessToken == "" || resp.ItemID == "" {
		return ItemAccess{}, fmt.Errorf("%w: missing access_token or item_id", ErrBadResponse)
	}
	return resp, nil
}

// SyncTransactions recorre /transactions/sync desde el inicio y devuelve lo agregado.
func (c *Client) SyncTransactions(ctx context.Context, accessToken string) ([]Transaction, error) {
	var (
		out    []Transaction
		cursor string
	)
	for page := 0; page < maxSyncPages; page++ {
		req := transactionsSyncRequest{AccessToken: accessToken, Cursor: cursor}
		var resp transactionsSyncResponse
		if err := c.post(ctx, "/transactions/sync", &req, &resp); err != nil {
			return nil, err
		}
		for _, t := range resp.Added {
			if err := t.validate(); err != nil {
				return nil, err
			}
		}
		out = append(out, resp.Added...)
		if !resp.HasMore {
			return out, nil
		}
		if resp.NextCursor == "" || resp.NextCursor == cursor {
			return nil, fmt.Errorf("%w: has_more without a new cursor", ErrBadResponse)
		}
		cursor = resp.NextCursor
	}
	c.logger.Warn("plaid transactions sync truncated", zap.Int("pages", maxSyncPages))
	return out, nil
}

func (c *Client) GetAccounts(ctx context.Context, accessToken string) ([]Account, error) {
	req := accessTokenRequest{AccessToken: accessToken}
	var resp accountsGetResponse
	if err := c.post(ctx, "/accounts/get", &req, &resp); err != nil {
		return nil, err
	}
	for _, a := range resp.Accounts {
		if a.AccountID == "" || a.Type == "" {
			return nil, fmt.Errorf("%w: account without id or type", ErrBadResponse)
		}
	}
	return resp.Accounts, nil
}

func (c *Client) post(ctx context.Context, path string, body credentialed, out any) error {
	if !c.Configured() {
		return ErrNotConfigured
	}
	body.setCredentials(c.clientID, c.secret)

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode}
		if err := json.Unmarshal(raw, apiErr); err != nil {
			return fmt.Errorf("%w: status=%d", ErrBadResponse, resp.StatusCode)
		}
		c.logger.Warn("plaid request failed",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("error_code", apiErr.ErrorCode),
			zap.String("error_message", apiErr.ErrorMessage),
		)
		return apiErr
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	return nil
}
