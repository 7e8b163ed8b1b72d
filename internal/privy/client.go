// Package privy is a client for the parts of Privy's wallet API the relay needs:
// sending a transaction from an embedded wallet through a session signer, and
// verifying the access tokens Privy issues to logged-in users.
package privy

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/USA-RedDragon/contract-relay/internal/utils"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-errors/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	DefaultAPIURL = "https://api.privy.io"

	headerAppID                  = "privy-app-id"
	headerAuthorizationSignature = "privy-authorization-signature"

	methodSendTransaction = "eth_sendTransaction"
	chainTypeEthereum     = "ethereum"
)

var (
	ErrAppIDRequired            = errors.New("Privy app ID is required")
	ErrAppSecretRequired        = errors.New("Privy app secret is required")
	ErrAuthorizationKeyRequired = errors.New("Privy authorization key is required")
	ErrWalletIDRequired         = errors.New("wallet ID is required")
)

// APIError is a non-2xx answer from the API. Error returns the API's message as is.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

type Transaction struct {
	To      common.Address
	Data    []byte
	ChainID uint64
}

type SendTransactionRequest struct {
	WalletID    string
	CAIP2       string
	Transaction Transaction
}

type SendTransactionResponse struct {
	Hash          string `json:"hash"`
	CAIP2         string `json:"caip2"`
	TransactionID string `json:"transaction_id"`
}

type wireTransaction struct {
	To      string `json:"to"`
	Data    string `json:"data"`
	ChainID uint64 `json:"chain_id"`
}

type rpcParams struct {
	Transaction wireTransaction `json:"transaction"`
}

type rpcRequest struct {
	Method    string    `json:"method"`
	CAIP2     string    `json:"caip2"`
	ChainType string    `json:"chain_type"`
	Params    rpcParams `json:"params"`
}

type rpcResponse struct {
	Method string                  `json:"method"`
	Data   SendTransactionResponse `json:"data"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type Client struct {
	appID            string
	appSecret        string
	authorizationKey *ecdsa.PrivateKey
	apiURL           string
}

type Option func(*Client)

func WithAPIURL(apiURL string) Option {
	return func(c *Client) {
		if apiURL != "" {
			c.apiURL = strings.TrimSuffix(apiURL, "/")
		}
	}
}

func NewClient(appID, appSecret, authorizationKey string, opts ...Option) (*Client, error) {
	if appID == "" {
		return nil, ErrAppIDRequired
	}
	if appSecret == "" {
		return nil, ErrAppSecretRequired
	}
	if authorizationKey == "" {
		return nil, ErrAuthorizationKeyRequired
	}
	key, err := ParseAuthorizationKey(authorizationKey)
	if err != nil {
		return nil, err
	}

	c := &Client{
		appID:            appID,
		appSecret:        appSecret,
		authorizationKey: key,
		apiURL:           DefaultAPIURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SendTransaction signs and broadcasts a transaction from the given wallet.
// There are no retries; whatever the API answers is returned.
func (c *Client) SendTransaction(ctx context.Context, req SendTransactionRequest) (SendTransactionResponse, error) {
	ctx, span := otel.Tracer("privy").Start(ctx, "privy.SendTransaction")
	defer span.End()
	span.SetAttributes(
		attribute.String("privy.wallet_id", req.WalletID),
		attribute.String("privy.caip2", req.CAIP2),
	)

	resp, err := c.sendTransaction(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return resp, err
}

func (c *Client) sendTransaction(ctx context.Context, req SendTransactionRequest) (SendTransactionResponse, error) {
	if req.WalletID == "" {
		return SendTransactionResponse{}, ErrWalletIDRequired
	}

	body, err := canonicalJSON(rpcRequest{
		Method:    methodSendTransaction,
		CAIP2:     req.CAIP2,
		ChainType: chainTypeEthereum,
		Params: rpcParams{
			Transaction: wireTransaction{
				To:      req.Transaction.To.Hex(),
				Data:    hexutil.Encode(req.Transaction.Data),
				ChainID: req.Transaction.ChainID,
			},
		},
	})
	if err != nil {
		return SendTransactionResponse{}, fmt.Errorf("failed to encode request: %w", err)
	}

	rpcURL := fmt.Sprintf("%s/v1/wallets/%s/rpc", c.apiURL, url.PathEscape(req.WalletID))
	signature, err := authorizationSignature(c.authorizationKey, http.MethodPost, rpcURL, body, map[string]string{
		headerAppID: c.appID,
	})
	if err != nil {
		return SendTransactionResponse{}, err
	}

	resp, err := utils.HTTPRequest(ctx, http.MethodPost, rpcURL, bytes.NewReader(body), map[string]string{
		"Authorization":              "Basic " + base64.StdEncoding.EncodeToString([]byte(c.appID+":"+c.appSecret)),
		"Content-Type":               "application/json",
		headerAppID:                  c.appID,
		headerAuthorizationSignature: signature,
	})
	if err != nil {
		return SendTransactionResponse{}, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return SendTransactionResponse{}, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return SendTransactionResponse{}, newAPIError(resp.StatusCode, respBody)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return SendTransactionResponse{}, fmt.Errorf("failed to decode response: %w", err)
	}
	if rpcResp.Data.Hash == "" {
		return SendTransactionResponse{}, fmt.Errorf("response has no transaction hash")
	}
	return rpcResp.Data, nil
}

func newAPIError(statusCode int, body []byte) *APIError {
	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err == nil {
		if errResp.Error != "" {
			return &APIError{StatusCode: statusCode, Message: errResp.Error}
		}
		if errResp.Message != "" {
			return &APIError{StatusCode: statusCode, Message: errResp.Message}
		}
	}
	return &APIError{
		StatusCode: statusCode,
		Message:    fmt.Sprintf("Privy API returned %d %s", statusCode, http.StatusText(statusCode)),
	}
}
