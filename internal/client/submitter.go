package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"

	"github.com/USA-RedDragon/contract-relay/internal/server/apimodels"
	"github.com/USA-RedDragon/contract-relay/internal/utils"
)

// ResponseError is a non-2xx answer from the write endpoint.
type ResponseError struct {
	StatusCode int
	Message    string
}

func (e *ResponseError) Error() string {
	return e.Message
}

// HTTPSubmitter posts writes to the relay's /api/privy endpoint.
type HTTPSubmitter struct {
	backendURL  string
	accessToken string
}

func NewHTTPSubmitter(backendURL, accessToken string) *HTTPSubmitter {
	return &HTTPSubmitter{
		backendURL:  strings.TrimSuffix(backendURL, "/"),
		accessToken: accessToken,
	}
}

func (s *HTTPSubmitter) Submit(ctx context.Context, value *big.Int, walletID string) (string, error) {
	if value == nil {
		return "", fmt.Errorf("value is required")
	}
	body, err := json.Marshal(apimodels.WriteRequest{
		InputValue: json.Number(value.String()),
		WalletID:   walletID,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	headers := map[string]string{
		"Content-Type": "application/json",
	}
	if s.accessToken != "" {
		headers["Authorization"] = "Bearer " + s.accessToken
	}

	resp, err := utils.HTTPRequest(ctx, http.MethodPost, s.backendURL+"/api/privy", bytes.NewReader(body), headers)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", newResponseError(resp.StatusCode, respBody)
	}

	var writeResp apimodels.WriteResponse
	if err := json.Unmarshal(respBody, &writeResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	return writeResp.Hash, nil
}

// newResponseError prefers the wallet API's details over the relay's summary.
func newResponseError(statusCode int, body []byte) *ResponseError {
	var errResp apimodels.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil {
		if errResp.Details != "" {
			return &ResponseError{StatusCode: statusCode, Message: errResp.Details}
		}
		if errResp.Error != "" {
			return &ResponseError{StatusCode: statusCode, Message: errResp.Error}
		}
	}
	return &ResponseError{
		StatusCode: statusCode,
		Message:    fmt.Sprintf("HTTP error! status: %d", statusCode),
	}
}
