package apimodels

import (
	"encoding/json"
	"time"
)

type WriteRequest struct {
	InputValue json.Number `json:"inputValue"`
	WalletID   string      `json:"walletId"`
}

// UnmarshalJSON accepts any JSON value for walletId. Non-string ids are kept
// as their JSON text and left for the wallet API to reject.
func (r *WriteRequest) UnmarshalJSON(data []byte) error {
	var raw struct {
		InputValue json.Number     `json:"inputValue"`
		WalletID   json.RawMessage `json:"walletId"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.InputValue = raw.InputValue
	r.WalletID = ""
	if len(raw.WalletID) == 0 || string(raw.WalletID) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw.WalletID, &r.WalletID); err != nil {
		r.WalletID = string(raw.WalletID)
	}
	return nil
}

type WriteResponse struct {
	Hash string `json:"hash"`
}

// ErrorResponse is the body of every failed request. Details carries the
// wallet API's message when a transaction was rejected.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type ContractResponse struct {
	Value string `json:"value"`
}

type ConfigResponse struct {
	AppID           string `json:"appId"`
	ClientID        string `json:"clientId,omitempty"`
	SignerID        string `json:"signerId,omitempty"`
	ChainID         uint64 `json:"chainId"`
	CAIP2           string `json:"caip2"`
	ContractAddress string `json:"contractAddress"`
	ExplorerURL     string `json:"explorerUrl,omitempty"`
}

type TransactionResponse struct {
	ID         string    `json:"id"`
	WalletID   string    `json:"walletId"`
	InputValue string    `json:"inputValue"`
	Status     string    `json:"status"`
	Hash       string    `json:"hash,omitempty"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}
