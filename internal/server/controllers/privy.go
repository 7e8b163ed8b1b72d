package controllers

import (
	"context"
	"log/slog"
	"math/big"
	"net/http"
	"time"

	"github.com/USA-RedDragon/contract-relay/internal/config"
	"github.com/USA-RedDragon/contract-relay/internal/contract"
	"github.com/USA-RedDragon/contract-relay/internal/metrics"
	"github.com/USA-RedDragon/contract-relay/internal/privy"
	"github.com/USA-RedDragon/contract-relay/internal/server/apimodels"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TransactionSender signs and broadcasts a transaction on behalf of a wallet.
// *privy.Client satisfies it.
type TransactionSender interface {
	SendTransaction(ctx context.Context, req privy.SendTransactionRequest) (privy.SendTransactionResponse, error)
}

// ValueReader reads the stored value. *contract.Reader satisfies it.
type ValueReader interface {
	Retrieve(ctx context.Context) (*big.Int, error)
}

func POSTPrivy(c *gin.Context) {
	config, ok := c.MustGet("config").(*config.Config)
	if !ok {
		slog.Error("Failed to get config from context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Try again later"})
		return
	}
	metricsRecorder, ok := c.MustGet("metrics").(*metrics.Metrics)
	if !ok {
		slog.Error("Failed to get metrics from context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Try again later"})
		return
	}
	signer, ok := c.MustGet("signer").(TransactionSender)
	if !ok {
		slog.Error("Failed to get signer from context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Try again later"})
		return
	}

	var req apimodels.WriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		metricsRecorder.IncrementWriteRequests(metrics.OutcomeBadRequest)
		c.JSON(http.StatusBadRequest, apimodels.ErrorResponse{Error: "Invalid JSON body"})
		return
	}
	value, err := contract.ParseValue(req.InputValue)
	if err != nil {
		metricsRecorder.IncrementWriteRequests(metrics.OutcomeBadRequest)
		c.JSON(http.StatusBadRequest, apimodels.ErrorResponse{Error: "Invalid JSON body"})
		return
	}
	data, err := contract.EncodeStore(value)
	if err != nil {
		metricsRecorder.IncrementWriteRequests(metrics.OutcomeBadRequest)
		c.JSON(http.StatusBadRequest, apimodels.ErrorResponse{Error: "Invalid JSON body"})
		return
	}

	address, err := contract.ParseAddress(config.Contract.Address)
	if err != nil {
		slog.Error("Invalid contract address", "address", config.Contract.Address, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Try again later"})
		return
	}

	entry := submission{
		ID:         uuid.New(),
		WalletID:   req.WalletID,
		InputValue: value.String(),
		CAIP2:      contract.CAIP2(config.Chain.ID),
		To:         address.Hex(),
	}
	journalPending(c, entry)

	resp, err := sendTransaction(c.Request.Context(), signer, metricsRecorder, privy.SendTransactionRequest{
		WalletID: req.WalletID,
		CAIP2:    entry.CAIP2,
		Transaction: privy.Transaction{
			To:      address,
			Data:    data,
			ChainID: config.Chain.ID,
		},
	})
	if err != nil {
		slog.Error("Transaction failed", "walletId", req.WalletID, "inputValue", entry.InputValue, "error", err)
		metricsRecorder.IncrementWriteRequests(metrics.OutcomeFailed)
		journalFailed(c, entry, err.Error())
		c.JSON(http.StatusInternalServerError, apimodels.ErrorResponse{
			Error:   "Transaction failed",
			Details: err.Error(),
		})
		return
	}

	metricsRecorder.IncrementWriteRequests(metrics.OutcomeSuccess)
	journalSent(c, entry, resp.Hash)
	c.JSON(http.StatusOK, apimodels.WriteResponse{Hash: resp.Hash})
}

func sendTransaction(ctx context.Context, signer TransactionSender, metricsRecorder *metrics.Metrics, req privy.SendTransactionRequest) (privy.SendTransactionResponse, error) {
	metricsRecorder.IncrementWritesInFlight()
	defer metricsRecorder.DecrementWritesInFlight()
	start := time.Now()
	defer func() {
		metricsRecorder.ObserveSendTransaction(time.Since(start))
	}()
	return signer.SendTransaction(ctx, req)
}

func GETContract(c *gin.Context) {
	metricsRecorder, ok := c.MustGet("metrics").(*metrics.Metrics)
	if !ok {
		slog.Error("Failed to get metrics from context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Try again later"})
		return
	}
	reader, ok := c.MustGet("reader").(ValueReader)
	if !ok {
		slog.Error("Failed to get contract reader from context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Try again later"})
		return
	}

	value, err := reader.Retrieve(c.Request.Context())
	if err != nil {
		slog.Error("Failed to read contract", "error", err)
		metricsRecorder.IncrementContractReads(metrics.OutcomeFailed)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to read contract"})
		return
	}

	metricsRecorder.IncrementContractReads(metrics.OutcomeSuccess)
	c.JSON(http.StatusOK, apimodels.ContractResponse{Value: value.String()})
}

func GETConfig(c *gin.Context) {
	config, ok := c.MustGet("config").(*config.Config)
	if !ok {
		slog.Error("Failed to get config from context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Try again later"})
		return
	}

	c.JSON(http.StatusOK, apimodels.ConfigResponse{
		AppID:           config.Privy.AppID,
		ClientID:        config.Privy.ClientID,
		SignerID:        config.Privy.SignerID,
		ChainID:         config.Chain.ID,
		CAIP2:           contract.CAIP2(config.Chain.ID),
		ContractAddress: config.Contract.Address,
		ExplorerURL:     config.Chain.ExplorerURL,
	})
}
