package controllers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/USA-RedDragon/contract-relay/internal/db/models"
	"github.com/USA-RedDragon/contract-relay/internal/events"
	"github.com/USA-RedDragon/contract-relay/internal/metrics"
	"github.com/USA-RedDragon/contract-relay/internal/server/apimodels"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	defaultTransactionLimit = 20
	maxTransactionLimit     = 100
)

type submission struct {
	ID         uuid.UUID
	WalletID   string
	InputValue string
	CAIP2      string
	To         string
}

// The journal and the event bus are best effort. Nothing here changes the
// response already decided by the handler.

func journalDB(c *gin.Context) *gorm.DB {
	db, ok := c.Get("db")
	if !ok {
		return nil
	}
	gormDB, _ := db.(*gorm.DB)
	return gormDB
}

func journalPending(c *gin.Context, entry submission) {
	db := journalDB(c)
	if db == nil {
		return
	}
	err := models.CreateTransaction(db.WithContext(c.Request.Context()), &models.Transaction{
		ID:         entry.ID,
		WalletID:   entry.WalletID,
		InputValue: entry.InputValue,
		CAIP2:      entry.CAIP2,
		To:         entry.To,
		Status:     models.TransactionStatusPending,
	})
	if err != nil {
		slog.Error("Failed to journal transaction", "id", entry.ID, "error", err)
	}
}

func journalSent(c *gin.Context, entry submission, hash string) {
	if db := journalDB(c); db != nil {
		if err := models.MarkTransactionSent(db.WithContext(c.Request.Context()), entry.ID, hash); err != nil {
			slog.Error("Failed to journal sent transaction", "id", entry.ID, "hash", hash, "error", err)
		}
	}
	emit(c, events.TransactionSentEvent{
		ID:         entry.ID.String(),
		WalletID:   entry.WalletID,
		InputValue: entry.InputValue,
		CAIP2:      entry.CAIP2,
		Hash:       hash,
		Time:       time.Now(),
	})
}

func journalFailed(c *gin.Context, entry submission, reason string) {
	if db := journalDB(c); db != nil {
		if err := models.MarkTransactionFailed(db.WithContext(c.Request.Context()), entry.ID, reason); err != nil {
			slog.Error("Failed to journal failed transaction", "id", entry.ID, "error", err)
		}
	}
	emit(c, events.TransactionFailedEvent{
		ID:         entry.ID.String(),
		WalletID:   entry.WalletID,
		InputValue: entry.InputValue,
		CAIP2:      entry.CAIP2,
		Error:      reason,
		Time:       time.Now(),
	})
}

func emit(c *gin.Context, event events.Event) {
	value, ok := c.Get("events")
	if !ok {
		return
	}
	bus, ok := value.(*events.EventBus)
	if !ok || bus == nil {
		return
	}
	if bus.Emit(event) {
		return
	}
	slog.Warn("Dropped transaction event", "type", event.GetType())
	if metricsRecorder, ok := c.MustGet("metrics").(*metrics.Metrics); ok {
		metricsRecorder.IncrementDroppedEvents()
	}
}

func GETTransactions(c *gin.Context) {
	db, ok := c.MustGet("db").(*gorm.DB)
	if !ok || db == nil {
		slog.Error("Failed to get db from context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Try again later"})
		return
	}

	limit := defaultTransactionLimit
	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = min(parsed, maxTransactionLimit)
	}

	txs, err := models.ListTransactions(db.WithContext(c.Request.Context()), c.Query("wallet_id"), limit)
	if err != nil {
		slog.Error("Failed to list transactions", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Try again later"})
		return
	}

	resp := make([]apimodels.TransactionResponse, 0, len(txs))
	for _, tx := range txs {
		hash := ""
		if tx.Hash.Valid() {
			hash = tx.Hash.String()
		}
		resp = append(resp, apimodels.TransactionResponse{
			ID:         tx.ID.String(),
			WalletID:   tx.WalletID,
			InputValue: tx.InputValue,
			Status:     string(tx.Status),
			Hash:       hash,
			Error:      tx.Error,
			CreatedAt:  tx.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, resp)
}
