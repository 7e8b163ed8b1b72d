package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-nulltype"
	"gorm.io/gorm"
)

type TransactionStatus string

const (
	TransactionStatusPending TransactionStatus = "pending"
	TransactionStatusSent    TransactionStatus = "sent"
	TransactionStatusFailed  TransactionStatus = "failed"
)

// Transaction is one write request as it was handed to the wallet API.
// Hash is only set once the API accepted the transaction.
type Transaction struct {
	ID         uuid.UUID           `json:"id" gorm:"type:char(36);primaryKey"`
	WalletID   string              `json:"wallet_id" gorm:"index"`
	InputValue string              `json:"input_value"`
	CAIP2      string              `json:"caip2"`
	To         string              `json:"to" gorm:"size:42"`
	Status     TransactionStatus   `json:"status" gorm:"index"`
	Hash       nulltype.NullString `json:"hash" gorm:"size:66;index"`
	Error      string              `json:"error,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

func (t Transaction) TableName() string {
	return "transactions"
}

func (t *Transaction) BeforeCreate(_ *gorm.DB) error {
	if t.ID == uuid.Nil {
		id, err := uuid.NewRandom()
		if err != nil {
			return err
		}
		t.ID = id
	}
	return nil
}

func CreateTransaction(db *gorm.DB, tx *Transaction) error {
	if tx.Status == "" {
		tx.Status = TransactionStatusPending
	}
	return db.Create(tx).Error
}

func MarkTransactionSent(db *gorm.DB, id uuid.UUID, hash string) error {
	return db.Model(&Transaction{ID: id}).Updates(map[string]any{
		"status": TransactionStatusSent,
		"hash":   nulltype.NullStringOf(hash),
	}).Error
}

func MarkTransactionFailed(db *gorm.DB, id uuid.UUID, reason string) error {
	return db.Model(&Transaction{ID: id}).Updates(map[string]any{
		"status": TransactionStatusFailed,
		"error":  reason,
	}).Error
}

func FindTransactionByID(db *gorm.DB, id uuid.UUID) (Transaction, error) {
	var tx Transaction
	err := db.First(&tx, "id = ?", id).Error
	return tx, err
}

func FindTransactionByHash(db *gorm.DB, hash string) (Transaction, error) {
	var tx Transaction
	err := db.Where("hash = ?", hash).First(&tx).Error
	return tx, err
}

// ListTransactions returns the newest transactions first. An empty walletID lists all wallets.
func ListTransactions(db *gorm.DB, walletID string, limit int) ([]Transaction, error) {
	var txs []Transaction
	query := db.Order("created_at desc").Limit(limit)
	if walletID != "" {
		query = query.Where("wallet_id = ?", walletID)
	}
	err := query.Find(&txs).Error
	return txs, err
}
