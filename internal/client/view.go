// Package client drives the read/write flow a user sees: the stored value,
// the write form, and the outcome of the last submission.
package client

import (
	"context"
	"log/slog"
	"math/big"
	"sync"

	"github.com/USA-RedDragon/contract-relay/internal/contract"
	"github.com/puzpuzpuz/xsync/v3"
)

type Status uint8

const (
	StatusIdle Status = iota
	StatusSubmitting
	StatusSucceeded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusSubmitting:
		return "submitting"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

type Reader interface {
	Retrieve(ctx context.Context) (*big.Int, error)
}

type Submitter interface {
	Submit(ctx context.Context, value *big.Int, walletID string) (string, error)
}

type Snapshot struct {
	Value        *big.Int
	Status       Status
	Error        string
	Hash         string
	InFlight     int64
	InputEnabled bool
}

// View is safe for concurrent use. Overlapping submissions are allowed and
// whichever finishes last decides the displayed status.
type View struct {
	reader      Reader
	submitter   Submitter
	explorerURL string
	inFlight    *xsync.Counter

	mu     sync.RWMutex
	value  *big.Int
	status Status
	err    string
	hash   string
}

func NewView(reader Reader, submitter Submitter, explorerURL string) *View {
	return &View{
		reader:      reader,
		submitter:   submitter,
		explorerURL: explorerURL,
		inFlight:    xsync.NewCounter(),
	}
}

// Mount performs the initial read.
func (v *View) Mount(ctx context.Context) error {
	return v.Refresh(ctx)
}

// Refresh reads the contract. A failed read leaves the previous value in place.
func (v *View) Refresh(ctx context.Context) error {
	value, err := v.reader.Retrieve(ctx)
	if err != nil {
		return err
	}
	v.mu.Lock()
	v.value = value
	v.mu.Unlock()
	return nil
}

// Submit sends one write. On success the contract is read again exactly once.
// The returned error is the same message shown in the view.
func (v *View) Submit(ctx context.Context, value *big.Int, walletID string) error {
	v.inFlight.Inc()
	defer v.inFlight.Dec()

	v.mu.Lock()
	v.status = StatusSubmitting
	v.err = ""
	v.hash = ""
	v.mu.Unlock()

	hash, err := v.submitter.Submit(ctx, value, walletID)
	if err != nil {
		v.mu.Lock()
		v.status = StatusFailed
		v.err = err.Error()
		v.mu.Unlock()
		return err
	}

	v.mu.Lock()
	v.status = StatusSucceeded
	v.hash = hash
	v.mu.Unlock()

	if err := v.Refresh(ctx); err != nil {
		slog.Warn("Failed to refresh contract value", "error", err)
	}
	return nil
}

func (v *View) Snapshot() Snapshot {
	v.mu.RLock()
	defer v.mu.RUnlock()
	var value *big.Int
	if v.value != nil {
		value = new(big.Int).Set(v.value)
	}
	return Snapshot{
		Value:        value,
		Status:       v.status,
		Error:        v.err,
		Hash:         v.hash,
		InFlight:     v.inFlight.Value(),
		InputEnabled: v.status != StatusSubmitting,
	}
}

// ExplorerLink is empty until a submission succeeds.
func (v *View) ExplorerLink() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.hash == "" {
		return ""
	}
	return contract.ExplorerTxURL(v.explorerURL, v.hash)
}
