package ledger

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"sync"

	"github.com/Dante9988/AI-Content-Checker-Blockchain-Proof/internal/app/domain/verification"
)

// MemoryLedger is an in-memory Gateway for testing and local simulation. It
// enforces the same contract rules as the live ledger: unique records,
// writer authorization, balance and allowance checks on paid appends.
type MemoryLedger struct {
	mu sync.RWMutex

	registry   string
	balances   map[string]int64
	allowances map[string]map[string]int64
	verifiers  map[string]bool
	records    map[verification.Fingerprint]verification.Record
	txCounter  uint64
	blockBase  uint64
}

var _ Gateway = (*MemoryLedger)(nil)

// NewMemoryLedger creates an empty in-memory ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		registry:   "memory-registry",
		balances:   make(map[string]int64),
		allowances: make(map[string]map[string]int64),
		verifiers:  make(map[string]bool),
		records:    make(map[verification.Fingerprint]verification.Record),
		blockBase:  1_000_000,
	}
}

// AddVerifier marks an account as an authorized writer.
func (l *MemoryLedger) AddVerifier(account string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.verifiers[account] = true
}

// Fund credits an account balance directly (test setup).
func (l *MemoryLedger) Fund(account string, amount int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[account] += amount
}

// SetAllowance sets an allowance directly (test setup).
func (l *MemoryLedger) SetAllowance(owner, spender string, amount int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.allowances[owner] == nil {
		l.allowances[owner] = make(map[string]int64)
	}
	l.allowances[owner][spender] = amount
}

// RecordCount reports how many records the ledger holds.
func (l *MemoryLedger) RecordCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

func (l *MemoryLedger) Connect(ctx context.Context) error { return nil }

func (l *MemoryLedger) GetBalance(ctx context.Context, account string) (int64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances[account], nil
}

func (l *MemoryLedger) GetAllowance(ctx context.Context, owner, spender string) (int64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.allowances[owner][spender], nil
}

func (l *MemoryLedger) IsAuthorizedWriter(ctx context.Context, account string) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.verifiers[account], nil
}

func (l *MemoryLedger) Debit(ctx context.Context, account string, amount int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.debitLocked(account, amount)
}

func (l *MemoryLedger) debitLocked(account string, amount int64) error {
	if l.balances[account] < amount {
		return ErrInsufficient
	}
	if l.allowances[account][l.registry] < amount {
		return ErrInsufficient
	}
	l.balances[account] -= amount
	l.allowances[account][l.registry] -= amount
	l.balances[l.registry] += amount
	return nil
}

func (l *MemoryLedger) RecordExists(ctx context.Context, fp verification.Fingerprint) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.records[fp]
	return ok, nil
}

func (l *MemoryLedger) AppendRecord(ctx context.Context, rec verification.Record) (verification.Receipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if rec.RecordedBy != "" && !l.verifiers[rec.RecordedBy] {
		return verification.Receipt{}, ErrNotAuthorized
	}
	if _, ok := l.records[rec.Fingerprint]; ok {
		return verification.Receipt{}, ErrDuplicateRecord
	}

	l.records[rec.Fingerprint] = rec
	return l.receiptLocked(rec.Fingerprint), nil
}

func (l *MemoryLedger) AppendRecordWithPayment(ctx context.Context, rec verification.Record, payer string, price int64) (verification.Receipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.records[rec.Fingerprint]; ok {
		return verification.Receipt{}, ErrDuplicateRecord
	}
	// Debit and append are one atomic unit under the ledger's own lock.
	if err := l.debitLocked(payer, price); err != nil {
		return verification.Receipt{}, err
	}

	rec.RecordedBy = payer
	l.records[rec.Fingerprint] = rec
	return l.receiptLocked(rec.Fingerprint), nil
}

func (l *MemoryLedger) ReadRecord(ctx context.Context, fp verification.Fingerprint) (verification.Record, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	rec, ok := l.records[fp]
	if !ok {
		return verification.Record{}, ErrNotFound
	}
	return rec, nil
}

func (l *MemoryLedger) Mint(ctx context.Context, account string, amount int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[account] += amount
	return nil
}

func (l *MemoryLedger) Approve(ctx context.Context, owner, spender string, amount int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.allowances[owner] == nil {
		l.allowances[owner] = make(map[string]int64)
	}
	l.allowances[owner][spender] = amount
	return nil
}

func (l *MemoryLedger) RegistryAddress() string {
	return l.registry
}

func (l *MemoryLedger) receiptLocked(fp verification.Fingerprint) verification.Receipt {
	l.txCounter++

	seed := make([]byte, 0, len(fp)+8)
	seed = append(seed, fp...)
	var counter [8]byte
	binary.BigEndian.PutUint64(counter[:], l.txCounter)
	seed = append(seed, counter[:]...)
	sum := sha256.Sum256(seed)

	return verification.Receipt{
		TxID:        verification.HexPrefix + hex.EncodeToString(sum[:]),
		BlockNumber: l.blockBase + l.txCounter,
		Degraded:    false,
	}
}
