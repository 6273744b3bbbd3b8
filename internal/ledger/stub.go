package ledger

import (
	"context"
	"math"

	"github.com/Dante9988/AI-Content-Checker-Blockchain-Proof/internal/app/domain/verification"
	"github.com/Dante9988/AI-Content-Checker-Blockchain-Proof/pkg/logger"
)

// StubGateway is the declared degraded mode used when the ledger endpoint or
// contract addresses are not configured. Every write succeeds immediately
// with a receipt tagged degraded; nothing is durably stored. Stub mode exists
// for connectivity gaps only and never masks authorization decisions.
type StubGateway struct {
	log *logger.Logger
}

var _ Gateway = (*StubGateway)(nil)

// NewStubGateway constructs the stub. Construction logs at Warn so operators
// can always tell a stubbed deployment from a connected one.
func NewStubGateway(log *logger.Logger) *StubGateway {
	if log == nil {
		log = logger.NewDefault("ledger-stub")
	}
	log.Warn("ledger gateway running in stub mode; receipts will be tagged degraded")
	return &StubGateway{log: log}
}

func (g *StubGateway) Connect(ctx context.Context) error { return nil }

func (g *StubGateway) GetBalance(ctx context.Context, account string) (int64, error) {
	return math.MaxInt64, nil
}

func (g *StubGateway) GetAllowance(ctx context.Context, owner, spender string) (int64, error) {
	return math.MaxInt64, nil
}

func (g *StubGateway) IsAuthorizedWriter(ctx context.Context, account string) (bool, error) {
	return true, nil
}

func (g *StubGateway) Debit(ctx context.Context, account string, amount int64) error { return nil }

func (g *StubGateway) RecordExists(ctx context.Context, fp verification.Fingerprint) (bool, error) {
	return false, nil
}

func (g *StubGateway) AppendRecord(ctx context.Context, rec verification.Record) (verification.Receipt, error) {
	receipt := StubReceipt(rec.Fingerprint)
	g.log.WithField("content_fingerprint", rec.Fingerprint).
		WithField("tx_id", receipt.TxID).
		Warn("stub ledger append; record not durably stored")
	return receipt, nil
}

func (g *StubGateway) AppendRecordWithPayment(ctx context.Context, rec verification.Record, payer string, price int64) (verification.Receipt, error) {
	receipt := StubReceipt(rec.Fingerprint)
	g.log.WithField("content_fingerprint", rec.Fingerprint).
		WithField("payer", payer).
		WithField("tx_id", receipt.TxID).
		Warn("stub ledger paid append; no fee debited, record not durably stored")
	return receipt, nil
}

func (g *StubGateway) ReadRecord(ctx context.Context, fp verification.Fingerprint) (verification.Record, error) {
	return verification.Record{}, ErrNotFound
}

func (g *StubGateway) Mint(ctx context.Context, account string, amount int64) error { return nil }

func (g *StubGateway) Approve(ctx context.Context, owner, spender string, amount int64) error {
	return nil
}

func (g *StubGateway) RegistryAddress() string { return "stub-registry" }
