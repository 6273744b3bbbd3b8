package settlement

import (
	"context"
	"errors"
	"sync"

	"github.com/Dante9988/AI-Content-Checker-Blockchain-Proof/internal/app/domain/verification"
	"github.com/Dante9988/AI-Content-Checker-Blockchain-Proof/internal/app/services/oracle"
	"github.com/Dante9988/AI-Content-Checker-Blockchain-Proof/internal/ledger"
)

// ScriptedOracle is a test Oracle returning a fixed raw value.
type ScriptedOracle struct {
	mu          sync.Mutex
	raw         float64
	scale       oracle.Scale
	err         error
	explanation string
	scoreCalls  int
}

// NewScriptedOracle returns an oracle reporting raw on the given scale.
func NewScriptedOracle(raw float64, scale oracle.Scale) *ScriptedOracle {
	return &ScriptedOracle{raw: raw, scale: scale}
}

// FailWith makes Score return err.
func (o *ScriptedOracle) FailWith(err error) { o.err = err }

// SetExplanation sets the text returned by Explain.
func (o *ScriptedOracle) SetExplanation(text string) { o.explanation = text }

// ScoreCalls reports how many times Score was invoked.
func (o *ScriptedOracle) ScoreCalls() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.scoreCalls
}

func (o *ScriptedOracle) ID() verification.OracleID {
	return verification.OracleIDFor("scripted-model")
}

func (o *ScriptedOracle) Scale() oracle.Scale { return o.scale }

func (o *ScriptedOracle) Score(ctx context.Context, image []byte) (float64, error) {
	o.mu.Lock()
	o.scoreCalls++
	o.mu.Unlock()
	if o.err != nil {
		return 0, o.err
	}
	return o.raw, nil
}

func (o *ScriptedOracle) Explain(ctx context.Context, image []byte, score verification.Score, verdict bool) (string, error) {
	if o.explanation == "" {
		return "", errors.New("no explanation scripted")
	}
	return o.explanation, nil
}

// UnreachableGateway simulates a ledger whose every call fails with a
// connectivity error.
type UnreachableGateway struct{}

var _ ledger.Gateway = (*UnreachableGateway)(nil)

func (UnreachableGateway) Connect(ctx context.Context) error { return ledger.ErrUnavailable }

func (UnreachableGateway) GetBalance(ctx context.Context, account string) (int64, error) {
	return 0, ledger.ErrUnavailable
}

func (UnreachableGateway) GetAllowance(ctx context.Context, owner, spender string) (int64, error) {
	return 0, ledger.ErrUnavailable
}

func (UnreachableGateway) IsAuthorizedWriter(ctx context.Context, account string) (bool, error) {
	return false, ledger.ErrUnavailable
}

func (UnreachableGateway) Debit(ctx context.Context, account string, amount int64) error {
	return ledger.ErrUnavailable
}

func (UnreachableGateway) RecordExists(ctx context.Context, fp verification.Fingerprint) (bool, error) {
	return false, ledger.ErrUnavailable
}

func (UnreachableGateway) AppendRecord(ctx context.Context, rec verification.Record) (verification.Receipt, error) {
	return verification.Receipt{}, ledger.ErrUnavailable
}

func (UnreachableGateway) AppendRecordWithPayment(ctx context.Context, rec verification.Record, payer string, price int64) (verification.Receipt, error) {
	return verification.Receipt{}, ledger.ErrUnavailable
}

func (UnreachableGateway) ReadRecord(ctx context.Context, fp verification.Fingerprint) (verification.Record, error) {
	return verification.Record{}, ledger.ErrUnavailable
}

func (UnreachableGateway) Mint(ctx context.Context, account string, amount int64) error {
	return ledger.ErrUnavailable
}

func (UnreachableGateway) Approve(ctx context.Context, owner, spender string, amount int64) error {
	return ledger.ErrUnavailable
}

func (UnreachableGateway) RegistryAddress() string { return "unreachable-registry" }
