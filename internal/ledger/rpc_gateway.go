package ledger

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Dante9988/AI-Content-Checker-Blockchain-Proof/internal/app/domain/verification"
)

// RPCGateway implements Gateway against a live ledger node. It holds the
// deployed token and registry contract addresses and the writer account used
// for direct appends.
type RPCGateway struct {
	client   *Client
	token    string
	registry string
	writer   string
}

var _ Gateway = (*RPCGateway)(nil)

// RPCGatewayConfig configures a live gateway.
type RPCGatewayConfig struct {
	Token    string
	Registry string
	Writer   string
}

// NewRPCGateway constructs a gateway over an existing RPC client.
func NewRPCGateway(client *Client, cfg RPCGatewayConfig) (*RPCGateway, error) {
	if client == nil {
		return nil, fmt.Errorf("rpc client required")
	}
	if cfg.Token == "" || cfg.Registry == "" {
		return nil, fmt.Errorf("token and registry contract addresses required")
	}
	return &RPCGateway{
		client:   client,
		token:    cfg.Token,
		registry: cfg.Registry,
		writer:   cfg.Writer,
	}, nil
}

// Connect verifies the node answers at all.
func (g *RPCGateway) Connect(ctx context.Context) error {
	_, err := g.client.Call(ctx, "getblockcount", nil)
	return classify(err)
}

func (g *RPCGateway) GetBalance(ctx context.Context, account string) (int64, error) {
	return g.invokeInt64(ctx, g.token, "balanceOf", account)
}

func (g *RPCGateway) GetAllowance(ctx context.Context, owner, spender string) (int64, error) {
	return g.invokeInt64(ctx, g.token, "allowance", owner, spender)
}

func (g *RPCGateway) IsAuthorizedWriter(ctx context.Context, account string) (bool, error) {
	result, err := g.client.InvokeContract(ctx, g.registry, "isVerifier", account)
	if err != nil {
		return false, classify(err)
	}
	var authorized bool
	if err := json.Unmarshal(result, &authorized); err != nil {
		return false, fmt.Errorf("decode isVerifier result: %w", err)
	}
	return authorized, nil
}

func (g *RPCGateway) Debit(ctx context.Context, account string, amount int64) error {
	_, err := g.client.InvokeContract(ctx, g.token, "transferFrom", account, g.registry, amount)
	return classify(err)
}

func (g *RPCGateway) RecordExists(ctx context.Context, fp verification.Fingerprint) (bool, error) {
	result, err := g.client.InvokeContract(ctx, g.registry, "exists", string(fp))
	if err != nil {
		return false, classify(err)
	}
	var exists bool
	if err := json.Unmarshal(result, &exists); err != nil {
		return false, fmt.Errorf("decode exists result: %w", err)
	}
	return exists, nil
}

func (g *RPCGateway) AppendRecord(ctx context.Context, rec verification.Record) (verification.Receipt, error) {
	result, err := g.client.InvokeContract(ctx, g.registry, "append",
		string(rec.Fingerprint), string(rec.OracleID), int(rec.Score), rec.SubmittedAt)
	if err != nil {
		return verification.Receipt{}, classify(err)
	}
	return decodeReceipt(result)
}

func (g *RPCGateway) AppendRecordWithPayment(ctx context.Context, rec verification.Record, payer string, price int64) (verification.Receipt, error) {
	result, err := g.client.InvokeContract(ctx, g.registry, "appendPaid",
		string(rec.Fingerprint), string(rec.OracleID), int(rec.Score), rec.SubmittedAt, payer, price)
	if err != nil {
		return verification.Receipt{}, classify(err)
	}
	return decodeReceipt(result)
}

func (g *RPCGateway) ReadRecord(ctx context.Context, fp verification.Fingerprint) (verification.Record, error) {
	result, err := g.client.InvokeContract(ctx, g.registry, "get", string(fp))
	if err != nil {
		return verification.Record{}, classify(err)
	}
	var rec verification.Record
	if err := json.Unmarshal(result, &rec); err != nil {
		return verification.Record{}, fmt.Errorf("decode record: %w", err)
	}
	return rec, nil
}

func (g *RPCGateway) Mint(ctx context.Context, account string, amount int64) error {
	_, err := g.client.InvokeContract(ctx, g.token, "mint", account, amount)
	return classify(err)
}

func (g *RPCGateway) Approve(ctx context.Context, owner, spender string, amount int64) error {
	_, err := g.client.InvokeContract(ctx, g.token, "approve", owner, spender, amount)
	return classify(err)
}

func (g *RPCGateway) RegistryAddress() string { return g.registry }

func (g *RPCGateway) invokeInt64(ctx context.Context, contract, method string, params ...interface{}) (int64, error) {
	result, err := g.client.InvokeContract(ctx, contract, method, params...)
	if err != nil {
		return 0, classify(err)
	}
	var value int64
	if err := json.Unmarshal(result, &value); err != nil {
		return 0, fmt.Errorf("decode %s result: %w", method, err)
	}
	return value, nil
}

func decodeReceipt(result json.RawMessage) (verification.Receipt, error) {
	var receipt verification.Receipt
	if err := json.Unmarshal(result, &receipt); err != nil {
		return verification.Receipt{}, fmt.Errorf("decode receipt: %w", err)
	}
	return receipt, nil
}
