package app

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	connectionApp "github.com/fd1az/tokensale-client/business/connection/app"
	connectionDomain "github.com/fd1az/tokensale-client/business/connection/domain"
	"github.com/fd1az/tokensale-client/business/sale/domain"
	"github.com/fd1az/tokensale-client/internal/apperror"
	"github.com/fd1az/tokensale-client/internal/asset"
	"github.com/fd1az/tokensale-client/internal/logger"
)

type orchestratorMetrics struct {
	operations metric.Int64Counter
	duration   metric.Float64Histogram
}

// Orchestrator runs the write operations. Each call is a short linear
// sequence with no state kept between calls, and nothing is retried: a
// failed write is reported and the user decides whether to try again.
type Orchestrator struct {
	sessions Sessions
	guard    Guard
	target   connectionDomain.NetworkTarget
	logger   logger.LoggerInterface
	tracer   trace.Tracer
	metrics  *orchestratorMetrics
	now      func() time.Time
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(sessions Sessions, guard Guard, target connectionDomain.NetworkTarget, log logger.LoggerInterface) (*Orchestrator, error) {
	o := &Orchestrator{
		sessions: sessions,
		guard:    guard,
		target:   target,
		logger:   log,
		tracer:   otel.Tracer(tracerName),
		now:      time.Now,
	}
	if err := o.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}
	return o, nil
}

func (o *Orchestrator) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	o.metrics = &orchestratorMetrics{}

	o.metrics.operations, err = meter.Int64Counter(
		"sale_operations_total",
		metric.WithDescription("Write operations by kind and outcome"),
	)
	if err != nil {
		return err
	}

	o.metrics.duration, err = meter.Float64Histogram(
		"sale_operation_duration_ms",
		metric.WithDescription("Time from request to confirmation"),
		metric.WithUnit("ms"),
	)
	return err
}

// BuyBySpend sends ethAmount straight to the sale contract, which mints or
// transfers whatever that buys at its current price.
func (o *Orchestrator) BuyBySpend(ctx context.Context, ethAmount string) (*domain.TradeReceipt, error) {
	op := o.begin(ctx, domain.TradeBuyBySpend)
	ctx = op.ctx
	defer op.end()

	value, err := parsePositive(ethAmount, asset.NativeDecimals)
	if err != nil {
		return nil, op.fail(err)
	}

	sess, err := gate(ctx, o.guard, o.sessions)
	if err != nil {
		return nil, op.fail(err)
	}

	hash, err := sess.Sale.Deposit(ctx, value)
	if err != nil {
		return nil, op.fail(err)
	}
	receipt, err := o.confirm(ctx, sess, hash)
	if err != nil {
		return nil, op.fail(err)
	}

	r := o.receipt(op, sess, receipt, domain.NativeQuote(value))
	op.ok(r)
	return r, nil
}

// BuyExact buys exactly tokenAmount tokens, paying the cost computed from
// the buy price read right before submission. Callers are expected to check
// Reader.ExceedsAvailable first; the contract has the final word.
func (o *Orchestrator) BuyExact(ctx context.Context, tokenAmount string) (*domain.TradeReceipt, error) {
	op := o.begin(ctx, domain.TradeBuyExact)
	ctx = op.ctx
	defer op.end()

	if err := validatePositive(tokenAmount); err != nil {
		return nil, op.fail(err)
	}

	sess, err := gate(ctx, o.guard, o.sessions)
	if err != nil {
		return nil, op.fail(err)
	}

	decimals, price, err := readDecimalsAndPrice(ctx, sess, func(ctx context.Context, s connectionApp.SaleContract) (*big.Int, error) {
		return s.BuyPrice(ctx)
	})
	if err != nil {
		return nil, op.fail(err)
	}

	amount, err := parsePositive(tokenAmount, decimals)
	if err != nil {
		return nil, op.fail(err)
	}
	buyPrice := domain.SalePrice(o.target.ChainID(), sess.Token.Address(), decimals,
		o.target.Currency().Symbol, price, o.now())
	owed, err := buyPrice.Cost(asset.NewAmount(buyPrice.Base(), amount))
	if err != nil {
		return nil, op.fail(err)
	}
	cost := owed.Raw()

	o.logger.Info(ctx, "buying exact tokens",
		"intent_id", op.id,
		"tokens", tokenAmount,
		"price", buyPrice.String(),
		"cost_wei", cost.String(),
	)

	hash, err := sess.Sale.BuyTokens(ctx, amount, cost)
	if err != nil {
		return nil, op.fail(err)
	}
	receipt, err := o.confirm(ctx, sess, hash)
	if err != nil {
		return nil, op.fail(err)
	}

	r := o.receipt(op, sess, receipt, domain.NativeQuote(cost))
	tokens := domain.NewQuote(amount, decimals)
	r.Tokens = &tokens
	op.ok(r)
	return r, nil
}

// Withdraw moves ethAmount out of the sale contract. Only the contract
// owner can do this; anyone else gets a reverted transaction.
func (o *Orchestrator) Withdraw(ctx context.Context, ethAmount string) (*domain.TradeReceipt, error) {
	op := o.begin(ctx, domain.TradeWithdraw)
	ctx = op.ctx
	defer op.end()

	value, err := parsePositive(ethAmount, asset.NativeDecimals)
	if err != nil {
		return nil, op.fail(err)
	}

	sess, err := gate(ctx, o.guard, o.sessions)
	if err != nil {
		return nil, op.fail(err)
	}
	return o.withdraw(op, sess, value)
}

// WithdrawAll withdraws the sale contract's entire ETH balance. A zero
// balance is NOTHING_TO_WITHDRAW and nothing is submitted.
func (o *Orchestrator) WithdrawAll(ctx context.Context) (*domain.TradeReceipt, error) {
	op := o.begin(ctx, domain.TradeWithdraw)
	ctx = op.ctx
	defer op.end()

	sess, err := gate(ctx, o.guard, o.sessions)
	if err != nil {
		return nil, op.fail(err)
	}

	balance, err := sess.Sale.Balance(ctx)
	if err != nil {
		return nil, op.fail(readFailed(err, "sale.balance"))
	}
	if balance.Sign() == 0 {
		return nil, op.fail(apperror.New(apperror.CodeNothingToWithdraw,
			apperror.WithContext(sess.Sale.Address().Hex())))
	}
	return o.withdraw(op, sess, balance)
}

func (o *Orchestrator) withdraw(op *operation, sess *connectionApp.Session, value *big.Int) (*domain.TradeReceipt, error) {
	hash, err := sess.Sale.WithdrawETH(op.ctx, value)
	if err != nil {
		return nil, op.fail(err)
	}
	receipt, err := o.confirm(op.ctx, sess, hash)
	if err != nil {
		return nil, op.fail(err)
	}

	r := o.receipt(op, sess, receipt, domain.NativeQuote(value))
	op.ok(r)
	return r, nil
}

// confirm waits for hash to be mined. Giving up the wait is not a failure
// of the transaction, which may still be mined later.
func (o *Orchestrator) confirm(ctx context.Context, sess *connectionApp.Session, hash common.Hash) (*types.Receipt, error) {
	o.logger.Info(ctx, "awaiting confirmation", "tx", hash.Hex())
	return sess.Signer.WaitConfirmed(ctx, hash)
}

func (o *Orchestrator) receipt(op *operation, sess *connectionApp.Session, rc *types.Receipt, value domain.Quote) *domain.TradeReceipt {
	r := &domain.TradeReceipt{
		IntentID:    op.id,
		Kind:        op.kind,
		Account:     sess.Signer.Account(),
		TxHash:      rc.TxHash,
		GasUsed:     rc.GasUsed,
		Value:       value,
		ExplorerURL: o.target.TxURL(rc.TxHash.Hex()),
		ConfirmedAt: o.now(),
	}
	if rc.BlockNumber != nil {
		r.BlockNumber = rc.BlockNumber.Uint64()
	}
	return r
}

// operation carries the span, intent id and timing of one write.
type operation struct {
	o     *Orchestrator
	ctx   context.Context
	id    uuid.UUID
	kind  domain.TradeKind
	span  trace.Span
	start time.Time
}

func (o *Orchestrator) begin(ctx context.Context, kind domain.TradeKind) *operation {
	id := uuid.New()
	ctx, span := o.tracer.Start(ctx, "sale."+string(kind),
		trace.WithAttributes(
			attribute.String("intent_id", id.String()),
			attribute.String("kind", string(kind)),
		),
	)
	return &operation{o: o, ctx: ctx, id: id, kind: kind, span: span, start: time.Now()}
}

func (op *operation) fail(err error) error {
	op.span.RecordError(err)
	op.span.SetStatus(codes.Error, string(apperror.GetCode(err)))
	op.record("failed", apperror.GetCode(err))
	op.o.logger.Warn(op.ctx, "sale operation failed",
		"intent_id", op.id,
		"kind", op.kind,
		"code", apperror.GetCode(err),
		"error", err,
	)
	return err
}

func (op *operation) ok(r *domain.TradeReceipt) {
	op.span.SetAttributes(
		attribute.String("tx", r.TxHash.Hex()),
		attribute.Int64("block", int64(r.BlockNumber)),
	)
	op.span.SetStatus(codes.Ok, "confirmed")
	op.record("confirmed", "")
	op.o.logger.Info(op.ctx, "sale operation confirmed",
		"intent_id", op.id,
		"kind", op.kind,
		"tx", r.TxHash.Hex(),
		"block", r.BlockNumber,
		"explorer", r.ExplorerURL,
	)
}

func (op *operation) record(outcome string, code apperror.Code) {
	attrs := metric.WithAttributes(
		attribute.String("kind", string(op.kind)),
		attribute.String("outcome", outcome),
		attribute.String("code", string(code)),
	)
	op.o.metrics.operations.Add(op.ctx, 1, attrs)
	op.o.metrics.duration.Record(op.ctx, float64(time.Since(op.start).Milliseconds()), attrs)
}

func (op *operation) end() {
	op.span.End()
}

// validatePositive rejects bad input before any network call.
func validatePositive(s string) error {
	if err := asset.ValidatePositive(s); err != nil {
		return apperror.InvalidAmount(s, err)
	}
	return nil
}

func parsePositive(s string, decimals uint8) (*big.Int, error) {
	if err := validatePositive(s); err != nil {
		return nil, err
	}
	v, err := asset.ParsePositiveUnits(s, decimals)
	if err != nil {
		return nil, apperror.InvalidAmount(s, err)
	}
	return v, nil
}
