package contracts

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/tokensale-client/business/connection/app"
	"github.com/fd1az/tokensale-client/business/connection/domain"
	"github.com/fd1az/tokensale-client/internal/apperror"
	"github.com/fd1az/tokensale-client/internal/circuitbreaker"
	"github.com/fd1az/tokensale-client/internal/logger"
	"github.com/fd1az/tokensale-client/internal/ratelimit"
)

const (
	tracerName = "contracts"
	meterName  = "contracts"
)

type callerMetrics struct {
	callsTotal   metric.Int64Counter
	callErrors   metric.Int64Counter
	callLatency  metric.Float64Histogram
	txsSubmitted metric.Int64Counter
}

// caller is the shared read and write path for both contracts. Reads are
// throttled and go through a circuit breaker. Writes go straight to the
// signer and are never retried.
type caller struct {
	backend app.Backend
	signer  app.Signer
	limiter *ratelimit.Limiter
	logger  logger.LoggerInterface

	callCB    *circuitbreaker.CircuitBreaker[[]byte]
	balanceCB *circuitbreaker.CircuitBreaker[*big.Int]

	tracer  trace.Tracer
	metrics *callerMetrics
}

func newCaller(backend app.Backend, signer app.Signer, limiter *ratelimit.Limiter, log logger.LoggerInterface) (*caller, error) {
	c := &caller{
		backend:   backend,
		signer:    signer,
		limiter:   limiter,
		logger:    log,
		callCB:    circuitbreaker.New[[]byte](circuitbreaker.DefaultConfig("contract-call")),
		balanceCB: circuitbreaker.New[*big.Int](circuitbreaker.DefaultConfig("native-balance")),
		tracer:    otel.Tracer(tracerName),
	}
	if err := c.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}
	return c, nil
}

func (c *caller) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	c.metrics = &callerMetrics{}

	c.metrics.callsTotal, err = meter.Int64Counter(
		"contract_calls_total",
		metric.WithDescription("Total contract read calls"),
	)
	if err != nil {
		return err
	}

	c.metrics.callErrors, err = meter.Int64Counter(
		"contract_call_errors_total",
		metric.WithDescription("Total failed contract read calls"),
	)
	if err != nil {
		return err
	}

	c.metrics.callLatency, err = meter.Float64Histogram(
		"contract_call_latency_ms",
		metric.WithDescription("Contract read latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	c.metrics.txsSubmitted, err = meter.Int64Counter(
		"transactions_submitted_total",
		metric.WithDescription("Transactions handed to the wallet"),
	)
	return err
}

// call runs a view method and returns its decoded outputs.
func (c *caller) call(ctx context.Context, contract string, to common.Address, parsed *abi.ABI, method string, args ...any) ([]any, error) {
	ctx, span := c.tracer.Start(ctx, "contracts.call",
		trace.WithAttributes(
			attribute.String("contract", contract),
			attribute.String("method", method),
		),
	)
	defer span.End()

	attrs := metric.WithAttributes(attribute.String("method", method))
	start := time.Now()
	c.metrics.callsTotal.Add(ctx, 1, attrs)

	outputs, err := c.doCall(ctx, to, parsed, method, args...)
	c.metrics.callLatency.Record(ctx, float64(time.Since(start).Milliseconds()), attrs)

	if err != nil {
		c.metrics.callErrors.Add(ctx, 1, attrs)
		span.RecordError(err)
		span.SetStatus(codes.Error, "call failed")
		c.logger.Debug(ctx, "contract call failed", "contract", contract, "method", method, "error", err)
		return nil, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithCause(err),
			apperror.WithContext(contract+"."+method))
	}

	span.SetStatus(codes.Ok, "")
	return outputs, nil
}

func (c *caller) doCall(ctx context.Context, to common.Address, parsed *abi.ABI, method string, args ...any) ([]any, error) {
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", method, err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	raw, err := c.callCB.Execute(func() ([]byte, error) {
		return c.backend.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	})
	if err != nil {
		return nil, err
	}

	outputs, err := parsed.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", method, err)
	}
	if len(outputs) == 0 {
		return nil, fmt.Errorf("decode %s: empty result", method)
	}
	return outputs, nil
}

// callBig runs a view method returning a single uint256.
func (c *caller) callBig(ctx context.Context, contract string, to common.Address, parsed *abi.ABI, method string, args ...any) (*big.Int, error) {
	outputs, err := c.call(ctx, contract, to, parsed, method, args...)
	if err != nil {
		return nil, err
	}
	v, ok := outputs[0].(*big.Int)
	if !ok {
		return nil, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithContext(fmt.Sprintf("%s.%s returned %T", contract, method, outputs[0])))
	}
	return v, nil
}

// balance reads the native balance of account.
func (c *caller) balance(ctx context.Context, account common.Address) (*big.Int, error) {
	ctx, span := c.tracer.Start(ctx, "contracts.balance",
		trace.WithAttributes(attribute.String("account", account.Hex())),
	)
	defer span.End()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, apperror.New(apperror.CodeContractCallFailed, apperror.WithCause(err))
	}

	bal, err := c.balanceCB.Execute(func() (*big.Int, error) {
		return c.backend.BalanceAt(ctx, account, nil)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "balance failed")
		return nil, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithCause(err),
			apperror.WithContext("balance of "+account.Hex()))
	}
	span.SetStatus(codes.Ok, "")
	return bal, nil
}

// transact encodes method and hands the transaction to the signer. An empty
// method sends a plain value transfer.
func (c *caller) transact(ctx context.Context, contract string, to common.Address, value *big.Int, parsed *abi.ABI, method string, args ...any) (common.Hash, error) {
	name := method
	if name == "" {
		name = "transfer"
	}
	ctx, span := c.tracer.Start(ctx, "contracts.transact",
		trace.WithAttributes(
			attribute.String("contract", contract),
			attribute.String("method", name),
		),
	)
	defer span.End()

	var data []byte
	if method != "" {
		packed, err := parsed.Pack(method, args...)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "encode failed")
			return common.Hash{}, apperror.New(apperror.CodeInternalError,
				apperror.WithCause(err),
				apperror.WithContext("encode "+contract+"."+method))
		}
		data = packed
	}

	hash, err := c.signer.Send(ctx, domain.TxRequest{To: to, Value: value, Data: data})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submit failed")
		return common.Hash{}, err
	}

	c.metrics.txsSubmitted.Add(ctx, 1, metric.WithAttributes(attribute.String("method", name)))
	span.SetAttributes(attribute.String("tx_hash", hash.Hex()))
	span.SetStatus(codes.Ok, "submitted")
	return hash, nil
}
