package app

import (
	"context"
	"math/big"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	connectionApp "github.com/fd1az/tokensale-client/business/connection/app"
	"github.com/fd1az/tokensale-client/business/sale/domain"
	"github.com/fd1az/tokensale-client/internal/apperror"
	"github.com/fd1az/tokensale-client/internal/asset"
	"github.com/fd1az/tokensale-client/internal/logger"
)

// QuoteEngine prices token amounts against the live sale prices.
type QuoteEngine struct {
	sessions Sessions
	guard    Guard
	logger   logger.LoggerInterface
	tracer   trace.Tracer
}

// NewQuoteEngine creates a QuoteEngine.
func NewQuoteEngine(sessions Sessions, guard Guard, log logger.LoggerInterface) *QuoteEngine {
	return &QuoteEngine{
		sessions: sessions,
		guard:    guard,
		logger:   log,
		tracer:   otel.Tracer(tracerName),
	}
}

// QuoteBuy returns the ETH cost of buying tokenAmount tokens at the current
// buy price. An empty input quotes as zero without touching the network.
func (e *QuoteEngine) QuoteBuy(ctx context.Context, tokenAmount string) (domain.Quote, error) {
	return e.quote(ctx, "buy", tokenAmount, func(ctx context.Context, s connectionApp.SaleContract) (*big.Int, error) {
		return s.BuyPrice(ctx)
	})
}

// QuoteSell returns the ETH refund for selling tokenAmount tokens at the
// current sell price. An empty input quotes as zero.
func (e *QuoteEngine) QuoteSell(ctx context.Context, tokenAmount string) (domain.Quote, error) {
	return e.quote(ctx, "sell", tokenAmount, func(ctx context.Context, s connectionApp.SaleContract) (*big.Int, error) {
		return s.SellPrice(ctx)
	})
}

type priceFn func(ctx context.Context, s connectionApp.SaleContract) (*big.Int, error)

func (e *QuoteEngine) quote(ctx context.Context, side, tokenAmount string, price priceFn) (domain.Quote, error) {
	if strings.TrimSpace(tokenAmount) == "" {
		return domain.NativeQuote(nil), nil
	}
	if err := asset.ValidateDecimal(tokenAmount); err != nil {
		return domain.Quote{}, apperror.InvalidAmount(tokenAmount, err)
	}

	ctx, span := e.tracer.Start(ctx, "sale.quote",
		trace.WithAttributes(attribute.String("side", side)),
	)
	defer span.End()

	sess, err := gate(ctx, e.guard, e.sessions)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "gate failed")
		return domain.Quote{}, err
	}

	decimals, rate, err := readDecimalsAndPrice(ctx, sess, price)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failed")
		return domain.Quote{}, err
	}

	amount, err := asset.ParseUnits(tokenAmount, decimals)
	if err != nil {
		return domain.Quote{}, apperror.InvalidAmount(tokenAmount, err)
	}

	q := domain.NativeQuote(domain.Cost(amount, rate, decimals))
	e.logger.Debug(ctx, "quoted", "side", side, "tokens", tokenAmount, "eth", q.Decimal)
	span.SetStatus(codes.Ok, "quoted")
	return q, nil
}

// readDecimalsAndPrice reads the token precision and one sale price
// concurrently. The two reads are independent.
func readDecimalsAndPrice(ctx context.Context, sess *connectionApp.Session, price priceFn) (uint8, *big.Int, error) {
	var (
		decimals uint8
		rate     *big.Int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d, err := sess.Token.Decimals(gctx)
		if err != nil {
			return readFailed(err, "token.decimals")
		}
		decimals = d
		return nil
	})
	g.Go(func() error {
		p, err := price(gctx, sess.Sale)
		if err != nil {
			return readFailed(err, "sale.price")
		}
		rate = p
		return nil
	})
	if err := g.Wait(); err != nil {
		return 0, nil, err
	}
	return decimals, rate, nil
}
