package app

import (
	"context"
	"math/big"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	connectionApp "github.com/fd1az/tokensale-client/business/connection/app"
	"github.com/fd1az/tokensale-client/business/sale/domain"
	"github.com/fd1az/tokensale-client/internal/apperror"
	"github.com/fd1az/tokensale-client/internal/asset"
	"github.com/fd1az/tokensale-client/internal/logger"
)

// Reader derives the aggregate figures the client shows. Nothing is cached:
// every call re-reads, since any trade by anyone changes the numbers.
type Reader struct {
	sessions Sessions
	guard    Guard
	logger   logger.LoggerInterface
	tracer   trace.Tracer
	now      func() time.Time
}

// NewReader creates a Reader.
func NewReader(sessions Sessions, guard Guard, log logger.LoggerInterface) *Reader {
	return &Reader{
		sessions: sessions,
		guard:    guard,
		logger:   log,
		tracer:   otel.Tracer(tracerName),
		now:      time.Now,
	}
}

// SupplyInfo reads the cap, the total supply, the sale reserve and the
// precision concurrently.
func (r *Reader) SupplyInfo(ctx context.Context) (domain.SupplyInfo, error) {
	sess, err := gate(ctx, r.guard, r.sessions)
	if err != nil {
		return domain.SupplyInfo{}, err
	}
	return readSupply(ctx, sess)
}

// AvailableToBuy returns the sale reserve plus the mint headroom in token
// base units.
func (r *Reader) AvailableToBuy(ctx context.Context) (*big.Int, error) {
	info, err := r.SupplyInfo(ctx)
	if err != nil {
		return nil, err
	}
	return info.AvailableToBuy(), nil
}

// ExceedsAvailable reports whether buying tokenAmount would go over
// AvailableToBuy, compared at the token's own precision. Empty input never
// exceeds.
func (r *Reader) ExceedsAvailable(ctx context.Context, tokenAmount string) (bool, error) {
	if strings.TrimSpace(tokenAmount) == "" {
		return false, nil
	}
	if err := asset.ValidateDecimal(tokenAmount); err != nil {
		return false, apperror.InvalidAmount(tokenAmount, err)
	}

	info, err := r.SupplyInfo(ctx)
	if err != nil {
		return false, err
	}
	requested, err := asset.ParseUnits(tokenAmount, info.Decimals)
	if err != nil {
		return false, apperror.InvalidAmount(tokenAmount, err)
	}
	return info.Exceeds(requested), nil
}

// SaleLiquidity is the ETH held by the sale contract.
func (r *Reader) SaleLiquidity(ctx context.Context) (domain.Quote, error) {
	sess, err := gate(ctx, r.guard, r.sessions)
	if err != nil {
		return domain.Quote{}, err
	}
	wei, err := sess.Sale.Balance(ctx)
	if err != nil {
		return domain.Quote{}, readFailed(err, "sale.balance")
	}
	return domain.NativeQuote(wei), nil
}

// Prices reads the buy and sell price concurrently.
func (r *Reader) Prices(ctx context.Context) (domain.PricePair, error) {
	sess, err := gate(ctx, r.guard, r.sessions)
	if err != nil {
		return domain.PricePair{}, err
	}
	return readPrices(ctx, sess)
}

// AccountBalances reads the active account's ETH and token balances
// concurrently.
func (r *Reader) AccountBalances(ctx context.Context) (domain.AccountBalances, error) {
	sess, err := gate(ctx, r.guard, r.sessions)
	if err != nil {
		return domain.AccountBalances{}, err
	}

	account := sess.Signer.Account()
	var (
		eth, tokens *big.Int
		decimals    uint8
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		eth, err = sess.Sale.NativeBalance(gctx, account)
		return readFailed(err, "account.eth")
	})
	g.Go(func() (err error) {
		tokens, err = sess.Token.BalanceOf(gctx, account)
		return readFailed(err, "token.balanceOf")
	})
	g.Go(func() (err error) {
		decimals, err = sess.Token.Decimals(gctx)
		return readFailed(err, "token.decimals")
	})
	if err := g.Wait(); err != nil {
		return domain.AccountBalances{}, err
	}

	return domain.AccountBalances{
		Account: account,
		ETH:     domain.NativeQuote(eth),
		Token:   domain.NewQuote(tokens, decimals),
	}, nil
}

// Snapshot reads everything the dashboard shows. Individual read failures
// are absorbed: the field stays nil and the reason goes to Errors. Only a
// failed session or network check leaves the whole snapshot empty.
func (r *Reader) Snapshot(ctx context.Context) domain.MarketSnapshot {
	ctx, span := r.tracer.Start(ctx, "sale.snapshot")
	defer span.End()

	snap := domain.MarketSnapshot{
		TakenAt: r.now(),
		Errors:  make(map[string]error),
	}

	sess, err := gate(ctx, r.guard, r.sessions)
	if err != nil {
		snap.Err = err
		span.RecordError(err)
		span.SetStatus(codes.Error, "gate failed")
		r.logger.Warn(ctx, "snapshot skipped", "error", err)
		return snap
	}
	snap.Account = sess.Signer.Account()
	if chain, err := sess.Provider.ChainID(ctx); err == nil {
		snap.ChainID = chain
	}

	var mu sync.Mutex
	absorb := func(field string, err error) {
		mu.Lock()
		snap.Errors[field] = err
		mu.Unlock()
		r.logger.Warn(ctx, "snapshot field unavailable", "field", field, "error", err)
	}

	// Each read fills its own field, so none of them shares state with
	// another and a failure never cancels the rest.
	var g errgroup.Group
	g.Go(func() error {
		wei, err := sess.Sale.NativeBalance(ctx, snap.Account)
		if err != nil {
			absorb(domain.FieldAccountETH, err)
			return nil
		}
		q := domain.NativeQuote(wei)
		snap.AccountETH = &q
		return nil
	})
	g.Go(func() error {
		q, err := readTokenBalance(ctx, sess)
		if err != nil {
			absorb(domain.FieldAccountToken, err)
			return nil
		}
		snap.AccountToken = &q
		return nil
	})
	g.Go(func() error {
		p, err := readPrices(ctx, sess)
		if err != nil {
			absorb(domain.FieldPrices, err)
			return nil
		}
		snap.Prices = &p
		return nil
	})
	g.Go(func() error {
		s, err := readSupply(ctx, sess)
		if err != nil {
			absorb(domain.FieldSupply, err)
			return nil
		}
		snap.Supply = &s
		return nil
	})
	g.Go(func() error {
		wei, err := sess.Sale.Balance(ctx)
		if err != nil {
			absorb(domain.FieldLiquidity, err)
			return nil
		}
		q := domain.NativeQuote(wei)
		snap.SaleLiquidity = &q
		return nil
	})
	_ = g.Wait()

	if len(snap.Errors) > 0 {
		span.SetStatus(codes.Error, "partial snapshot")
	} else {
		span.SetStatus(codes.Ok, "snapshot complete")
	}
	return snap
}

func readPrices(ctx context.Context, sess *connectionApp.Session) (domain.PricePair, error) {
	var buy, sell *big.Int
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		buy, err = sess.Sale.BuyPrice(gctx)
		return readFailed(err, "sale.buyPrice")
	})
	g.Go(func() (err error) {
		sell, err = sess.Sale.SellPrice(gctx)
		return readFailed(err, "sale.sellPrice")
	})
	if err := g.Wait(); err != nil {
		return domain.PricePair{}, err
	}
	return domain.PricePair{Buy: domain.NativeQuote(buy), Sell: domain.NativeQuote(sell)}, nil
}

func readSupply(ctx context.Context, sess *connectionApp.Session) (domain.SupplyInfo, error) {
	var info domain.SupplyInfo
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		info.MaxSupply, err = sess.Token.MaxSupply(gctx)
		return readFailed(err, "token.MAX_SUPPLY")
	})
	g.Go(func() (err error) {
		info.TotalSupply, err = sess.Token.TotalSupply(gctx)
		return readFailed(err, "token.totalSupply")
	})
	g.Go(func() (err error) {
		info.SaleReserve, err = sess.Token.BalanceOf(gctx, sess.Sale.Address())
		return readFailed(err, "token.balanceOf(sale)")
	})
	g.Go(func() (err error) {
		info.Decimals, err = sess.Token.Decimals(gctx)
		return readFailed(err, "token.decimals")
	})
	if err := g.Wait(); err != nil {
		return domain.SupplyInfo{}, err
	}
	return info, nil
}

func readTokenBalance(ctx context.Context, sess *connectionApp.Session) (domain.Quote, error) {
	var (
		raw      *big.Int
		decimals uint8
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		raw, err = sess.Token.BalanceOf(gctx, sess.Signer.Account())
		return readFailed(err, "token.balanceOf")
	})
	g.Go(func() (err error) {
		decimals, err = sess.Token.Decimals(gctx)
		return readFailed(err, "token.decimals")
	})
	if err := g.Wait(); err != nil {
		return domain.Quote{}, err
	}
	return domain.NewQuote(raw, decimals), nil
}
