package app

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/tokensale-client/business/connection/domain"
	"github.com/fd1az/tokensale-client/internal/apperror"
	"github.com/fd1az/tokensale-client/internal/logger"
)

const tracerName = "connection"

// Guard keeps the wallet on the target network.
type Guard struct {
	sessions SessionProvider
	target   domain.NetworkTarget
	logger   logger.LoggerInterface
	tracer   trace.Tracer
}

var _ NetworkGuard = (*Guard)(nil)

// NewGuard creates a Guard for target.
func NewGuard(sessions SessionProvider, target domain.NetworkTarget, log logger.LoggerInterface) *Guard {
	return &Guard{
		sessions: sessions,
		target:   target,
		logger:   log,
		tracer:   otel.Tracer(tracerName),
	}
}

// Target returns the network the guard enforces.
func (g *Guard) Target() domain.NetworkTarget {
	return g.target
}

// EnsureCorrectNetwork reads the wallet's chain and, when it is not the
// target, asks the wallet to switch. A wallet that does not know the target
// gets the chain registered and exactly one more switch request. Every other
// failure is NETWORK_MISMATCH.
func (g *Guard) EnsureCorrectNetwork(ctx context.Context) error {
	ctx, span := g.tracer.Start(ctx, "connection.ensure_network",
		trace.WithAttributes(attribute.String("target", g.target.ChainIDHex())),
	)
	defer span.End()

	err := g.ensure(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "network check failed")
		return err
	}
	span.SetStatus(codes.Ok, "on target network")
	return nil
}

func (g *Guard) ensure(ctx context.Context) error {
	sess, err := g.sessions.Session(ctx)
	if err != nil {
		return err
	}
	w := sess.Provider

	current, err := w.ChainID(ctx)
	if err != nil {
		return apperror.NetworkMismatch("read active chain", err)
	}
	if g.target.Matches(current) {
		return nil
	}

	g.logger.Info(ctx, "wallet on wrong network, requesting switch",
		"current", current,
		"target", g.target.ChainIDHex(),
	)

	err = w.SwitchChain(ctx, g.target.ChainIDHex())
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrUnrecognizedChain) {
		return apperror.NetworkMismatch("switch to "+g.target.Name(), err)
	}

	g.logger.Info(ctx, "wallet does not know target network, registering it",
		"target", g.target.ChainIDHex(),
		"name", g.target.Name(),
	)

	if err := w.AddChain(ctx, g.target.ChainParams()); err != nil {
		return apperror.NetworkMismatch("register "+g.target.Name(), err)
	}
	if err := w.SwitchChain(ctx, g.target.ChainIDHex()); err != nil {
		return apperror.NetworkMismatch("switch to "+g.target.Name()+" after registering", err)
	}
	return nil
}
