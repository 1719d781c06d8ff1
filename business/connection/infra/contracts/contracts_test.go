package contracts_test

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/tokensale-client/business/connection/app"
	"github.com/fd1az/tokensale-client/business/connection/domain"
	"github.com/fd1az/tokensale-client/business/connection/infra/contracts"
	"github.com/fd1az/tokensale-client/internal/apperror"
	"github.com/fd1az/tokensale-client/internal/logger"
	"github.com/fd1az/tokensale-client/internal/ratelimit"
)

var (
	saleAddr  = common.HexToAddress("0x4dfe6171d0edca008eb1e79476b5ebebc1bb8c32")
	tokenAddr = common.HexToAddress("0x829b714f4492c668023f04fffe24cc491a4d7d57")
	alice     = common.HexToAddress("0xa11ce")
)

func mustABI(t *testing.T, raw string) abi.ABI {
	t.Helper()
	parsed, err := abi.JSON(strings.NewReader(raw))
	require.NoError(t, err)
	return parsed
}

// fakeBackend answers eth_call by ABI-encoding scripted results.
type fakeBackend struct {
	mu       sync.Mutex
	abis     map[common.Address]abi.ABI
	results  map[string][]any
	err      error
	balances map[common.Address]*big.Int
	calls    []ethereum.CallMsg
}

func newFakeBackend(t *testing.T) *fakeBackend {
	return &fakeBackend{
		abis: map[common.Address]abi.ABI{
			saleAddr:  mustABI(t, contracts.SaleABI),
			tokenAddr: mustABI(t, contracts.TokenABI),
		},
		results:  map[string][]any{},
		balances: map[common.Address]*big.Int{},
	}
}

func (b *fakeBackend) CallContract(_ context.Context, call ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, call)
	if b.err != nil {
		return nil, b.err
	}
	parsed := b.abis[*call.To]
	method, err := parsed.MethodById(call.Data[:4])
	if err != nil {
		return nil, err
	}
	return method.Outputs.Pack(b.results[method.Name]...)
}

func (b *fakeBackend) BalanceAt(_ context.Context, account common.Address, _ *big.Int) (*big.Int, error) {
	if b.err != nil {
		return nil, b.err
	}
	if bal, ok := b.balances[account]; ok {
		return bal, nil
	}
	return big.NewInt(0), nil
}

func (b *fakeBackend) TransactionReceipt(context.Context, common.Hash) (*types.Receipt, error) {
	return nil, ethereum.NotFound
}

func (b *fakeBackend) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.calls)
}

type backendWallet struct {
	app.Wallet
	backend *fakeBackend
}

func (w backendWallet) Backend() app.Backend { return w.backend }

type recordingSigner struct {
	sent []domain.TxRequest
}

func (s *recordingSigner) Account() common.Address { return alice }

func (s *recordingSigner) Send(_ context.Context, tx domain.TxRequest) (common.Hash, error) {
	s.sent = append(s.sent, tx)
	return common.BigToHash(big.NewInt(int64(len(s.sent)))), nil
}

func (s *recordingSigner) WaitConfirmed(context.Context, common.Hash) (*types.Receipt, error) {
	return &types.Receipt{Status: types.ReceiptStatusSuccessful}, nil
}

func bind(t *testing.T, backend *fakeBackend) (app.SaleContract, app.TokenContract, *recordingSigner) {
	t.Helper()
	signer := &recordingSigner{}
	binder := contracts.NewBinder(saleAddr, tokenAddr, ratelimit.Unlimited(), logger.NewDiscard())
	sale, token, err := binder.Bind(backendWallet{backend: backend}, signer)
	require.NoError(t, err)
	return sale, token, signer
}

func TestBindings_Reads(t *testing.T) {
	backend := newFakeBackend(t)
	backend.results["decimals"] = []any{uint8(18)}
	backend.results["MAX_SUPPLY"] = []any{big.NewInt(1_000_000)}
	backend.results["totalSupply"] = []any{big.NewInt(400_000)}
	backend.results["balanceOf"] = []any{big.NewInt(5_000)}
	backend.results["buyPrice"] = []any{big.NewInt(2e15)}
	backend.results["sellPrice"] = []any{big.NewInt(1e15)}
	backend.balances[saleAddr] = big.NewInt(3e17)
	backend.balances[alice] = big.NewInt(42)

	sale, token, _ := bind(t, backend)
	ctx := context.Background()

	decimals, err := token.Decimals(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint8(18), decimals)

	maxSupply, err := token.MaxSupply(ctx)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1_000_000), maxSupply)

	total, err := token.TotalSupply(ctx)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(400_000), total)

	reserve, err := token.BalanceOf(ctx, saleAddr)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(5_000), reserve)

	buy, err := sale.BuyPrice(ctx)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(2e15), buy)

	sell, err := sale.SellPrice(ctx)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1e15), sell)

	held, err := sale.Balance(ctx)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(3e17), held)

	mine, err := sale.NativeBalance(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(42), mine)
}

func TestBindings_AllowanceEncodesOwnerAndSpender(t *testing.T) {
	backend := newFakeBackend(t)
	backend.results["allowance"] = []any{big.NewInt(7)}
	_, token, _ := bind(t, backend)

	got, err := token.Allowance(context.Background(), alice, saleAddr)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(7), got)

	require.Len(t, backend.calls, 1)
	call := backend.calls[0]
	assert.Equal(t, tokenAddr, *call.To)

	method := mustABI(t, contracts.TokenABI).Methods["allowance"]
	assert.Equal(t, method.ID, call.Data[:4])
	args, err := method.Inputs.Unpack(call.Data[4:])
	require.NoError(t, err)
	assert.Equal(t, []any{alice, saleAddr}, args)
}

func TestBindings_Writes(t *testing.T) {
	saleABI := mustABI(t, contracts.SaleABI)
	tokenABI := mustABI(t, contracts.TokenABI)
	ctx := context.Background()

	sale, token, signer := bind(t, newFakeBackend(t))

	_, err := sale.BuyTokens(ctx, big.NewInt(10), big.NewInt(2e16))
	require.NoError(t, err)
	_, err = sale.Deposit(ctx, big.NewInt(5e16))
	require.NoError(t, err)
	_, err = token.Approve(ctx, saleAddr, big.NewInt(10))
	require.NoError(t, err)
	_, err = sale.SellTokens(ctx, big.NewInt(10))
	require.NoError(t, err)
	_, err = sale.WithdrawETH(ctx, big.NewInt(3))
	require.NoError(t, err)

	require.Len(t, signer.sent, 5)

	buy := signer.sent[0]
	assert.Equal(t, saleAddr, buy.To)
	assert.Equal(t, big.NewInt(2e16), buy.Value)
	wantBuy, _ := saleABI.Pack("buyTokens", big.NewInt(10))
	assert.Equal(t, wantBuy, buy.Data)

	deposit := signer.sent[1]
	assert.Equal(t, saleAddr, deposit.To)
	assert.Equal(t, big.NewInt(5e16), deposit.Value)
	assert.Empty(t, deposit.Data)

	approve := signer.sent[2]
	assert.Equal(t, tokenAddr, approve.To)
	assert.Nil(t, approve.Value)
	wantApprove, _ := tokenABI.Pack("approve", saleAddr, big.NewInt(10))
	assert.Equal(t, wantApprove, approve.Data)

	wantSell, _ := saleABI.Pack("sellTokens", big.NewInt(10))
	assert.Equal(t, wantSell, signer.sent[3].Data)

	wantWithdraw, _ := saleABI.Pack("withdrawETH", big.NewInt(3))
	assert.Equal(t, wantWithdraw, signer.sent[4].Data)
}

func TestBindings_ReadFailureIsContractCallFailed(t *testing.T) {
	backend := newFakeBackend(t)
	backend.err = errors.New("upstream unavailable")
	_, token, _ := bind(t, backend)

	_, err := token.Decimals(context.Background())

	assert.Equal(t, apperror.CodeContractCallFailed, apperror.GetCode(err))
	assert.ErrorIs(t, err, backend.err)
}

func TestBindings_BreakerOpensForReadsOnly(t *testing.T) {
	backend := newFakeBackend(t)
	backend.err = errors.New("upstream unavailable")
	sale, token, signer := bind(t, backend)
	ctx := context.Background()

	for range 5 {
		_, err := token.TotalSupply(ctx)
		require.Error(t, err)
	}
	calls := backend.callCount()

	_, err := token.TotalSupply(ctx)
	assert.True(t, apperror.HasCode(err, apperror.CodeCircuitOpen))
	assert.Equal(t, calls, backend.callCount(), "open breaker must not reach the backend")

	_, err = sale.SellTokens(ctx, big.NewInt(1))
	require.NoError(t, err)
	assert.Len(t, signer.sent, 1)
}
