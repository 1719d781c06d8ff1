package app_test

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	connectionApp "github.com/fd1az/tokensale-client/business/connection/app"
	connectionDomain "github.com/fd1az/tokensale-client/business/connection/domain"
	"github.com/fd1az/tokensale-client/internal/apperror"
	"github.com/fd1az/tokensale-client/internal/logger"
)

var (
	nopLogger = logger.NewDiscard()

	account  = common.HexToAddress("0xa11ce")
	saleAddr = common.HexToAddress("0x4dfe6171d0edca008eb1e79476b5ebebc1bb8c32")
	tknAddr  = common.HexToAddress("0x829b714f4492c668023f04fffe24cc491a4d7d57")
)

func sepolia() connectionDomain.NetworkTarget {
	return connectionDomain.NewNetworkTarget(11155111, "Sepolia Test Network",
		connectionDomain.NativeCurrency{Name: "Sepolia ETH", Symbol: "ETH", Decimals: 18},
		[]string{"https://rpc.sepolia.org"},
		[]string{"https://sepolia.etherscan.io"},
	)
}

func wei(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("bad int " + s)
	}
	return v
}

// journal is the ordered record of every chain interaction across fakes.
type journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *journal) add(format string, args ...any) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, fmt.Sprintf(format, args...))
}

func (j *journal) all() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.entries...)
}

// env wires a complete fake session.
type env struct {
	log      *journal
	guard    *fakeGuard
	sessions *fakeSessions
	signer   *fakeSigner
	sale     *fakeSale
	token    *fakeToken
}

func newEnv() *env {
	j := &journal{}
	e := &env{
		log:    j,
		guard:  &fakeGuard{log: j},
		signer: &fakeSigner{log: j, failWait: map[string]error{}},
		sale: &fakeSale{
			log:       j,
			buyPrice:  big.NewInt(2e15),
			sellPrice: big.NewInt(1e15),
			balance:   wei("5000000000000000000"),
			native:    wei("3000000000000000000"),
		},
		token: &fakeToken{
			log:         j,
			decimals:    18,
			maxSupply:   wei("1000000000000000000000"),
			totalSupply: wei("600000000000000000000"),
			balances: map[common.Address]*big.Int{
				saleAddr: wei("50000000000000000000"),
				account:  wei("25000000000000000000"),
			},
			allowance: big.NewInt(0),
		},
	}
	e.sale.signer = e.signer
	e.token.signer = e.signer
	e.sessions = &fakeSessions{session: &connectionApp.Session{
		Provider: fakeProvider{},
		Signer:   e.signer,
		Sale:     e.sale,
		Token:    e.token,
	}}
	return e
}

// networkCalls counts guard checks and session lookups.
func (e *env) networkCalls() int {
	return e.guard.count() + e.sessions.count()
}

type fakeGuard struct {
	mu    sync.Mutex
	log   *journal
	err   error
	calls int
}

func (g *fakeGuard) EnsureCorrectNetwork(context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	g.log.add("guard")
	return g.err
}

func (g *fakeGuard) count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

type fakeSessions struct {
	mu      sync.Mutex
	session *connectionApp.Session
	err     error
	calls   int
}

func (s *fakeSessions) Session(context.Context) (*connectionApp.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.session, nil
}

func (s *fakeSessions) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// fakeProvider only answers ChainID.
type fakeProvider struct {
	connectionApp.Wallet
}

func (fakeProvider) ChainID(context.Context) (string, error) { return "0xaa36a7", nil }

type fakeSigner struct {
	log      *journal
	sendErr  error
	failWait map[string]error // keyed by submitted operation
	next     byte

	mu     sync.Mutex
	byHash map[common.Hash]string
}

func (s *fakeSigner) Account() common.Address { return account }

func (s *fakeSigner) Send(context.Context, connectionDomain.TxRequest) (common.Hash, error) {
	return common.Hash{}, errors.New("not used")
}

// submit is what the fake contracts call for every write.
func (s *fakeSigner) submit(op string) (common.Hash, error) {
	if s.sendErr != nil {
		s.log.add("rejected %s", op)
		return common.Hash{}, apperror.TransactionFailed(op, s.sendErr)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	hash := common.BytesToHash([]byte{s.next})
	if s.byHash == nil {
		s.byHash = map[common.Hash]string{}
	}
	s.byHash[hash] = op
	s.log.add("submit %s", op)
	return hash, nil
}

func (s *fakeSigner) WaitConfirmed(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	s.mu.Lock()
	op := s.byHash[hash]
	s.mu.Unlock()

	if err := s.failWait[op]; err != nil {
		s.log.add("failed %s", op)
		return nil, err
	}
	s.log.add("confirmed %s", op)
	return &types.Receipt{
		Status:      types.ReceiptStatusSuccessful,
		TxHash:      hash,
		BlockNumber: big.NewInt(100),
		GasUsed:     21000,
	}, nil
}

type fakeSale struct {
	log       *journal
	signer    *fakeSigner
	buyPrice  *big.Int
	sellPrice *big.Int
	balance   *big.Int
	native    *big.Int
	readErr   error

	mu        sync.Mutex
	deposits  []*big.Int
	buys      [][2]*big.Int
	sells     []*big.Int
	withdraws []*big.Int
}

func (s *fakeSale) Address() common.Address { return saleAddr }

func (s *fakeSale) BuyPrice(context.Context) (*big.Int, error) {
	s.log.add("read buyPrice")
	return s.buyPrice, s.readErr
}

func (s *fakeSale) SellPrice(context.Context) (*big.Int, error) {
	s.log.add("read sellPrice")
	return s.sellPrice, s.readErr
}

func (s *fakeSale) Balance(context.Context) (*big.Int, error) {
	s.log.add("read saleBalance")
	return s.balance, s.readErr
}

func (s *fakeSale) NativeBalance(context.Context, common.Address) (*big.Int, error) {
	return s.native, s.readErr
}

func (s *fakeSale) BuyTokens(_ context.Context, amount, value *big.Int) (common.Hash, error) {
	s.mu.Lock()
	s.buys = append(s.buys, [2]*big.Int{amount, value})
	s.mu.Unlock()
	return s.signer.submit("buyTokens")
}

func (s *fakeSale) SellTokens(_ context.Context, amount *big.Int) (common.Hash, error) {
	s.mu.Lock()
	s.sells = append(s.sells, amount)
	s.mu.Unlock()
	return s.signer.submit("sellTokens")
}

func (s *fakeSale) WithdrawETH(_ context.Context, amount *big.Int) (common.Hash, error) {
	s.mu.Lock()
	s.withdraws = append(s.withdraws, amount)
	s.mu.Unlock()
	return s.signer.submit("withdrawETH")
}

func (s *fakeSale) Deposit(_ context.Context, value *big.Int) (common.Hash, error) {
	s.mu.Lock()
	s.deposits = append(s.deposits, value)
	s.mu.Unlock()
	return s.signer.submit("deposit")
}

type fakeToken struct {
	log         *journal
	signer      *fakeSigner
	decimals    uint8
	maxSupply   *big.Int
	totalSupply *big.Int
	balances    map[common.Address]*big.Int
	allowance   *big.Int
	supplyErr   error

	mu        sync.Mutex
	approvals []*big.Int
}

func (t *fakeToken) Address() common.Address { return tknAddr }

func (t *fakeToken) Decimals(context.Context) (uint8, error) { return t.decimals, nil }

func (t *fakeToken) TotalSupply(context.Context) (*big.Int, error) {
	return t.totalSupply, t.supplyErr
}

func (t *fakeToken) MaxSupply(context.Context) (*big.Int, error) {
	return t.maxSupply, t.supplyErr
}

func (t *fakeToken) BalanceOf(_ context.Context, owner common.Address) (*big.Int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if b, ok := t.balances[owner]; ok {
		return b, nil
	}
	return big.NewInt(0), nil
}

func (t *fakeToken) Allowance(_ context.Context, owner, spender common.Address) (*big.Int, error) {
	if owner != account || spender != saleAddr {
		return nil, fmt.Errorf("unexpected allowance query %s -> %s", owner.Hex(), spender.Hex())
	}
	t.log.add("read allowance")
	return t.allowance, nil
}

func (t *fakeToken) Approve(_ context.Context, _ common.Address, amount *big.Int) (common.Hash, error) {
	t.mu.Lock()
	t.approvals = append(t.approvals, amount)
	t.mu.Unlock()
	return t.signer.submit("approve")
}
