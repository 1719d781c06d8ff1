package contracts

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/tokensale-client/business/connection/app"
)

var _ app.SaleContract = (*Sale)(nil)

// Sale is the exchange contract binding.
type Sale struct {
	address common.Address
	abi     abi.ABI
	caller  *caller
}

func newSale(address common.Address, c *caller) (*Sale, error) {
	parsed, err := abi.JSON(strings.NewReader(SaleABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse sale ABI: %w", err)
	}
	return &Sale{address: address, abi: parsed, caller: c}, nil
}

// Address returns the contract address.
func (s *Sale) Address() common.Address {
	return s.address
}

// BuyPrice reads the wei owed per whole token when buying.
func (s *Sale) BuyPrice(ctx context.Context) (*big.Int, error) {
	return s.caller.callBig(ctx, "sale", s.address, &s.abi, "buyPrice")
}

// SellPrice reads the wei refunded per whole token when selling.
func (s *Sale) SellPrice(ctx context.Context) (*big.Int, error) {
	return s.caller.callBig(ctx, "sale", s.address, &s.abi, "sellPrice")
}

// Balance reads the native currency held by the contract.
func (s *Sale) Balance(ctx context.Context) (*big.Int, error) {
	return s.caller.balance(ctx, s.address)
}

// NativeBalance reads the native balance of account.
func (s *Sale) NativeBalance(ctx context.Context, account common.Address) (*big.Int, error) {
	return s.caller.balance(ctx, account)
}

// BuyTokens buys exactly amount base units, paying value.
func (s *Sale) BuyTokens(ctx context.Context, amount, value *big.Int) (common.Hash, error) {
	return s.caller.transact(ctx, "sale", s.address, value, &s.abi, "buyTokens", amount)
}

// SellTokens sells amount base units back to the contract.
func (s *Sale) SellTokens(ctx context.Context, amount *big.Int) (common.Hash, error) {
	return s.caller.transact(ctx, "sale", s.address, nil, &s.abi, "sellTokens", amount)
}

// WithdrawETH moves amount wei out of the contract. Owner only.
func (s *Sale) WithdrawETH(ctx context.Context, amount *big.Int) (common.Hash, error) {
	return s.caller.transact(ctx, "sale", s.address, nil, &s.abi, "withdrawETH", amount)
}

// Deposit sends value to the contract's receive function.
func (s *Sale) Deposit(ctx context.Context, value *big.Int) (common.Hash, error) {
	return s.caller.transact(ctx, "sale", s.address, value, nil, "")
}
