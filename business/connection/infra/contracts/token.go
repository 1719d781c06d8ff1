package contracts

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/tokensale-client/business/connection/app"
	"github.com/fd1az/tokensale-client/internal/apperror"
)

var _ app.TokenContract = (*Token)(nil)

// Token is the asset contract binding.
type Token struct {
	address common.Address
	abi     abi.ABI
	caller  *caller
}

func newToken(address common.Address, c *caller) (*Token, error) {
	parsed, err := abi.JSON(strings.NewReader(TokenABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token ABI: %w", err)
	}
	return &Token{address: address, abi: parsed, caller: c}, nil
}

// Address returns the contract address.
func (t *Token) Address() common.Address {
	return t.address
}

// Decimals reads the token precision.
func (t *Token) Decimals(ctx context.Context) (uint8, error) {
	outputs, err := t.caller.call(ctx, "token", t.address, &t.abi, "decimals")
	if err != nil {
		return 0, err
	}
	d, ok := outputs[0].(uint8)
	if !ok {
		return 0, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithContext(fmt.Sprintf("token.decimals returned %T", outputs[0])))
	}
	return d, nil
}

// TotalSupply reads the circulating supply.
func (t *Token) TotalSupply(ctx context.Context) (*big.Int, error) {
	return t.caller.callBig(ctx, "token", t.address, &t.abi, "totalSupply")
}

// MaxSupply reads the issuance cap.
func (t *Token) MaxSupply(ctx context.Context) (*big.Int, error) {
	return t.caller.callBig(ctx, "token", t.address, &t.abi, "MAX_SUPPLY")
}

// BalanceOf reads owner's token balance.
func (t *Token) BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error) {
	return t.caller.callBig(ctx, "token", t.address, &t.abi, "balanceOf", owner)
}

// Allowance reads how much spender may pull from owner.
func (t *Token) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	return t.caller.callBig(ctx, "token", t.address, &t.abi, "allowance", owner, spender)
}

// Approve lets spender pull amount from the signer's balance.
func (t *Token) Approve(ctx context.Context, spender common.Address, amount *big.Int) (common.Hash, error) {
	return t.caller.transact(ctx, "token", t.address, nil, &t.abi, "approve", spender, amount)
}
