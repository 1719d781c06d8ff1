package domain

import "math/big"

// SupplyInfo is the token supply as seen by the sale.
type SupplyInfo struct {
	MaxSupply   *big.Int
	TotalSupply *big.Int

	// SaleReserve is the token balance held by the sale contract.
	SaleReserve *big.Int

	Decimals uint8
}

// Headroom is how much can still be minted. A total above the cap reads as
// zero headroom rather than a negative figure.
func (s SupplyInfo) Headroom() *big.Int {
	if s.MaxSupply == nil || s.TotalSupply == nil {
		return big.NewInt(0)
	}
	h := new(big.Int).Sub(s.MaxSupply, s.TotalSupply)
	if h.Sign() < 0 {
		return big.NewInt(0)
	}
	return h
}

// AvailableToBuy is the reserve plus the headroom. It is advisory only: the
// contract decides at submission time.
func (s SupplyInfo) AvailableToBuy() *big.Int {
	avail := s.Headroom()
	if s.SaleReserve != nil {
		avail.Add(avail, s.SaleReserve)
	}
	return avail
}

// Exceeds reports whether requested base units go over AvailableToBuy.
func (s SupplyInfo) Exceeds(requested *big.Int) bool {
	if requested == nil {
		return false
	}
	return requested.Cmp(s.AvailableToBuy()) > 0
}
