package models

import "strings"

// Market classification of a symbol. Domestic TSX listings trade without a
// currency-conversion fee; everything else is charged 1.5% per side.
type Listing int

const (
	ListingDomestic Listing = iota
	ListingForeign
)

const domesticSuffix = ".TO"

// ClassifyListing maps a symbol to its fee class by exchange suffix.
func ClassifyListing(symbol string) Listing {
	if strings.HasSuffix(symbol, domesticSuffix) {
		return ListingDomestic
	}
	return ListingForeign
}

// FeeRate returns the commission rate applied on both entry and exit.
func FeeRate(symbol string) float64 {
	if ClassifyListing(symbol) == ListingDomestic {
		return 0.0
	}
	return 0.015
}

// CryptoSet is the configured set of crypto-linked symbols. Spot pairs carry a
// "-USD" suffix and are treated as crypto regardless of membership.
type CryptoSet map[string]struct{}

func NewCryptoSet(symbols []string) CryptoSet {
	s := make(CryptoSet, len(symbols))
	for _, sym := range symbols {
		s[sym] = struct{}{}
	}
	return s
}

// IsCrypto reports whether the symbol is a crypto asset (member of the set or
// a spot pair). Crypto assets bypass the valuation gate.
func (s CryptoSet) IsCrypto(symbol string) bool {
	if _, ok := s[symbol]; ok {
		return true
	}
	return strings.HasSuffix(symbol, "-USD")
}
