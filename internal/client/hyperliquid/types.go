package hyperliquid

import (
	"fmt"
	"strings"
)

// SpotAssetIDOffset maps a spot pair index to the asset id the order
// endpoint expects.
const SpotAssetIDOffset = 10000

type TokenMeta struct {
	Name        string `json:"name"`
	SzDecimals  int    `json:"szDecimals"`
	WeiDecimals int    `json:"weiDecimals"`
	Index       int    `json:"index"`
	TokenID     string `json:"tokenId"`
}

type UniversePair struct {
	Name   string `json:"name"`
	Tokens []int  `json:"tokens"`
	Index  int    `json:"index"`
}

type SpotMeta struct {
	Tokens   []TokenMeta    `json:"tokens"`
	Universe []UniversePair `json:"universe"`
}

// TokenByName looks an asset up by name, case-insensitively.
func (m *SpotMeta) TokenByName(name string) (TokenMeta, bool) {
	for _, t := range m.Tokens {
		if strings.EqualFold(t.Name, name) {
			return t, true
		}
	}
	return TokenMeta{}, false
}

// AllMids maps market keys to mid-price strings. Spot pairs are keyed by
// "@<pair index>".
type AllMids map[string]string

func (m AllMids) SpotMid(pairIndex int) (string, bool) {
	mid, ok := m[fmt.Sprintf("@%d", pairIndex)]
	return mid, ok
}

type SpotBalance struct {
	Coin  string `json:"coin"`
	Hold  string `json:"hold"`
	Total string `json:"total"`
}

type SpotClearinghouseState struct {
	Balances []SpotBalance `json:"balances"`
}

type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("hyperliquid API error (%d): %s", e.Status, e.Body)
}
