package model

// PriceTick is a single live price observation from the price stream.
// Ephemeral: each tick for a symbol supersedes the previous one.
type PriceTick struct {
	Symbol    string   `json:"symbol"`
	Price     float64  `json:"price"`
	Timestamp int64    `json:"timestamp"` // epoch ms
	Change24h *float64 `json:"change24h,omitempty"`
}
