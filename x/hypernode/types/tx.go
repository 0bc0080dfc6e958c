package types

import (
	sdkmath "cosmossdk.io/math"
)

// TxResponse is the outcome of one executed ledger operation: the address of
// the record it touched and the record as written.
type TxResponse struct {
	Address Address     `json:"address"`
	Record  interface{} `json:"record,omitempty"`
	Events  []Event     `json:"events,omitempty"`
}

// Event is a flattened ledger event.
type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}

// RewardPayout reports a position after rewards were paid out of it.
type RewardPayout struct {
	Stake  StakePosition `json:"stake"`
	Payout sdkmath.Int   `json:"payout"`
}
