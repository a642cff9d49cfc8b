package events

import "time"

// OddsSnapshot é o estado de odds de um mercado gravado no Redis
// (market:odds:<id>) e enviado aos clientes WebSocket.
type OddsSnapshot struct {
	MarketID string    `json:"marketId"`
	Status   string    `json:"status"`
	PoolA    string    `json:"poolA"`
	PoolB    string    `json:"poolB"`
	OddsA    uint32    `json:"oddsA"`
	OddsB    uint32    `json:"oddsB"`
	Ts       time.Time `json:"ts"`
}
