package ws

import "encoding/json"

// ClientMsg representa uma mensagem recebida do cliente WebSocket
// Type: subscribe | unsubscribe | ping
type ClientMsg struct {
	Type     string `json:"type"`
	MarketID string `json:"marketId"` // requerido em subscribe/unsubscribe
}

// Update é o envelope publicado pelo projector no Redis e repassado aos
// clientes inscritos no mercado.
type Update struct {
	MarketID string          `json:"marketId"`
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
}
