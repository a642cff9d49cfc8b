package topics

const (
	// Mercados: todas as transições, apostas e claims
	MarketEvents = "market_events"

	// DLQs
	MarketEventsDLQ = "market_events_dlq"
	PayoutsDLQ      = "payouts_dlq"
)

// Canal Redis Pub/Sub consumido pelo WebSocket do odds-service
const OddsBroadcastChannel = "market_odds_broadcast"
