package constants

type ContextKey string

const (
	PoolKey      ContextKey = "pool"
	TxKey        ContextKey = "tx"
	LoggerKey    ContextKey = "logger"
	ActorKey     ContextKey = "actor"
	RequestIDKey ContextKey = "request_id"
)
