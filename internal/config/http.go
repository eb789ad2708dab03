package config

const (
	HCType        = "Content-Type"
	HCacheControl = "Cache-Control"

	CTypeJSON = "application/json"
	CTypeSSE  = "text/event-stream"
)

const (
	CookieSession = "inkpot_session"
)
