package utils

// headers sent to the interview backend on every request
const (
	HEADER_API_KEY         = "X-Api-Key"
	HEADER_SOURCE_KEY      = "X-Interview-Source"
	HEADER_ENVIRONMENT_KEY = "X-Interview-Environment"
	HEADER_SESSION_KEY     = "X-Interview-Session"
	HEADER_REQUEST_ID_KEY  = "X-Request-Id"
)
