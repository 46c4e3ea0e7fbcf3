package health

import (
	"github.com/deployable-tech/deployable-knowledge-web/core/handler"
	"github.com/deployable-tech/deployable-knowledge-web/core/response"
)

// Liveness reports that the process is serving requests. No dependency checks.
func Liveness[C handler.Context](C) handler.Response {
	return response.String("ALIVE")
}

// NoContent returns 204 without a body; used for /favicon.ico.
func NoContent[C handler.Context](C) handler.Response {
	return response.NoContent()
}
