// Package api implements the JSON HTTP API.
//
// The API exposes the conversational endpoints:
//
//	POST /api/v1/chat/{userId}          run one conversational turn
//	GET  /api/v1/chat/{userId}/history  list past turns, newest first
//
// plus /health and /ready probes that bypass the middleware stack.
// All error responses share one JSON shape: {"error": {"code", "message"}}.
// Backend failure detail is logged, never echoed to clients.
package api
