// Package server exposes the flowkit engine over HTTP using Gin.
//
// Routes:
//
//	POST   /v1/runs             run a flow
//	POST   /v1/nodes/:id/run    run one node against supplied upstream outputs
//	GET    /v1/executors        list registered node types
//	GET    /v1/cache/stats      cache counters
//	DELETE /v1/cache            drop every cached result
//	DELETE /v1/cache/:id        drop one node (?downstream=true follows edges)
//	GET    /v1/preview/:node    stream preview events (SSE)
//	GET    /health              component health
//	GET    /version             build information
//
// The Gin engine is served through h2c so HTTP/2 clients can stream preview
// events without TLS.
package server
