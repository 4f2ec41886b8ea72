// Package component manages the lifecycle of long-running services such as
// the preview hub and the HTTP server.
//
// Components are started in registration order and stopped in reverse, and
// the registry aggregates their health for the /health endpoint.
package component
