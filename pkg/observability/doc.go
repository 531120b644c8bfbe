/*
Package observability exposes the Prometheus metrics shared by the relay, the
host executor and the MCP agent.

Each process owns a private registry so tests and embedded hosts never collide
with the global default registry.
*/
package observability
