/*
Package observability provides tools for monitoring canopy conversations.

Metrics exposes Prometheus collectors fed through domain.LifecycleHooks, so any
session or dispatcher configured with its hooks reports rounds, tool calls and
turn outcomes. Logging hooks write the same events to a structured logger.
*/
package observability
