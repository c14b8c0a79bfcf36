// Package stream serves the status indicator channel over HTTP.
//
// Routes:
//
//	GET /status         websocket; one JSON toast.Event per message
//	GET /status/active  JSON snapshot of the visible indicators
//	GET /metrics        Prometheus exposition
//
// A new websocket client first receives a "show" event for every visible
// indicator, then live events. Clients that fall behind are disconnected.
package stream
