// Package version provides build and version information.
package version

// Version is the current application version.
const Version = "0.4.0"

// Milestones:
// 0.4.0 - HTTP API, Prometheus metrics, MQTT notifications, TUI browser
// 0.3.0 - Best-month yearly mode, SQLite resolver cache
// 0.2.0 - Moon interference scoring, direction filter, Caldwell list
// 0.1.0 - Initial release: night windows, peak finder, Messier ranking
