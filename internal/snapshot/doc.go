// Package snapshot reads exported run snapshots and serves them through
// the tracking read contract.
//
// A snapshot is a JSON or YAML document listing runs with their summaries,
// configs and optionally their history, artifacts and console log. Every
// document is checked against an embedded JSON Schema before it is
// decoded, so malformed exports fail at the boundary with instance
// locations instead of surfacing as odd reports later.
package snapshot
