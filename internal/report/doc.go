// Package report assembles evaluation results into immutable report values
// and renders them as text tables or canonical JSON.
//
// Everything in this package is a pure function of the run records it is
// given. Fetching, persistence and delivery belong to the caller. Each
// projection type implements Document so the CLI can render any of them the
// same way.
package report
