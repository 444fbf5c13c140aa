// Package remote is the boundary to the remote graph API.
//
// The engine only needs Client: run a query, or several keyed by context,
// and get back decoded records. FixtureClient answers queries from a file
// of canned responses and backs the CLI's sync command and the tests.
//
// Files may be JSON, YAML or CUE. CUE fixtures can share record templates
// through unification; they must evaluate to concrete data.
package remote
