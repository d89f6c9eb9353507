// Package main provides the vantage CLI.
//
// The CLI works from a YAML model file (see pkg/model) and supports:
//   - render: print the SQL a table operation produces, without a database
//   - query: run a table's SELECT through the configured driver
//   - config show: print the effective configuration
//   - version: print build information
//
// Usage:
//
//	vantage [flags] <command>
package main

func main() {
	Execute()
}
