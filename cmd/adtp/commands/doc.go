// Package commands defines the adtp CLI.
//
// Commands
//
//   - serve   Accept ADTP connections and answer them from an in-memory store
//   - send    Connect to a server, send one request and print the response
//   - demo    Run a listener and a client in one process and exchange "Hello World"
//
// The root command loads the YAML config (or the defaults) and builds the
// zap logger before any subcommand runs. Flags override config values.
package commands
