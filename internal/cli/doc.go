// Package cli implements the indica command-line interface.
//
// Commands are cobra.Command values registered on rootCmd from init
// functions. Each command loads settings through loadSettings, which finds
// the config file, applies the global flags (--config, --no-color,
// --interval, --width) and validates the result, then builds a render
// engine with newEngine.
//
//	indica pipe          - draw indicators from progress lines on stdin
//	indica demo [kind]   - synthetic tasks for each indicator kind
//	indica config init   - write .indica.yaml with the defaults
//	indica config set    - change one key in the config file
//	indica config show   - print the effective settings
//	indica version       - print version information
//
// Long-running commands cancel their context on SIGINT or SIGTERM so the
// engine can draw its final frame and restore the cursor before exit.
package cli
