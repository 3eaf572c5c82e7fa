// Package cli provides the interactive userkeeper command-line client.
//
// The REPL is started via App.Run(ctx), which restores any saved session,
// starts a background connectivity watcher and blocks until the user exits.
// Commands: signup, login, passwd, profile, users, logout, exit.
package cli
