// Package cli provides the interactive SpendWise command-line client.
//
// It wires configuration, the local SQLite store, the REST client and the
// session controller, then runs a REPL over the controller. Typical flow:
// launch the session (guest or restored account), unlock the security gate
// when one is configured, start a background connectivity watcher and
// execute user commands.
//
// Key features:
//   - Sign up / sign in / sign out / account deletion
//   - List, add, edit and delete incomes and expenses
//   - Summary totals and spending recommendations
//   - Security gate, monthly limit and display preferences
//   - Explicit sync and optional cloud backup / restore
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
