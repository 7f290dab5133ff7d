// Package session owns the current identity and its in-memory record
// collections.
//
// # State machine
//
// The Controller is either Guest or Authenticated.
//
//   - Launch loads the persisted user (a new guest when none), purges guest
//     data flagged for clearing or older than the guest TTL, and loads the
//     collections for the derived storage key. An authenticated launch also
//     starts a background refresh from the remote store.
//   - SignIn and SignUp replace the user, drop guest collections and start a
//     remote fetch for the new key. A failed fetch leaves the collections
//     empty.
//   - SignOut and DeleteAccount clear the user, its token and its local
//     records, then install a fresh guest.
//   - EnterBackground purges guest data, flags it for clearing on the next
//     launch and locks the security gate.
//
// # Mutations
//
// Add, Update and Delete change the in-memory collection, write it through
// to the local store and, for authenticated users, mirror the change to the
// remote store in the background. The returned *Pending completes with the
// remote outcome; failures are logged and never undo the local change.
//
// # Consistency
//
// Every change of storage key bumps a generation counter. Background
// fetches compare it on completion and drop results that belong to an older
// identity. Readers receive copies; only the Controller mutates the
// collections. Subscribers are notified with RecordsChanged and
// IdentityChanged events, possibly from background goroutines.
package session
