// Package models defines the data types shared by the client packages:
// users and their storage keys, income and expense records, the guest
// session marker, and the enumerations used by preferences.
//
// # Storage keys
//
// Every record collection is partitioned by a StorageKey. A guest user
// always maps to GuestStorageKey; an authenticated user maps to the email
// address. Records never cross keys.
//
// # Records
//
// Income and expense share one Record shape and are told apart by Kind.
// Expenses carry an ExpenseType and draw their Category from a different
// set than incomes. Amount is a non-negative decimal always read together
// with Currency. Note distinguishes nil (no note) from an empty string.
package models
