// Package storage keeps the kiosk journal: an append-only record of fetch
// attempts, deck mutations and remedial actions, for later inspection.
//
// Nothing is read back at start; the kiosk always begins cold. Drivers:
//   - "file": JSON Lines, one entry per line
//   - "sqlite": SQLite database (modernc.org/sqlite, no cgo)
package storage
