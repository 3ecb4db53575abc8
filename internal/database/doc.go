// Package database provides SQLite-based storage for ContactScan.
//
// This package implements the HarvestDB, which stores:
//   - Fetched page records with response metadata and body hashes
//   - Contact signal findings per target across harvest runs
//   - Harvest reports for historical comparison
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. Sufficient performance for our use case
// 4. WAL mode provides good concurrent read performance
package database
