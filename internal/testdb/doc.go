// Package testdb provides database fixtures for tests.
//
// Unit tests get a fresh, migrated SQLite database per test through OpenSQLite.
// Integration tests (built with the "integration" tag) reach a real server
// through OpenFromEnv, which reads DATABASE_DRIVER and DATABASE_URL and skips
// the test when DATABASE_URL is unset. WithTx runs a test body inside a
// transaction that is always rolled back, so tests sharing one server do not
// see each other's rows.
package testdb
