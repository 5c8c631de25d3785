// Package testdb provides database helpers for integration tests: opening
// the test database with the schema applied, and running each test inside a
// transaction that is always rolled back.
package testdb
