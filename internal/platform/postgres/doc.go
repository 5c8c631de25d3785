// Package postgres implements the settings and contacts stores on
// PostgreSQL through the pgx database/sql driver. Stores accept a
// store.DBTX so the same code runs on a pool or inside a transaction.
package postgres
