// Package store holds the persistence plumbing shared by the SQL-backed
// stores: the DBTX abstraction over *sql.DB and *sql.Tx, the transaction
// helper, and the error taxonomy every backend maps its failures onto.
package store
