// Command docstore manages typed JSON documents stored in MariaDB.
//
// The CLI supports:
//   - validate, plan, ddl: check the schema file and show the tables it maps to
//   - generate: write Go or TypeScript models for the schema types
//   - migrate, status: create the tables and report which exist
//   - doctor, purge: run health checks and delete orphaned part rows
//   - upsert, find, delete: write and query documents
//
// Configuration is read from docstore.yaml, DOCSTORE_* environment variables
// and flags, in increasing order of precedence.
//
// Usage:
//
//	docstore [flags] <command>
package main

func main() {
	Execute()
}
