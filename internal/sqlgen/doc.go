// Package sqlgen compiles document type metadata into MariaDB SQL.
//
// # Overview
//
// Every document type is stored as a JSON payload plus columns projected out
// of that payload. This package plans the physical layout of those tables and
// generates the SQL that creates, fills and reads them:
//
//  1. Layout: one primary table per root type, a base table plus a view per
//     part type, a side table per array-indexed field
//  2. DDL: idempotent CREATE TABLE / CREATE VIEW statements in creation order
//  3. Upsert: the primary INSERT ... ON DUPLICATE KEY UPDATE, then DELETE and
//     INSERT ... SELECT pairs that rebuild part and side rows from the payload
//  4. Read: a restrict-then-project query over namespaces joined along
//     reference fields
//
// # Layout
//
// With the default "model_" prefix a container with one array of parts is
// stored as:
//
//	model_Container          primary table, payload + generated columns
//	model_Part_pbase         part rows: root/container row ids, json path, columns
//	model_Part               view recomputing each part payload from its container
//	model_Part_codes         one row per element of the array-indexed field codes
//
// # Read queries
//
// Filtering and ordering run over small "core" subqueries holding row ids,
// join keys, order columns and full-text relevance. The cores are joined into
// a paged "base" result, and only the surviving rows are joined back to the
// tables and views that produce the requested fields:
//
//	SELECT <fields> FROM (
//	  SELECT ... ROW_NUMBER() OVER (...) FROM (core0) JOIN (core1) ... LIMIT n
//	) AS BASE JOIN model_T AS T0 ... ORDER BY BASE.__base_order
//
// # SQL DSL
//
// Statements are assembled from the typed building blocks in the sqldsl
// subpackage rather than concatenated strings.
package sqlgen
