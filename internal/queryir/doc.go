// Package queryir is the small predicate language used to address local
// records.
//
// Callers describe which rows they want (Select with an Equals/And filter)
// and the store compiles that description to parameterized SQL through
// querysql. Keeping the description separate from the SQL keeps every
// lookup in the reconciliation engine declarative and lets the store reject
// unknown columns before any SQL is built.
//
// The fragment is deliberately narrow: equality, conjunction, and an
// optional "newest N rows" window. No OR, no joins, no NULL comparisons.
package queryir
