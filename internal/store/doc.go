// Package store persists canonical metadata records in SQLite and answers
// queries over them.
//
// Each record is stored as a JSON document in a single `data` column keyed
// by GUID. Query evaluation leans on SQLite's JSON1 functions; rich filter
// strings are parsed by filterexpr and compiled to parameterized SQL by
// filtersql. All result sets are ordered by GUID so that paginated windows
// are stable and non-overlapping for a fixed dataset.
package store
