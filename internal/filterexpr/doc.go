// Package filterexpr defines the filter expression language used to query
// stored metadata documents, and its parser.
//
// A filter expression selects documents by comparing JSON fields against
// typed literals. Three forms compose recursively:
//
//	(message,:eq,"morning")                          scalar comparison
//	(_resource_paths,:any,(,:like,"/programs/%"))    array quantifier
//	(or,(pet,:eq,"cat"),(pet,:eq,"dog"))             boolean composition
//
// Parse turns a filter string into a tagged Filter tree (Scalar, Compound,
// Boolean). The tree is immutable and carries decoded native values, ready
// for a backend compiler to translate into a store query. The filtersql
// package compiles it to SQLite JSON1 SQL.
//
// Operators are :eq :ne :gt :gte :lt :lte :like for scalars, :any/:all
// for arrays, and and/or for composition. Keys are dotted paths; a
// digit-only segment addresses an array index.
package filterexpr
