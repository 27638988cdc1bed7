// Package schema defines the vendor, part, score and risk records exchanged
// between the data sources, the scoring engine and its consumers.
//
// Derived part values (landed cost, total time) are methods, never stored
// fields, so they always reflect the record they are computed from.
package schema
