// Package output renders review reports.
//
// Reports are written as text (with a per-file table), JSON, markdown for PR
// comments, or SARIF 2.1.0 for code scanning upload. The package also writes
// the repository dashboard and rule listings.
package output
