// Package logging builds the structured logger shared by the CLI, the review
// engine and the GitHub client. Logs go to stderr so they never mix with
// report output.
package logging
