// Package redact removes secrets from finding snippets before they are
// written to a report or posted to a pull request.
//
// Detection uses regex heuristics covering common secret shapes: API keys,
// JWTs, private keys, AWS access key IDs and secret access keys, bearer
// tokens, connection strings with inline credentials, and vendor tokens
// (GitHub, Slack, sk- prefixed keys).
//
// Path-based redaction is also supported: findings in files whose paths match
// configured doublestar patterns have their whole snippet replaced with
// [REDACTED] rather than being scanned.
package redact
