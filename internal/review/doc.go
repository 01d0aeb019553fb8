// Package review contains the core types and engine for rule-based diff review.
//
// Rules are immutable pattern records grouped by language plus a generic
// group. [Registry.RulesFor] returns the language rules followed by the
// generic rules, filtered to the enabled categories. [Match] applies them to
// the added lines produced by the diff package, emitting at most one
// [Finding] per line per rule.
//
// [Engine.AnalyzeFiles] runs parse-and-match for many files in parallel with
// bounded concurrency and an optional findings cache; results are merged in
// input order and finding IDs are renumbered across the run so concurrent and
// sequential runs produce identical output.
//
// Counts are always folded from findings ([CountSeverities]), and [Decide]
// turns counts into the approve / request-changes gate. [SummarizeDashboard]
// derives repository rollups (average health, estimated hours saved).
//
// Rule packs (pack.go) add custom rules, disable built-ins, and override
// severities per category.
package review
