// Package diff maps unified-diff text onto post-change line numbers.
//
// [ParsePatch] walks one file's patch with an explicit line cursor and
// returns the added lines together with the new-file line number each one
// lands on. Context lines advance the cursor, removed lines do not, and
// "\ No newline at end of file" markers are ignored. A hunk header that does
// not parse invalidates the cursor until the next valid header; added lines
// seen without a valid cursor are skipped and reported as diagnostics rather
// than assigned a guessed location.
//
// [SplitFiles] splits a multi-file git diff into per-file patches shaped like
// the "patch" field of the GitHub pull request files API, so both local and
// remote sources feed the same parser.
package diff
