// Package matcher merges equivalent question columns from different survey
// exports into canonical questions.
//
// Columns are compared on a matching key (Key) that ignores width variants,
// whitespace, selection markers such as (可複選) and trailing punctuation.
// Alias rules force known rewordings together; everything else merges on
// identical keys or on a similarity (Similarity) at or above the configured
// threshold.
package matcher
