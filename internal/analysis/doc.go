// Package analysis classifies merged questions and runs the respondent and
// phase comparisons for each of them.
//
// Categorical questions are compared with chi-square, or Fisher's exact
// test for small 2×2 tables. Multi-select questions are tested option by
// option with a Bonferroni correction. Numeric questions use Mann-Whitney U
// between respondent groups and Kruskal-Wallis plus one-way ANOVA across
// phases.
package analysis
