// Package ranking scores analysed questions by how much they are worth
// reporting and summarises data completeness.
package ranking
