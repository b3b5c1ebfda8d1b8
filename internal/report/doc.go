// Package report writes the analysis documents: the descriptive Word report,
// the executive brief and the government-style analytical report in
// Markdown and HTML.
package report
