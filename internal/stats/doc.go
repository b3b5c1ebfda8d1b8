// Package stats holds the significance tests and descriptive statistics
// used to compare survey answers between respondent groups and phases.
//
// Contingency tests (ChiSquare, FisherExact) take raw counts; rank tests
// (MannWhitneyU, KruskalWallis) and OneWayANOVA take numeric samples.
// Every test returns a domain.TestResult; too little data is reported as
// an error wrapping errors.ErrInsufficientData.
package stats
