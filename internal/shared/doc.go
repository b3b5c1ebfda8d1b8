// Package shared holds helpers used by more than one package's tests.
//
// The testutil subpackage provides a log-capturing slog handler and writers
// for survey export fixtures:
//
//	logger, logs := testutil.NewTestLogger(t)
//	path := testutil.WriteSurveyCSV(t, dir, "STANDARD_8RG8Y_問卷.csv",
//		[]string{"公司規模？"}, [][]string{{"50"}, {"30"}})
//	...
//	testutil.AssertLogContains(t, logs, slog.LevelWarn, "Skipping survey file")
package shared
