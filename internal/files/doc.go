// Package files finds survey exports on disk and writes report artifacts.
//
// Discovery expands the command line inputs (files or directories) into the
// list of .csv and .xlsx exports to load, skipping Office lock files.
// Manager writes artifacts through a temp file and rename.
package files
