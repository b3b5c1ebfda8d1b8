// Package config provides centralized configuration for the survey report tools.
// It loads settings from multiple sources, validates them and resolves the
// paths every run reads from and writes to.
//
// # Configuration Sources
//
// Configuration is assembled in this order, later sources winning:
//
//  1. Defaults from struct tags
//  2. A .env file in the working directory (if present)
//  3. Environment variables
//  4. A YAML file (-config flag, survey.yaml or configs/survey.yaml)
//
// # Environment Variables
//
// All environment variables follow the pattern SURVEY_<SECTION>_<FIELD>:
//
//	SURVEY_PATHS_INPUT_DIR=data/surveys
//	SURVEY_MATCHER_SIMILARITY_THRESHOLD=0.9
//	SURVEY_ANALYSIS_WORKERS=8
//	SURVEY_LOGGING_LEVEL=debug
//
// # Catalogues
//
// The core report topics and the question alias rules ship as embedded YAML
// (topics.yaml, aliases.yaml). LoadTopics and LoadAliases accept a path to
// replace them.
//
// # Usage
//
//	cfg, err := config.Load(*configFile)
//	if err != nil {
//	    slog.Error("Failed to load config", "error", err)
//	    os.Exit(1)
//	}
//	paths, err := config.ResolvePaths(cfg.Paths)
package config
