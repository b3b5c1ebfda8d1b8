// Package operations runs the survey pipeline as a sequence of dependent
// steps.
//
// The pipeline is:
//
//	ingest -> match -> classify -> statistics -> rank -> render
//
// Manager: orders the registered steps by dependency, runs them one at a
// time with a per-step timeout and retry policy, and records a span and a
// duration metric for each step.
//
// Step: a single unit of work. Each step reads what earlier steps left in
// the shared Results and adds its own output.
//
// Registry: holds the steps and sorts them topologically.
//
// State: the status, progress and metadata of the run and of every step.
//
// Example usage:
//
//	manager, err := operations.NewPipeline(cfg, paths, operations.PipelineOptions{}, logger)
//	if err != nil {
//		return err
//	}
//	resp, err := manager.Execute(ctx, operations.OperationRequest{
//		Parameters: map[string]interface{}{
//			operations.ParamInputs:    []string{"data/surveys"},
//			operations.ParamSelection: domain.Selection{Respondents: []domain.RespondentType{domain.RespondentCompany}},
//		},
//	})
//
// A failed step skips every step after it. With ContinueOnError only the
// steps that depend on the failed one are skipped.
package operations
