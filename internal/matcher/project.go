package matcher

import (
	"surveycli/pkg/contracts/domain"
)

// Answer is one response's value for a merged question
type Answer struct {
	ResponseID string
	Respondent domain.RespondentType
	Phase      domain.Phase
	Value      string
	// Applicable is false when the response's file never asked the question
	Applicable bool
}

// Project returns, aligned with ds.Responses, each response's answer to q.
// When a file holds several member columns the first non-empty one wins.
func Project(ds *domain.Dataset, q domain.MergedQuestion) []Answer {
	headers := make(map[string][]string)
	for _, m := range q.Members {
		headers[m.Source] = append(headers[m.Source], m.Header)
	}

	out := make([]Answer, len(ds.Responses))
	for i, r := range ds.Responses {
		a := Answer{
			ResponseID: r.ID,
			Respondent: r.Respondent,
			Phase:      r.Phase,
		}
		if cols, ok := headers[r.SourceFile]; ok {
			a.Applicable = true
			for _, h := range cols {
				if v := r.Answers[h]; v != "" {
					a.Value = v
					break
				}
			}
		}
		out[i] = a
	}
	return out
}
