package ranking_test

import (
	"fmt"
	"io"
	"log/slog"

	"surveycli/internal/config"
	"surveycli/internal/ranking"
	"surveycli/pkg/contracts/domain"
)

func ExampleRecommender_Rank() {
	analyses := []domain.QuestionAnalysis{
		{
			Question:       domain.MergedQuestion{ID: "Q001", Text: "是否設置獨立董事"},
			Type:           domain.AnswerCategorical,
			N:              48,
			RespondentTest: &domain.TestResult{Method: domain.MethodChiSquare, PValue: 0.003},
		},
		{
			Question:    domain.MergedQuestion{ID: "Q002", Text: "董事會開會頻率"},
			Type:        domain.AnswerCategorical,
			N:           40,
			MissingRate: 0.2,
		},
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := ranking.NewRecommender(config.Default().Ranking, 0.05, logger)
	for _, rec := range r.Rank(analyses) {
		fmt.Printf("%s %.2f %s\n", rec.QuestionID, rec.Score, rec.Tier.Label())
	}
	// Output:
	// Q001 3.50 高度優先
	// Q002 0.80 一般
}
