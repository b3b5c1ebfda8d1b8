package report

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/gingfrederik/docx"

	"surveycli/internal/analysis"
	"surveycli/internal/config"
	apperrors "surveycli/internal/errors"
	"surveycli/internal/files"
	"surveycli/internal/ranking"
	"surveycli/pkg/contracts/domain"
)

// BriefWriter writes the short executive summary of the priority topics
type BriefWriter struct {
	cfg    config.ReportConfig
	files  *files.Manager
	logger *slog.Logger
}

// NewBriefWriter creates a brief writer
func NewBriefWriter(cfg config.ReportConfig, logger *slog.Logger) *BriefWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &BriefWriter{cfg: cfg, files: files.NewManager("", logger), logger: logger}
}

// Build lays out the brief
func (b *BriefWriter) Build(in *Input) *docx.File {
	f := docx.NewFile()

	f.AddParagraph().AddText(b.cfg.Title + "：重點議題摘要").Size(20)
	meta := formatDate(in.generated())
	if !in.Selection.IsZero() {
		meta += "　" + in.Selection.Label()
	}
	f.AddParagraph().AddText(meta).Size(10).Color("808080")
	f.AddParagraph()

	counts := ranking.CountTiers(in.Recommendations)
	resp, total := in.RespondentDistribution()
	var who []string
	for _, c := range resp {
		who = append(who, fmt.Sprintf("%s %d 人", c.Label, c.N))
	}
	f.AddParagraph().AddText(fmt.Sprintf("本次分析共 %d 筆回覆（%s），%d 個題目；其中%s %d 題、%s %d 題。",
		total, strings.Join(who, "、"), len(in.Analyses),
		domain.TierHigh.Label(), counts[domain.TierHigh],
		domain.TierMedium.Label(), counts[domain.TierMedium]))
	f.AddParagraph().AddText(fmt.Sprintf("資料完整度 %.1f%%（%s）。", in.Completeness.Rate*100, in.Completeness.Grade))
	f.AddParagraph()

	alpha := in.alpha()
	for _, tier := range []domain.PriorityTier{domain.TierHigh, domain.TierMedium} {
		recs := ranking.FilterTier(in.Recommendations, tier)
		if len(recs) == 0 {
			continue
		}
		f.AddParagraph().AddText(fmt.Sprintf("%s（%d 題）", tier.Label(), len(recs))).Size(16)
		for i, rec := range recs {
			f.AddParagraph().AddText(fmt.Sprintf("%d. %s", i+1, rec.Text)).Size(12)
			line := fmt.Sprintf("推薦分數 %.2f", rec.Score)
			if rec.HasPValue {
				line += fmt.Sprintf("；%s %s", rec.Method.Label(), analysis.FormatP(rec.PValue))
			}
			f.AddParagraph().AddText(line).Size(10).Color("404040")
			if a, ok := in.Analysis(rec.QuestionID); ok {
				f.AddParagraph().AddText(analysis.Interpret(a, alpha)).Size(10)
			}
			if len(rec.Reasons) > 0 {
				f.AddParagraph().AddText("推薦理由：" + strings.Join(rec.Reasons, "；")).Size(9).Color("808080")
			}
		}
		f.AddParagraph()
	}

	if len(in.Completeness.Gaps) > 0 {
		f.AddParagraph().AddText("資料缺漏提醒").Size(16)
		for _, g := range in.Completeness.Gaps {
			f.AddParagraph().AddText(fmt.Sprintf("- %s %s：缺漏率 %.1f%%", g.QuestionID, truncateText(g.Text, 40), g.MissingRate*100)).Size(10)
		}
	}
	return f
}

// Write builds the brief and saves it to path
func (b *BriefWriter) Write(path string, in *Input) error {
	f := b.Build(in)
	if err := b.files.WriteAtomic(path, f.Write); err != nil {
		return apperrors.NewRenderError("failed to write brief", err).WithContext("path", path)
	}
	b.logger.Info("Executive brief written", slog.String("path", path))
	return nil
}

func truncateText(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
