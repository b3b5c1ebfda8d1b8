package domain

import (
	"sort"
	"strings"
)

// RespondentType identifies which population answered a survey row.
type RespondentType string

const (
	RespondentCompany  RespondentType = "公司方"
	RespondentInvestor RespondentType = "投資方"
	RespondentUnknown  RespondentType = "未知"
)

// RespondentTypes lists the comparable respondent populations in report order.
var RespondentTypes = []RespondentType{RespondentCompany, RespondentInvestor}

// ParseRespondentType accepts the Chinese labels as well as "company"/"investor".
func ParseRespondentType(s string) (RespondentType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(RespondentCompany), "company":
		return RespondentCompany, true
	case string(RespondentInvestor), "investor":
		return RespondentInvestor, true
	}
	return RespondentUnknown, false
}

// Phase is the development stage a response refers to.
type Phase string

const (
	PhaseFirst       Phase = "第一階段"
	PhaseSecond      Phase = "第二階段"
	PhaseThird       Phase = "第三階段"
	PhaseUnspecified Phase = "未標註階段"
)

// Phases lists the known phases in chronological order.
var Phases = []Phase{PhaseFirst, PhaseSecond, PhaseThird}

// Order returns the sort position of the phase; unspecified sorts last.
func (p Phase) Order() int {
	for i, known := range Phases {
		if p == known {
			return i
		}
	}
	return len(Phases)
}

// ParsePhase accepts the Chinese labels as well as "1"/"2"/"3" and "first"/"second"/"third".
func ParsePhase(s string) (Phase, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(PhaseFirst), "1", "first", "p1":
		return PhaseFirst, true
	case string(PhaseSecond), "2", "second", "p2":
		return PhaseSecond, true
	case string(PhaseThird), "3", "third", "p3":
		return PhaseThird, true
	}
	return PhaseUnspecified, false
}

// SourceFile describes one ingested survey export.
type SourceFile struct {
	Name       string         `json:"name"`
	Path       string         `json:"path"`
	Respondent RespondentType `json:"respondent"`
	Phase      Phase          `json:"phase"`
	Columns    []string       `json:"columns"`
	Rows       int            `json:"rows"`
	Encoding   string         `json:"encoding"`
}

// Response is one survey row after tagging.
type Response struct {
	ID         string            `json:"id"`
	SourceFile string            `json:"source_file"`
	Respondent RespondentType    `json:"respondent"`
	Phase      Phase             `json:"phase"`
	Answers    map[string]string `json:"answers"`
}

// RawColumn is a question column as it appears in one source file.
type RawColumn struct {
	Header     string         `json:"header"`
	Source     string         `json:"source"`
	Respondent RespondentType `json:"respondent"`
	Phase      Phase          `json:"phase"`
	Index      int            `json:"index"`
}

// Dataset is the in-memory union of all ingested survey files.
type Dataset struct {
	Files     []SourceFile `json:"files"`
	Responses []Response   `json:"responses"`
	Columns   []RawColumn  `json:"columns"`
}

// Selection restricts a dataset to some respondent types and phases.
// Empty slices select everything.
type Selection struct {
	Respondents []RespondentType `json:"respondents,omitempty"`
	Phases      []Phase          `json:"phases,omitempty"`
}

// IsZero reports whether the selection keeps every row.
func (s Selection) IsZero() bool {
	return len(s.Respondents) == 0 && len(s.Phases) == 0
}

// Label renders the selection the way report titles name it.
func (s Selection) Label() string {
	var parts []string
	for _, r := range s.Respondents {
		parts = append(parts, string(r))
	}
	if len(s.Phases) == 0 {
		parts = append(parts, "不分階段")
	}
	for _, p := range s.Phases {
		parts = append(parts, string(p))
	}
	if len(s.Respondents) != 1 {
		parts = append(parts, "(合併)")
	}
	return strings.Join(parts, " ")
}

func (s Selection) keeps(r Response) bool {
	if len(s.Respondents) > 0 && !containsRespondent(s.Respondents, r.Respondent) {
		return false
	}
	if len(s.Phases) > 0 && !containsPhase(s.Phases, r.Phase) {
		return false
	}
	return true
}

// Filter returns a dataset holding only the responses the selection keeps.
// Columns and files without any kept response are dropped.
func (d *Dataset) Filter(sel Selection) *Dataset {
	if sel.IsZero() {
		return d
	}

	out := &Dataset{}
	usedFiles := make(map[string]bool)
	for _, r := range d.Responses {
		if sel.keeps(r) {
			out.Responses = append(out.Responses, r)
			usedFiles[r.SourceFile] = true
		}
	}
	for _, f := range d.Files {
		if usedFiles[f.Name] {
			out.Files = append(out.Files, f)
		}
	}
	for _, c := range d.Columns {
		if usedFiles[c.Source] {
			out.Columns = append(out.Columns, c)
		}
	}
	return out
}

// CountByRespondent counts responses per respondent type.
func (d *Dataset) CountByRespondent() map[RespondentType]int {
	counts := make(map[RespondentType]int)
	for _, r := range d.Responses {
		counts[r.Respondent]++
	}
	return counts
}

// CountByPhase counts responses per phase.
func (d *Dataset) CountByPhase() map[Phase]int {
	counts := make(map[Phase]int)
	for _, r := range d.Responses {
		counts[r.Phase]++
	}
	return counts
}

// PresentPhases returns the phases that occur in the dataset, in chronological order.
func (d *Dataset) PresentPhases() []Phase {
	counts := d.CountByPhase()
	phases := make([]Phase, 0, len(counts))
	for p := range counts {
		phases = append(phases, p)
	}
	sort.Slice(phases, func(i, j int) bool { return phases[i].Order() < phases[j].Order() })
	return phases
}

func containsRespondent(list []RespondentType, v RespondentType) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func containsPhase(list []Phase, v Phase) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
