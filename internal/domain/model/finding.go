package model

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityInfo     Severity = "INFO"
)

// Rankは、重大度の並び順を返します。小さいほど重大です。
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	default:
		return 3
	}
}

// Issueは、データ品質の検出結果です。例外ではなく常にレポートされます。
type Issue struct {
	Pass     string   `json:"pass"`
	Severity Severity `json:"severity"`
	Kind     string   `json:"kind"`
	CarID    string   `json:"carId"`
	Message  string   `json:"message"`
	Detail   any      `json:"detail,omitempty"`
}

// Repairは、修正パスが1レコードに適用した変更の前後です。
type Repair struct {
	Pass   string `json:"pass"`
	CarID  string `json:"carId"`
	Field  string `json:"field"`
	Before any    `json:"before"`
	After  any    `json:"after"`
}

type Findings struct {
	Issues  []Issue  `json:"issues"`
	Repairs []Repair `json:"repairs"`
}

func (f *Findings) AddIssue(issue Issue) {
	f.Issues = append(f.Issues, issue)
}

func (f *Findings) AddRepair(repair Repair) {
	f.Repairs = append(f.Repairs, repair)
}

// Mergeは、別パスの結果を連結します。
func (f *Findings) Merge(other Findings) {
	f.Issues = append(f.Issues, other.Issues...)
	f.Repairs = append(f.Repairs, other.Repairs...)
}

// SortIssuesは、重大度・パス・車種ID・種別の順で安定ソートします。
func (f *Findings) SortIssues() {
	sort.SliceStable(f.Issues, func(i, j int) bool {
		a, b := f.Issues[i], f.Issues[j]
		if a.Severity.Rank() != b.Severity.Rank() {
			return a.Severity.Rank() < b.Severity.Rank()
		}
		if a.Pass != b.Pass {
			return a.Pass < b.Pass
		}
		if a.CarID != b.CarID {
			return a.CarID < b.CarID
		}
		return a.Kind < b.Kind
	})
}

// CountBySeverityは、重大度別の件数を返します。
func (f Findings) CountBySeverity() map[Severity]int {
	counts := map[Severity]int{}
	for _, issue := range f.Issues {
		counts[issue.Severity]++
	}
	return counts
}

// ReconcileReportは、整合性チェック・修正の実行結果です。
type ReconcileReport struct {
	RunID      uuid.UUID        `json:"runId"`
	Mode       string           `json:"mode"`
	StartedAt  time.Time        `json:"startedAt"`
	FinishedAt time.Time        `json:"finishedAt"`
	Persisted  bool             `json:"persisted"`
	Counts     map[Severity]int `json:"counts"`
	Issues     []Issue          `json:"issues"`
	Repairs    []Repair         `json:"repairs"`
	Files      []string         `json:"files,omitempty"`
}

func NewReconcileReport(mode string, now time.Time) *ReconcileReport {
	return &ReconcileReport{
		RunID:     uuid.New(),
		Mode:      mode,
		StartedAt: now,
		Counts:    map[Severity]int{},
		Issues:    []Issue{},
		Repairs:   []Repair{},
	}
}

// SetFindingsは、検出結果を重大度順に並べて取り込みます。
func (r *ReconcileReport) SetFindings(f Findings) {
	f.SortIssues()
	if f.Issues != nil {
		r.Issues = f.Issues
	}
	if f.Repairs != nil {
		r.Repairs = f.Repairs
	}
	r.Counts = f.CountBySeverity()
}

// CarFuelVariantsは、1車種分の燃料別バリアントです。
type CarFuelVariants struct {
	CarID     string        `json:"carId"`
	Name      string        `json:"name"`
	FuelTypes []FuelType    `json:"fuelTypes"`
	Variants  []FuelVariant `json:"variants"`
}
