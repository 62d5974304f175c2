package model

import (
	"time"

	"github.com/google/uuid"
)

type OutcomeStatus string

const (
	OutcomeFixed     OutcomeStatus = "fixed"
	OutcomeUnchanged OutcomeStatus = "unchanged"
	OutcomeFailed    OutcomeStatus = "failed"
)

// PriceAuditは、複数の価格が見つかったトリムについて候補と採用値を記録します。
type PriceAudit struct {
	Trim       string  `json:"trim"`
	Candidates []int64 `json:"candidates"`
	Chosen     int64   `json:"chosen"`
}

type VehicleOutcome struct {
	CarID      string            `json:"carId"`
	Status     OutcomeStatus     `json:"status"`
	Error      string            `json:"error,omitempty"`
	ErrorKind  string            `json:"errorKind,omitempty"`
	Empty      []string          `json:"empty,omitempty"`
	Changes    []string          `json:"changes,omitempty"`
	PriceAudit []PriceAudit      `json:"priceAudit,omitempty"`
	Strategies map[string]string `json:"strategies,omitempty"`
	Duration   time.Duration     `json:"durationNs"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}

// Succeededは、抽出が成功した(fixedまたはunchanged)かを返します。
func (o VehicleOutcome) Succeeded() bool {
	return o.Status == OutcomeFixed || o.Status == OutcomeUnchanged
}

type RunCounts struct {
	Total     int `json:"total"`
	Fixed     int `json:"fixed"`
	Unchanged int `json:"unchanged"`
	Failed    int `json:"failed"`
}

// RunReportは、バッチ実行の機械可読な結果です。
type RunReport struct {
	RunID      uuid.UUID        `json:"runId"`
	StartedAt  time.Time        `json:"startedAt"`
	FinishedAt time.Time        `json:"finishedAt"`
	Persisted  bool             `json:"persisted"`
	Counts     RunCounts        `json:"counts"`
	Outcomes   []VehicleOutcome `json:"outcomes"`
}

func NewRunReport(now time.Time) *RunReport {
	return &RunReport{
		RunID:     uuid.New(),
		StartedAt: now,
		Outcomes:  []VehicleOutcome{},
	}
}

func (r *RunReport) Add(o VehicleOutcome) {
	r.Outcomes = append(r.Outcomes, o)
	r.Counts.Total++
	switch o.Status {
	case OutcomeFixed:
		r.Counts.Fixed++
	case OutcomeUnchanged:
		r.Counts.Unchanged++
	case OutcomeFailed:
		r.Counts.Failed++
	}
}

// Succeededは、fixedとunchangedの合計を返します。
func (r *RunReport) Succeeded() int {
	return r.Counts.Fixed + r.Counts.Unchanged
}

// FailedIDsは、failedとなった車種IDを記録順で返します。
func (r *RunReport) FailedIDs() []string {
	var ids []string
	for _, o := range r.Outcomes {
		if o.Status == OutcomeFailed {
			ids = append(ids, o.CarID)
		}
	}
	return ids
}
