package model

import (
	"time"

	"github.com/google/uuid"
)

type DiscoveryStatus string

const (
	// DiscoveryNewは、カタログに無い車種です。
	DiscoveryNew   DiscoveryStatus = "NEW"
	DiscoveryKnown DiscoveryStatus = "KNOWN"
)

// DiscoveredModelは、ブランドページで見つかった車種です。
type DiscoveredModel struct {
	ID           uuid.UUID       `json:"id"`
	CarID        string          `json:"carId"`
	BrandID      string          `json:"brandId"`
	Name         string          `json:"name"`
	URL          string          `json:"url"`
	Status       DiscoveryStatus `json:"status"`
	DiscoveredAt time.Time       `json:"discoveredAt"`
}

// BrandDiscoveryは、1ブランド分の探索結果の件数です。
type BrandDiscovery struct {
	BrandID string `json:"brandId"`
	Found   int    `json:"found"`
	New     int    `json:"new"`
	Error   string `json:"error,omitempty"`
}

// DiscoveryReportは、車種探索の実行レポートです。
type DiscoveryReport struct {
	RunID        uuid.UUID         `json:"runId"`
	StartedAt    time.Time         `json:"startedAt"`
	FinishedAt   time.Time         `json:"finishedAt"`
	Brands       []BrandDiscovery  `json:"brands"`
	New          []DiscoveredModel `json:"new"`
	WorklistFile string            `json:"worklistFile,omitempty"`
}

func NewDiscoveryReport(now time.Time) *DiscoveryReport {
	return &DiscoveryReport{
		RunID:     uuid.New(),
		StartedAt: now,
		Brands:    []BrandDiscovery{},
		New:       []DiscoveredModel{},
	}
}
