package reconcile

import (
	"context"
	"fmt"
	"slices"

	"github.com/nrad-K/car-catalog/internal/config"
	"github.com/nrad-K/car-catalog/internal/domain/model"
	"github.com/nrad-K/car-catalog/internal/infra"
	"github.com/nrad-K/car-catalog/internal/logger"
)

// Modeは、パスの実行モードです。checkはスナップショットを変更せず、fixだけが修正を適用します。
type Mode int

const (
	ModeCheck Mode = iota
	ModeFix
)

func (m Mode) String() string {
	if m == ModeFix {
		return "fix"
	}
	return "check"
}

const (
	PassMissingLinkedData = "missing-linked-data"
	PassExactDuplicate    = "exact-duplicate"
	PassSamePriceDup      = "same-price-duplicate"
	PassNearDuplicate     = "near-duplicate"
	PassPlaceholderColor  = "placeholder-color"
	PassPriceGrade        = "price-grade"
	PassBrokenImage       = "broken-image"
	PassOrphanDetail      = "orphan-detail"
	PassFuelType          = "fuel-type"
	PassHexNormalization  = "hex-normalization"
	PassIntegrity         = "integrity"
	PassBrandLogo         = "brand-logo"
)

// PassNamesは、既定の実行順でパス名を返します。
func PassNames() []string {
	return []string{
		PassMissingLinkedData,
		PassExactDuplicate,
		PassSamePriceDup,
		PassNearDuplicate,
		PassPlaceholderColor,
		PassPriceGrade,
		PassBrokenImage,
		PassOrphanDetail,
		PassFuelType,
		PassHexNormalization,
		PassIntegrity,
		PassBrandLogo,
	}
}

// Passは、カタログのスナップショット全体を対象とする検査・修正パスです。
type Pass interface {
	Name() string
	Run(ctx context.Context, catalog *model.Catalog, mode Mode) (model.Findings, error)
}

// passFuncは、外部依存の無いパスを関数から作るためのアダプターです。
type passFunc struct {
	name string
	run  func(catalog *model.Catalog, mode Mode) model.Findings
}

func (p passFunc) Name() string {
	return p.name
}

func (p passFunc) Run(ctx context.Context, catalog *model.Catalog, mode Mode) (model.Findings, error) {
	if err := ctx.Err(); err != nil {
		return model.Findings{}, err
	}
	return p.run(catalog, mode), nil
}

// Depsは、外部依存を持つパスに渡す依存です。
type Deps struct {
	// Proberがnilの場合、broken-imageパスは画像を確認しません。
	Prober     infra.ImageProber
	ColorNames config.ColorNameMapping
}

// DefaultPassesは、全てのパスを既定の実行順で生成します。
func DefaultPasses(deps Deps) []Pass {
	return []Pass{
		passFunc{PassMissingLinkedData, checkMissingLinkedData},
		passFunc{PassExactDuplicate, checkExactDuplicates},
		passFunc{PassSamePriceDup, checkSamePriceDuplicates},
		passFunc{PassNearDuplicate, checkNearDuplicates},
		NewPlaceholderColorPass(deps.ColorNames),
		passFunc{PassPriceGrade, checkPriceGrade},
		NewBrokenImagePass(deps.Prober),
		passFunc{PassOrphanDetail, checkOrphanDetails},
		passFunc{PassFuelType, checkFuelTypes},
		passFunc{PassHexNormalization, checkHexNormalization},
		passFunc{PassIntegrity, checkIntegrity},
		passFunc{PassBrandLogo, checkBrandLogos},
	}
}

// SelectPassesは、名前で指定されたパスだけを実行順を保って返します。namesが空の場合は全てのパスを返します。
func SelectPasses(passes []Pass, names []string) ([]Pass, error) {
	if len(names) == 0 {
		return passes, nil
	}
	known := map[string]bool{}
	for _, p := range passes {
		known[p.Name()] = true
	}
	for _, n := range names {
		if !known[n] {
			return nil, fmt.Errorf("不明なパスです: %s", n)
		}
	}
	var selected []Pass
	for _, p := range passes {
		if slices.Contains(names, p.Name()) {
			selected = append(selected, p)
		}
	}
	return selected, nil
}

// Engineは、パスを順番に実行して結果を集約します。fixモードでは前のパスの修正結果を後のパスが参照します。
type Engine struct {
	passes []Pass
	logger logger.AppLogger
}

func NewEngine(passes []Pass, log logger.AppLogger) *Engine {
	return &Engine{passes: passes, logger: log}
}

// Runは、全てのパスを実行します。
//
// args:
//
//	ctx: コンテキスト
//	catalog: 対象のスナップショット(checkモードでは変更されない)
//	mode: 実行モード
//
// return:
//
//	model.Findings: 全パスの検出結果と修正結果
//	error: キャンセルされた場合のエラー
func (e *Engine) Run(ctx context.Context, catalog *model.Catalog, mode Mode) (model.Findings, error) {
	var findings model.Findings
	for _, p := range e.passes {
		f, err := p.Run(ctx, catalog, mode)
		if err != nil {
			return findings, fmt.Errorf("パス%sの実行に失敗しました: %w", p.Name(), err)
		}
		e.logger.Debug("パスを実行しました", "pass", p.Name(), "mode", mode.String(), "issues", len(f.Issues), "repairs", len(f.Repairs))
		findings.Merge(f)
	}
	return findings, nil
}

// findingsは、1パス分の結果を組み立てる補助です。
type findings struct {
	pass string
	model.Findings
}

func newFindings(pass string) *findings {
	return &findings{pass: pass}
}

func (f *findings) issue(severity model.Severity, kind, carID, message string, detail any) {
	f.AddIssue(model.Issue{
		Pass:     f.pass,
		Severity: severity,
		Kind:     kind,
		CarID:    carID,
		Message:  message,
		Detail:   detail,
	})
}

func (f *findings) repair(carID, field string, before, after any) {
	f.AddRepair(model.Repair{
		Pass:   f.pass,
		CarID:  carID,
		Field:  field,
		Before: before,
		After:  after,
	})
}
