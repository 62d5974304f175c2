package reconcile

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/nrad-K/car-catalog/internal/constants"
	"github.com/nrad-K/car-catalog/internal/domain/model"
	"github.com/nrad-K/car-catalog/internal/infra"
)

// colorImageDirPatternは、色画像URLのうち"/photo/{車種ID}/{ラインナップID}/"までを取り出します。
var colorImageDirPattern = regexp.MustCompile(`^(.*/photo/\d+/\d+/)color_[^/]+$`)

// brokenImagePassは、各車種の先頭の色画像が取得できるかを確認します。
// 取得できずラインナップIDが分かる場合は、車種の全ての画像をラインナップ画像に置き換えます。
type brokenImagePass struct {
	prober infra.ImageProber
}

func NewBrokenImagePass(prober infra.ImageProber) Pass {
	return &brokenImagePass{prober: prober}
}

func (p *brokenImagePass) Name() string {
	return PassBrokenImage
}

func (p *brokenImagePass) Run(ctx context.Context, catalog *model.Catalog, mode Mode) (model.Findings, error) {
	f := newFindings(PassBrokenImage)
	if p.prober == nil {
		return f.Findings, ctx.Err()
	}

	for _, id := range catalog.DetailIDs() {
		detail, ok := catalog.FindDetailByID(id)
		if !ok || len(detail.ColorImages) == 0 {
			continue
		}
		url := detail.ColorImages[0].ImageURL
		if !strings.Contains(url, "/color_") {
			continue
		}

		alive, err := p.prober.Probe(ctx, url)
		if ctx.Err() != nil {
			return f.Findings, ctx.Err()
		}
		if err != nil {
			f.issue(model.SeverityInfo, "probe-failed", id, fmt.Sprintf("画像を確認できませんでした: %v", err), url)
			continue
		}
		if alive {
			continue
		}

		f.issue(model.SeverityMedium, "broken-image", id, "色画像を取得できません", url)
		if mode != ModeFix {
			continue
		}
		lineupURL, ok := LineupFallbackURL(url)
		if !ok {
			continue
		}

		for i := range detail.ColorImages {
			detail.ColorImages[i].ImageURL = lineupURL
		}
		f.repair(id, "colorImages.imageUrl", url, lineupURL)
		if detail.ImageURL != lineupURL {
			f.repair(id, "detail.imageUrl", detail.ImageURL, lineupURL)
			detail.ImageURL = lineupURL
		}
		if car, ok := catalog.FindCarByID(id); ok && car.ImageURL != lineupURL {
			f.repair(id, "imageUrl", car.ImageURL, lineupURL)
			car.ImageURL = lineupURL
		}
	}
	return f.Findings, nil
}

// LineupFallbackURLは、色画像URLと同じラインナップのラインナップ画像URLを返します。
// URLにラインナップIDが含まれない場合はfalseです。
func LineupFallbackURL(colorURL string) (string, bool) {
	m := colorImageDirPattern.FindStringSubmatch(colorURL)
	if m == nil {
		return "", false
	}
	return m[1] + constants.LineupImageFile, true
}
