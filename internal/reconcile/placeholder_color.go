package reconcile

import (
	"context"
	"fmt"
	"regexp"

	"github.com/nrad-K/car-catalog/internal/config"
	"github.com/nrad-K/car-catalog/internal/domain/model"
)

var placeholderColorPattern = regexp.MustCompile(`^color_C?\d+$`)

// placeholderColorPassは、表示名が取れずにIDのままになっている外装色を検出します。
// 修正は手動マッピングに名前がある場合だけ行い、推測はしません。
type placeholderColorPass struct {
	mapping config.ColorNameMapping
}

func NewPlaceholderColorPass(mapping config.ColorNameMapping) Pass {
	if mapping == nil {
		mapping = config.ColorNameMapping{}
	}
	return &placeholderColorPass{mapping: mapping}
}

func (p *placeholderColorPass) Name() string {
	return PassPlaceholderColor
}

func (p *placeholderColorPass) Run(ctx context.Context, catalog *model.Catalog, mode Mode) (model.Findings, error) {
	if err := ctx.Err(); err != nil {
		return model.Findings{}, err
	}
	f := newFindings(PassPlaceholderColor)

	for _, id := range catalog.DetailIDs() {
		detail, ok := catalog.FindDetailByID(id)
		if !ok {
			continue
		}
		for i, c := range detail.ColorImages {
			if !IsPlaceholderColorName(c.Name) {
				continue
			}
			name := p.mapping[id][c.ID]
			message := fmt.Sprintf("外装色%sに表示名がありません", c.ID)
			if name == "" {
				message += "(手動マッピングが必要です)"
			}
			f.issue(model.SeverityHigh, "placeholder-color", id, message, c.ID)

			if mode == ModeFix && name != "" {
				f.repair(id, fmt.Sprintf("colorImages[%s].name", c.ID), c.Name, name)
				detail.ColorImages[i].Name = name
			}
		}
	}
	return f.Findings, nil
}

// IsPlaceholderColorNameは、表示名が空またはカラーIDの形をしているかを返します。
func IsPlaceholderColorName(name string) bool {
	return name == "" || placeholderColorPattern.MatchString(name)
}
