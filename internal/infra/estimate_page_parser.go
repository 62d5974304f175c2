package infra

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/nrad-K/car-catalog/internal/constants"
	"github.com/nrad-K/car-catalog/internal/domain/model"
)

var (
	modelYearPattern    = regexp.MustCompile(`(\d{4})년형`)
	colorCodePattern    = regexp.MustCompile(`^C?(\d+)$`)
	backgroundPattern   = regexp.MustCompile(`background(?:-color)?\s*:\s*([^;"']+)`)
	lineupPhotoPattern  = regexp.MustCompile(`/photo/\d+/(\d+)/`)
	lineInfoPattern     = regexp.MustCompile(`lineInfo\[(\d+)\]`)
	inputColorPattern   = regexp.MustCompile(`(?i)color_?(\w+)`)
	lineBreakPattern    = regexp.MustCompile(`[\t\n\r]+`)
	modelTitleSeparator = regexp.MustCompile(`\s*[:|\-]\s*다나와.*$`)

	// 外装色チップの生HTML表記。goqueryで選択できない崩れたマークアップ用です。
	colorChipPatterns = []*regexp.Regexp{
		regexp.MustCompile(`color='?(C\d+)'?[^>]*style='?background\s*:\s*([^;'>]+);?'?[^>]*>\s*<span[^>]*class='?blind'?[^>]*>([^<]+)</span>`),
		regexp.MustCompile(`color="?(C\d+)"?[^>]*style="?background\s*:\s*([^;">]+);?"?[^>]*>\s*<span[^>]*class="?blind"?[^>]*>([^<]+)</span>`),
	}
)

// EstimatePageContentは、ブラウザから取得した見積もりページの内容です。
type EstimatePageContent struct {
	HTML string
	// ColorHTMLは、傍受した外装色パネルのHTMLです。取得できなかった場合は空です。
	ColorHTML string
	// KnownLineupIDは、既存の画像URLから分かっているラインナップIDです。
	KnownLineupID string
}

// EstimatePageParserは、見積もりページのHTMLを抽出結果に変換します。
type EstimatePageParser interface {
	Parse(carID string, content EstimatePageContent) (model.ScrapeRecord, error)
}

type trimStrategy struct {
	name    string
	extract func(doc HTMLDocument) []model.RawTrim
}

type colorStrategy struct {
	name    string
	extract func(fragment string) []colorChip
}

type optionStrategy struct {
	name    string
	extract func(doc HTMLDocument) []model.RawOption
}

// colorChipは、画像URL組み立て前の外装色です。
type colorChip struct {
	code string
	hex  string
	name string
}

type estimatePageParser struct {
	imageBaseURL     string
	policy           model.PricePolicy
	trimStrategies   []trimStrategy
	colorStrategies  []colorStrategy
	optionStrategies []optionStrategy
}

// NewEstimatePageParserは、既定の抽出戦略を持つパーサーを生成します。
// 各カテゴリの戦略は先頭から試され、最初に空でない結果を返したものが採用されます。
// 新しいページレイアウトには戦略を末尾に追加して対応します。
func NewEstimatePageParser(imageBaseURL string, policy model.PricePolicy) *estimatePageParser {
	p := &estimatePageParser{
		imageBaseURL: strings.TrimRight(imageBaseURL, "/"),
		policy:       policy,
	}
	p.trimStrategies = []trimStrategy{
		{name: "radio-name", extract: p.trimsFromRadios(`input[type="radio"][name^="eChkTrim"]`)},
		{name: "radio-id", extract: p.trimsFromRadios(`input[type="radio"][id^="trim_"]`)},
	}
	p.colorStrategies = []colorStrategy{
		{name: "color-chip", extract: colorsFromChips},
		{name: "color-regex", extract: colorsFromRawMarkup},
		{name: "label-title", extract: colorsFromLabels},
	}
	p.optionStrategies = []optionStrategy{
		{name: "popup-item", extract: p.optionsFromCheckboxes(`input[type="checkbox"][name="option"][id^="popupItem_"]`)},
		{name: "popup-item-id", extract: p.optionsFromCheckboxes(`input[type="checkbox"][id^="popupItem_"]`)},
	}
	return p
}

// Parseは、ページ内容から1車種分の抽出結果を組み立てます。
// 各カテゴリは独立して抽出され、見つからない場合は空のリストになります。
//
// args:
//
//	carID: 車種ID
//	content: ページHTMLと傍受した外装色HTML
//
// return:
//
//	model.ScrapeRecord: 抽出結果
//	error: HTMLを解析できなかった場合のエラー
func (p *estimatePageParser) Parse(carID string, content EstimatePageContent) (model.ScrapeRecord, error) {
	record := model.ScrapeRecord{
		CarID:      carID,
		Trims:      []model.RawTrim{},
		Colors:     []model.RawColor{},
		Options:    []model.RawOption{},
		Strategies: map[string]string{},
	}

	doc, err := NewHTMLDocument(content.HTML)
	if err != nil {
		return record, fmt.Errorf("見積もりページのHTML解析に失敗しました: %w", err)
	}

	record.ModelName = ParseModelName(doc)

	if trims, name := p.ParseTrims(doc); len(trims) > 0 {
		record.Trims = trims
		record.Strategies[model.CategoryTrims] = name
	}
	record.Sections = ParseTrimSections(doc, p.policy)

	lineupID := content.KnownLineupID
	if lineupID == "" {
		lineupID = DetectLineupID(content.HTML)
	}
	record.LineupID = lineupID

	fragment := content.ColorHTML
	if strings.TrimSpace(fragment) == "" {
		fragment = content.HTML
	}
	if colors, name := p.ParseColors(fragment, carID, lineupID); len(colors) > 0 {
		record.Colors = colors
		record.Strategies[model.CategoryColors] = name
	}

	if options, name := p.ParseOptions(doc); len(options) > 0 {
		record.Options = options
		record.Strategies[model.CategoryOptions] = name
	}

	switch {
	case len(record.Colors) > 0:
		record.ImageURL = record.Colors[0].ImageURL
	case lineupID != "":
		record.ImageURL = p.LineupImageURL(carID, lineupID)
	}

	return record, nil
}

// ParseTrimsは、トリム戦略を順に試し、最初に得られたトリム一覧と戦略名を返します。
func (p *estimatePageParser) ParseTrims(doc HTMLDocument) ([]model.RawTrim, string) {
	for _, s := range p.trimStrategies {
		if trims := s.extract(doc); len(trims) > 0 {
			return trims, s.name
		}
	}
	return nil, ""
}

func (p *estimatePageParser) trimsFromRadios(selector string) func(doc HTMLDocument) []model.RawTrim {
	return func(doc HTMLDocument) []model.RawTrim {
		var trims []model.RawTrim
		seen := map[string]bool{}
		doc.Find(selector).Each(func(_ int, input *goquery.Selection) {
			container := trimContainer(input)
			trim, ok := ParseTrimText(container.Text(), p.policy)
			if !ok {
				return
			}
			key := trim.Name + "\x00" + strconv.FormatInt(trim.Price, 10)
			if seen[key] {
				return
			}
			seen[key] = true
			trims = append(trims, trim)
		})
		return trims
	}
}

func trimContainer(input *goquery.Selection) *goquery.Selection {
	if c := input.Closest("div.choice"); c.Length() > 0 {
		return c
	}
	if c := input.Closest("li"); c.Length() > 0 {
		return c
	}
	return input.Parent()
}

// ParseTrimSectionsは、年式・燃料別のトリムセクションを抽出します。
// 一般販売向けでないセクションを除外し、最新年式のセクションだけを返します。
func ParseTrimSections(doc HTMLDocument, policy model.PricePolicy) []model.TrimSection {
	var sections []model.TrimSection
	doc.Find(".eChkTrimList.article-box").Each(func(_ int, box *goquery.Selection) {
		title := CollapseWhitespace(box.Find(".article-box__header h4.title").First().Text())
		m := modelYearPattern.FindStringSubmatch(title)
		if m == nil || shouldSkipSection(title) {
			return
		}
		year, _ := strconv.Atoi(m[1])

		var trims []model.RawTrim
		box.Find(`input[type="radio"][name^="eChkTrim"]`).Each(func(_ int, input *goquery.Selection) {
			choice := input.Closest(".choice")
			if choice.Length() == 0 {
				return
			}
			name := CollapseWhitespace(choice.Find(".choice__info .txt").First().Text())
			candidates := PriceCandidates(choice.Find(".choice__price").First().Text())
			price := CanonicalPrice(candidates, policy)
			if name == "" || price <= 0 {
				return
			}
			trims = append(trims, model.RawTrim{Name: name, Price: price, PriceCandidates: candidates})
		})
		if len(trims) == 0 {
			return
		}
		sections = append(sections, model.TrimSection{
			Title:    title,
			Year:     year,
			FuelType: ParseFuelType(strings.Replace(title, m[0], "", 1)),
			Trims:    trims,
		})
	})

	latest := 0
	for _, s := range sections {
		latest = max(latest, s.Year)
	}
	filtered := sections[:0]
	for _, s := range sections {
		if s.Year == latest {
			filtered = append(filtered, s)
		}
	}
	return filtered
}

func shouldSkipSection(title string) bool {
	for _, kw := range constants.SectionSkipKeywords() {
		if strings.Contains(title, kw) {
			return true
		}
	}
	return false
}

// ParseColorsは、外装色の断片から色一覧を抽出します。内装色セクション以降は切り捨てます。
// 表示名が重複する場合は最初のものを残します。
func (p *estimatePageParser) ParseColors(fragment, carID, lineupID string) ([]model.RawColor, string) {
	if i := strings.Index(fragment, constants.InteriorColorMarker); i >= 0 {
		fragment = fragment[:i]
	}

	for _, s := range p.colorStrategies {
		chips := s.extract(fragment)
		if len(chips) == 0 {
			continue
		}

		colors := make([]model.RawColor, 0, len(chips))
		seen := map[string]bool{}
		for _, chip := range chips {
			name := CollapseWhitespace(chip.name)
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true

			hex, ok := NormalizeHex(chip.hex)
			if !ok {
				hex = constants.DefaultColorHex
			}
			colors = append(colors, model.RawColor{
				Code:     chip.code,
				Name:     name,
				Hex:      hex,
				ImageURL: p.ColorImageURL(carID, lineupID, chip.code),
				Paid:     isPaidColorName(name),
			})
		}
		if len(colors) > 0 {
			return colors, s.name
		}
	}
	return nil, ""
}

func colorsFromChips(fragment string) []colorChip {
	doc, err := NewHTMLDocument(fragment)
	if err != nil {
		return nil
	}
	var chips []colorChip
	doc.Find("[color]").Each(func(_ int, s *goquery.Selection) {
		code, _ := s.Attr("color")
		if !colorCodePattern.MatchString(code) {
			return
		}
		style, _ := s.Attr("style")
		name := s.Find(".blind").First().Text()
		if strings.TrimSpace(name) == "" {
			name, _ = s.Attr("title")
		}
		chips = append(chips, colorChip{code: code, hex: backgroundValue(style), name: name})
	})
	return chips
}

func colorsFromRawMarkup(fragment string) []colorChip {
	for _, pattern := range colorChipPatterns {
		var chips []colorChip
		for _, m := range pattern.FindAllStringSubmatch(fragment, -1) {
			chips = append(chips, colorChip{code: m[1], hex: strings.TrimSpace(m[2]), name: m[3]})
		}
		if len(chips) > 0 {
			return chips
		}
	}
	return nil
}

func colorsFromLabels(fragment string) []colorChip {
	doc, err := NewHTMLDocument(fragment)
	if err != nil {
		return nil
	}
	var chips []colorChip
	doc.Find("label[title], label[data-name]").Each(func(_ int, label *goquery.Selection) {
		name := label.AttrOr("title", "")
		if name == "" {
			name = label.AttrOr("data-name", "")
		}
		style := label.Find("span[style], i[style]").First().AttrOr("style", "")

		code := ""
		input := label.Find("input").First()
		if input.Length() == 0 {
			input = label.Prev().Filter("input")
		}
		if m := inputColorPattern.FindStringSubmatch(input.AttrOr("value", "")); m != nil {
			code = m[1]
		}
		chips = append(chips, colorChip{code: code, hex: backgroundValue(style), name: name})
	})
	return chips
}

func backgroundValue(style string) string {
	if m := backgroundPattern.FindStringSubmatch(style); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

func isPaidColorName(name string) bool {
	for _, kw := range constants.PaidColorKeywords() {
		if strings.Contains(name, kw) {
			return true
		}
	}
	return false
}

// ColorImageURLは、カラーコードから画像URLを組み立てます。ラインナップIDが不明な場合はそのセグメントを省略します。
func (p *estimatePageParser) ColorImageURL(carID, lineupID, code string) string {
	num := code
	if m := colorCodePattern.FindStringSubmatch(code); m != nil {
		num = m[1]
	}
	if num == "" {
		return ""
	}
	if lineupID != "" {
		return fmt.Sprintf("%s/%s/%s/color_%s_360.png", p.imageBaseURL, carID, lineupID, num)
	}
	return fmt.Sprintf("%s/%s/color_%s_360.png", p.imageBaseURL, carID, num)
}

// LineupImageURLは、ラインナップ単位の代表画像URLを返します。
func (p *estimatePageParser) LineupImageURL(carID, lineupID string) string {
	return fmt.Sprintf("%s/%s/%s/%s", p.imageBaseURL, carID, lineupID, constants.LineupImageFile)
}

// DetectLineupIDは、ページ内の画像URLまたはlineInfo参照からラインナップIDを探します。
func DetectLineupID(html string) string {
	if m := lineupPhotoPattern.FindStringSubmatch(html); m != nil {
		return m[1]
	}
	if m := lineInfoPattern.FindStringSubmatch(html); m != nil {
		return m[1]
	}
	return ""
}

// ParseOptionsは、オプション戦略を順に試し、最初に得られた選択オプション一覧と戦略名を返します。
func (p *estimatePageParser) ParseOptions(doc HTMLDocument) ([]model.RawOption, string) {
	for _, s := range p.optionStrategies {
		if options := s.extract(doc); len(options) > 0 {
			return options, s.name
		}
	}
	return nil, ""
}

// optionsFromCheckboxesは、車両オプションの名前空間(popupItem_)を持つチェックボックスだけを対象にします。
// 同じ種類のコントロールで描画される金融・期間の選択肢は含みません。
func (p *estimatePageParser) optionsFromCheckboxes(selector string) func(doc HTMLDocument) []model.RawOption {
	return func(doc HTMLDocument) []model.RawOption {
		var options []model.RawOption
		seen := map[string]bool{}
		doc.Find(selector).Each(func(_ int, input *goquery.Selection) {
			id := input.AttrOr("id", "")
			if seen[id] {
				return
			}
			seen[id] = true

			container := optionContainer(input)
			text := container.Text()
			name := optionName(text)
			if name == "" {
				return
			}

			var price int64
			if mention := priceMentionPattern.FindString(normalizeWidth(text)); mention != "" {
				price = ParsePrice(mention)
			}
			description := CollapseWhitespace(container.Find(".desc, .detail-txt, .option-desc").First().Text())

			options = append(options, model.RawOption{Name: name, Price: price, Description: description})
		})
		return options
	}
}

func optionContainer(input *goquery.Selection) *goquery.Selection {
	if c := input.Closest("li"); c.Length() > 0 {
		return c
	}
	if c := input.Closest("div"); c.Length() > 0 {
		return c
	}
	return input.Parent()
}

// optionNameは、コンテナテキストの最初の空でない行から価格表記を除いたものを名前とします。
func optionName(text string) string {
	for _, line := range lineBreakPattern.Split(text, -1) {
		line = CollapseWhitespace(line)
		if line == "" {
			continue
		}
		if loc := priceMentionPattern.FindStringIndex(line); loc != nil {
			line = strings.TrimSpace(line[:loc[0]])
		}
		if line != "" {
			return line
		}
	}
	return ""
}

// ParseModelNameは、OGタイトルまたはtitle要素から車種名を取り出します。
func ParseModelName(doc HTMLDocument) string {
	candidates := append(doc.ExtractAttribute(`meta[property="og:title"]`, "content"), doc.ExtractText("title")...)
	for _, c := range candidates {
		name := strings.TrimSpace(modelTitleSeparator.ReplaceAllString(CollapseWhitespace(c), ""))
		if name != "" {
			return name
		}
	}
	return ""
}
