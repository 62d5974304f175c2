package infra

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// HTMLDocumentは、一度だけ解析したHTMLに対してセレクターで値を取り出すためのインターフェースです。
type HTMLDocument interface {
	Find(selector string) *goquery.Selection
	ExtractText(selector string) []string
	ExtractAttribute(selector, attr string) []string
}

type htmlDocument struct {
	doc *goquery.Document
}

func NewHTMLDocument(html string) (HTMLDocument, error) {
	document, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	return &htmlDocument{doc: document}, nil
}

func (h *htmlDocument) Find(selector string) *goquery.Selection {
	return h.doc.Find(selector)
}

// ExtractText はセレクタにマッチする要素のテキストを、空白をまとめて抽出します。空の要素は含みません。
//
// 使用例:
//
//   - リスト項目の抽出: ExtractText("li")
//     入力: <ul><li>항목1</li><li> 항목 2 </li></ul>
//     出力: ["항목1", "항목 2"]
func (h *htmlDocument) ExtractText(selector string) []string {
	var texts []string
	h.doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		if text := CollapseWhitespace(s.Text()); text != "" {
			texts = append(texts, text)
		}
	})
	return texts
}

// ExtractAttribute はセレクタにマッチする要素の属性値を抽出します。
//
// 使用例:
//
//   - OGタイトルの抽出: ExtractAttribute(`meta[property="og:title"]`, "content")
//     入力: <meta property="og:title" content="쏘렌토">
//     出力: ["쏘렌토"]
func (h *htmlDocument) ExtractAttribute(selector, attr string) []string {
	var attributes []string
	h.doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		if value, exists := s.Attr(attr); exists {
			attributes = append(attributes, value)
		}
	})
	return attributes
}
