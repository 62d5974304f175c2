package infra

import (
	"fmt"
	"net/url"
	"regexp"

	"github.com/PuerkitoBio/goquery"
)

var modelParamPattern = regexp.MustCompile(`[?&]Model=(\d+)`)

// ModelLinkは、ブランドページの車種リンクです。
type ModelLink struct {
	CarID string
	Name  string
	URL   string
}

// ParseModelLinksは、ブランドページからModel=パラメータを持つリンクを車種ID単位で抽出します。
// リンク文言が1文字以下またはmaxNameLen文字以上のものは、画像やバナーのリンクとして除外します。
//
// args:
//
//	doc: ブランドページ
//	selector: 車種リンクのセレクター
//	pageURL: 相対リンクを解決するためのページURL
//	maxNameLen: リンク文言の上限
//
// return:
//
//	[]ModelLink: 出現順の車種リンク
func ParseModelLinks(doc HTMLDocument, selector, pageURL string, maxNameLen int) []ModelLink {
	var links []ModelLink
	seen := map[string]bool{}
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		m := modelParamPattern.FindStringSubmatch(href)
		if m == nil || seen[m[1]] {
			return
		}
		name := CollapseWhitespace(s.Text())
		if n := len([]rune(name)); n <= 1 || n >= maxNameLen {
			return
		}
		resolved, err := ResolveURL(pageURL, href)
		if err != nil {
			return
		}
		seen[m[1]] = true
		links = append(links, ModelLink{CarID: m[1], Name: name, URL: resolved})
	})
	return links
}

// ResolveURLは、targetURLが相対URLの場合にbaseURLを基準に解決した絶対URLを返します。
func ResolveURL(baseURL, targetURL string) (string, error) {
	parsed, err := url.Parse(targetURL)
	if err != nil {
		return "", fmt.Errorf("URL %s のパースに失敗しました: %w", targetURL, err)
	}
	if parsed.IsAbs() {
		return parsed.String(), nil
	}

	parsedBase, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("ベースURL %s のパースに失敗しました: %w", baseURL, err)
	}
	return parsedBase.ResolveReference(parsed).String(), nil
}
