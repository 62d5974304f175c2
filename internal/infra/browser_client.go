package infra

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nrad-K/car-catalog/internal/config"
	"github.com/playwright-community/playwright-go"
)

// ErrNavigationTimeoutは、ページ遷移がタイムアウトしたことを示します。
var ErrNavigationTimeout = errors.New("navigation timeout")

// BrowserClientは、車種ごとに独立したブラウザセッションを払い出すインターフェースです。
type BrowserClient interface {
	OpenSession(ctx context.Context) (BrowserSession, error)
	Close() error
}

// BrowserSessionは、1車種の見積もりページを操作するためのインターフェースです。
// セッション間でCookieやストレージは共有されません。
type BrowserSession interface {
	Navigate(ctx context.Context, url string) error
	ClickFirst(ctx context.Context, selectors []string) (string, error)
	Settle(ctx context.Context, d time.Duration) error
	HTML() (string, error)
	InnerHTML(selector string) (string, error)
	InterceptedBodies() []string
	Close() error
}

type browserClient struct {
	pw      *playwright.Playwright
	cfg     *config.ScraperConfig
	browser playwright.Browser
}

// NewBrowserClientは、Playwrightを起動し、Chromiumを1つ立ち上げます。
//
// args:
//
//	cfg: スクレイパー設定
//
// return:
//
//	*browserClient: 生成されたクライアント
//	error: 失敗時のエラー
func NewBrowserClient(cfg *config.ScraperConfig) (*browserClient, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("playwrightの起動に失敗しました: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.EnableHeadless),
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("ブラウザの起動に失敗しました: %w", err)
	}

	return &browserClient{
		pw:      pw,
		cfg:     cfg,
		browser: browser,
	}, nil
}

// OpenSessionは、新しいブラウザコンテキストとページを作成します。
// 外装色パネルを返すレスポンスは、設定されたURLマーカーで傍受しておきます。
//
// args:
//
//	ctx: コンテキスト
//
// return:
//
//	BrowserSession: 生成されたセッション
//	error: 失敗時のエラー
func (b *browserClient) OpenSession(ctx context.Context) (BrowserSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bctx, err := b.browser.NewContext(playwright.BrowserNewContextOptions{
		ExtraHttpHeaders: b.cfg.Headers,
		UserAgent:        playwright.String(b.cfg.UserAgent),
	})
	if err != nil {
		return nil, fmt.Errorf("ブラウザコンテキストの作成に失敗しました: %w", err)
	}

	if b.cfg.BlockResources {
		if err := setupResourceBlocking(bctx); err != nil {
			bctx.Close()
			return nil, fmt.Errorf("リソースブロックの設定に失敗しました: %w", err)
		}
	}

	page, err := bctx.NewPage()
	if err != nil {
		bctx.Close()
		return nil, fmt.Errorf("ページの作成に失敗しました: %w", err)
	}

	s := &browserSession{
		cfg:     b.cfg,
		context: bctx,
		page:    page,
		markers: b.cfg.Selector.ColorResponseMarkers,
	}
	page.OnResponse(s.captureResponse)
	return s, nil
}

func setupResourceBlocking(bctx playwright.BrowserContext) error {
	return bctx.Route("**/*.{png,jpg,jpeg,gif,svg,woff,woff2,ttf,eot,otf}", func(route playwright.Route) {
		route.Abort()
	})
}

// Closeは、ブラウザとPlaywrightインスタンスを閉じます。
func (b *browserClient) Close() error {
	if err := b.browser.Close(); err != nil {
		return fmt.Errorf("ブラウザを閉じれませんでした: %w", err)
	}
	if err := b.pw.Stop(); err != nil {
		return fmt.Errorf("playwrightの停止に失敗しました: %w", err)
	}
	return nil
}

type browserSession struct {
	cfg     *config.ScraperConfig
	context playwright.BrowserContext
	page    playwright.Page
	markers []string

	mu        sync.Mutex
	responses []playwright.Response
}

// captureResponseはイベントハンドラー内で呼ばれるため、本文の取得は行わずレスポンスだけを保持します。
func (s *browserSession) captureResponse(response playwright.Response) {
	url := response.URL()
	for _, marker := range s.markers {
		if strings.Contains(url, marker) {
			s.mu.Lock()
			s.responses = append(s.responses, response)
			s.mu.Unlock()
			return
		}
	}
}

// Navigateは、ネットワークが落ち着くまで待って指定URLに遷移します。
// タイムアウトした場合はErrNavigationTimeoutでラップしたエラーを返します。
//
// args:
//
//	ctx: コンテキスト
//	url: 遷移先のURL
//
// return:
//
//	error: 失敗時のエラー
func (s *browserSession) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := s.page.Goto(url, playwright.PageGotoOptions{
		Timeout:   playwright.Float(float64(s.cfg.NavigationTimeoutSeconds * 1000)),
		WaitUntil: playwright.WaitUntilStateNetworkidle,
	})
	if errors.Is(err, playwright.ErrTimeout) {
		return fmt.Errorf("%w: %s: %v", ErrNavigationTimeout, url, err)
	}
	if err != nil {
		return fmt.Errorf("ナビゲーションに失敗しました(%s): %w", url, err)
	}

	if s.cfg.PostNavigationDelayMillis > 0 {
		return s.Settle(ctx, time.Duration(s.cfg.PostNavigationDelayMillis)*time.Millisecond)
	}
	return nil
}

// ClickFirstは、セレクターを先頭から試し、最初に存在した要素をクリックします。
//
// args:
//
//	ctx: コンテキスト
//	selectors: 候補のCSSセレクター
//
// return:
//
//	string: クリックしたセレクター
//	error: どの要素もクリックできなかった場合のエラー
func (s *browserSession) ClickFirst(ctx context.Context, selectors []string) (string, error) {
	var lastErr error
	for _, selector := range selectors {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		locator := s.page.Locator(selector).First()
		count, err := locator.Count()
		if err != nil {
			lastErr = fmt.Errorf("セレクター %s の要素数カウントに失敗しました: %w", selector, err)
			continue
		}
		if count == 0 {
			continue
		}

		if err := locator.Click(playwright.LocatorClickOptions{
			Timeout: playwright.Float(float64(s.cfg.ClickTimeoutMillis)),
			Force:   playwright.Bool(true),
		}); err != nil {
			lastErr = fmt.Errorf("%sのクリックに失敗しました: %w", selector, err)
			continue
		}
		return selector, nil
	}

	if lastErr != nil {
		return "", lastErr
	}
	return "", fmt.Errorf("クリックできる要素が見つかりませんでした: %v", selectors)
}

// Settleは、動的コンテンツの描画を待つために指定時間待機します。
func (s *browserSession) Settle(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// HTMLは、現在のページのHTMLを取得します。
func (s *browserSession) HTML() (string, error) {
	html, err := s.page.Content()
	if err != nil {
		return "", fmt.Errorf("ページコンテンツの取得に失敗しました: %w", err)
	}
	return html, nil
}

// InnerHTMLは、セレクターに一致する最初の要素の内側のHTMLを返します。要素が無い場合は空文字です。
func (s *browserSession) InnerHTML(selector string) (string, error) {
	locator := s.page.Locator(selector).First()
	count, err := locator.Count()
	if err != nil {
		return "", fmt.Errorf("セレクター %s の要素数カウントに失敗しました: %w", selector, err)
	}
	if count == 0 {
		return "", nil
	}
	html, err := locator.InnerHTML()
	if err != nil {
		return "", fmt.Errorf("%sのHTML取得に失敗しました: %w", selector, err)
	}
	return html, nil
}

// InterceptedBodiesは、傍受したレスポンスの本文を受信順に返します。本文を読めなかったものは含みません。
func (s *browserSession) InterceptedBodies() []string {
	s.mu.Lock()
	responses := append([]playwright.Response(nil), s.responses...)
	s.mu.Unlock()

	bodies := make([]string, 0, len(responses))
	for _, r := range responses {
		if r.Status() != 200 {
			continue
		}
		body, err := r.Text()
		if err != nil || strings.TrimSpace(body) == "" {
			continue
		}
		bodies = append(bodies, body)
	}
	return bodies
}

// Closeは、セッションのページとコンテキストを閉じます。
func (s *browserSession) Close() error {
	if err := s.context.Close(); err != nil {
		return fmt.Errorf("ブラウザコンテキストのクローズに失敗しました: %w", err)
	}
	return nil
}
