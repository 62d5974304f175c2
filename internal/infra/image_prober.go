package infra

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nrad-K/car-catalog/internal/config"
	"golang.org/x/time/rate"
)

// ImageProberは、画像URLが実際に取得できるかを確認するインターフェースです。
type ImageProber interface {
	Probe(ctx context.Context, url string) (bool, error)
}

type imageProber struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
}

// NewImageProberは、設定されたレートでリクエストを送る画像プローバーを生成します。
func NewImageProber(cfg config.ImageProbeConfig) *imageProber {
	return &imageProber{
		client:    &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		limiter:   rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		userAgent: cfg.UserAgent,
	}
}

// Probeは、HEADリクエストで画像の存在を確認します。HEADを受け付けないサーバーにはGETで再確認します。
//
// args:
//
//	ctx: コンテキスト
//	url: 確認する画像URL
//
// return:
//
//	bool: 2xxが返った場合はtrue
//	error: 通信自体に失敗した場合のエラー
func (p *imageProber) Probe(ctx context.Context, url string) (bool, error) {
	status, err := p.do(ctx, http.MethodHead, url)
	if err != nil {
		return false, err
	}
	if status == http.StatusMethodNotAllowed || status == http.StatusNotImplemented {
		status, err = p.do(ctx, http.MethodGet, url)
		if err != nil {
			return false, err
		}
	}
	return status >= 200 && status < 300, nil
}

func (p *imageProber) do(ctx context.Context, method, url string) (int, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return 0, fmt.Errorf("リクエストの作成に失敗しました(%s): %w", url, err)
	}
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("画像URLの確認に失敗しました(%s): %w", url, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	return resp.StatusCode, nil
}
