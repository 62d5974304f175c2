package usecase

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/nrad-K/car-catalog/internal/config"
	"github.com/nrad-K/car-catalog/internal/domain/model"
	"github.com/nrad-K/car-catalog/internal/infra"
	"github.com/nrad-K/car-catalog/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pageClientは、URLごとに用意したHTMLを返すブラウザクライアントです。
type pageClient struct {
	mu       sync.Mutex
	pages    map[string]string
	failures map[string]int
	visited  []string
}

func (c *pageClient) OpenSession(ctx context.Context) (infra.BrowserSession, error) {
	return &pageSession{client: c}, nil
}

func (c *pageClient) Close() error {
	return nil
}

type pageSession struct {
	fakeSession
	client *pageClient
	url    string
}

func (s *pageSession) Navigate(ctx context.Context, url string) error {
	s.client.mu.Lock()
	defer s.client.mu.Unlock()
	s.client.visited = append(s.client.visited, url)
	if s.client.failures[url] > 0 {
		s.client.failures[url]--
		return errors.New("net::ERR_CONNECTION_RESET")
	}
	if _, ok := s.client.pages[url]; !ok {
		return errors.New("404")
	}
	s.url = url
	return nil
}

func (s *pageSession) HTML() (string, error) {
	s.client.mu.Lock()
	defer s.client.mu.Unlock()
	return s.client.pages[s.url], nil
}

func newTestDiscoveryConfig(t *testing.T) *config.ScraperConfig {
	t.Helper()
	return &config.ScraperConfig{
		ReportDir: t.TempDir(),
		Discovery: config.DiscoveryConfig{
			BrandPageURLTemplate: "https://auto.danawa.com/newcar/?Work=record&Tab=Model&Brand=%s",
			ModelLinkSelector:    `a[href*="Model="]`,
			MaxNameLength:        50,
			RetryCount:           1,
		},
	}
}

const (
	hyundaiPage = "https://auto.danawa.com/newcar/?Work=record&Tab=Model&Brand=303"
	kiaPage     = "https://auto.danawa.com/newcar/?Work=record&Tab=Model&Brand=307"
)

func TestDiscover_WritesWorklistForNewModels(t *testing.T) {
	cfg := newTestDiscoveryConfig(t)
	client := &pageClient{
		pages: map[string]string{
			hyundaiPage: `<a href="/newcar/?Work=record&Model=1">쏘나타</a><a href="/newcar/?Work=record&Model=10">그랜저</a>`,
			kiaPage:     `<a href="/newcar/?Work=record&Model=3">K5</a><a href="/newcar/?Work=record&Model=11">EV3</a>`,
		},
		failures: map[string]int{kiaPage: 1},
	}
	store := infra.NewMemoryDiscoveredModelStore()
	repo := newFakeCatalogRepo(testCatalog())

	uc := NewBrandDiscoverUseCase(DiscoverArgs{
		Cfg:        cfg,
		Client:     client,
		Repo:       repo,
		Discovered: store,
		Logger:     logger.NewNop(),
		Now:        fixedNow,
	})

	report, err := uc.Run(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, []model.BrandDiscovery{
		{BrandID: "hyundai", Found: 2, New: 1},
		{BrandID: "kia", Found: 2, New: 1},
	}, report.Brands)
	require.Len(t, report.New, 2)
	assert.Equal(t, "10", report.New[0].CarID)
	assert.Equal(t, "그랜저", report.New[0].Name)
	assert.Equal(t, "https://auto.danawa.com/newcar/?Work=record&Model=10", report.New[0].URL)

	// kiaは1回失敗してから成功する
	assert.Equal(t, []string{hyundaiPage, kiaPage, kiaPage}, client.visited)

	data, err := os.ReadFile(report.WorklistFile)
	require.NoError(t, err)
	entries, err := ParseWorklist(strings.NewReader(string(data)))
	require.NoError(t, err)
	assert.Equal(t, []WorklistEntry{{CarID: "10", BrandID: "hyundai"}, {CarID: "11", BrandID: "kia"}}, entries)

	known, err := store.FindListByStatus(context.Background(), 100, model.DiscoveryKnown)
	require.NoError(t, err)
	require.Len(t, known, 2)
	assert.Equal(t, "1", known[0].CarID)
	assert.Equal(t, "3", known[1].CarID)

	// 探索はカタログを変更しない
	assert.Equal(t, 0, repo.persisted)
}

func TestDiscover_BrandFailures(t *testing.T) {
	cfg := newTestDiscoveryConfig(t)
	cfg.Discovery.BrandCodes = map[string]string{"hyundai": "999"}
	client := &pageClient{pages: map[string]string{
		kiaPage: `<a href="/newcar/?Work=record&Model=3">K5</a>`,
	}}

	uc := NewBrandDiscoverUseCase(DiscoverArgs{
		Cfg:    cfg,
		Client: client,
		Repo:   newFakeCatalogRepo(testCatalog()),
		Logger: logger.NewNop(),
		Now:    fixedNow,
	})

	// 設定で上書きしたコードのページが無いhyundaiは失敗し、コードの無いブランドはスキップする
	report, err := uc.Run(context.Background(), []string{"hyundai", "unknown", "kia"})
	require.NoError(t, err)
	require.Len(t, report.Brands, 2)
	assert.Equal(t, "hyundai", report.Brands[0].BrandID)
	assert.NotEmpty(t, report.Brands[0].Error)
	assert.Equal(t, model.BrandDiscovery{BrandID: "kia", Found: 1}, report.Brands[1])
	assert.Empty(t, report.New)
	assert.Empty(t, report.WorklistFile)

	_, err = uc.Run(context.Background(), []string{"hyundai"})
	assert.ErrorContains(t, err, "すべてのブランド")
}
