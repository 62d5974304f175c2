package usecase

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nrad-K/car-catalog/internal/domain/model"
	"github.com/nrad-K/car-catalog/internal/domain/repository"
	"github.com/nrad-K/car-catalog/internal/infra"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeCatalogRepoは、メモリ上のカタログを読み書きするリポジトリです。
type fakeCatalogRepo struct {
	mu        sync.Mutex
	stored    *model.Catalog
	loadErr   error
	persisted int
	locked    bool
}

var _ repository.CatalogRepository = (*fakeCatalogRepo)(nil)

func newFakeCatalogRepo(c *model.Catalog) *fakeCatalogRepo {
	return &fakeCatalogRepo{stored: c.Clone()}
}

func (r *fakeCatalogRepo) Load(ctx context.Context) (*model.Catalog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	return r.stored.Clone(), nil
}

func (r *fakeCatalogRepo) Persist(ctx context.Context, c *model.Catalog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	r.stored = c.Clone()
	r.persisted++
	return nil
}

func (r *fakeCatalogRepo) Lock() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.locked {
		return model.ErrCatalogLocked
	}
	r.locked = true
	return nil
}

func (r *fakeCatalogRepo) Unlock() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locked = false
	return nil
}

func (r *fakeCatalogRepo) snapshot() *model.Catalog {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stored.Clone()
}

type fakeExtraction struct {
	record model.ScrapeRecord
	err    error
}

// fakeExtractorは、車種IDごとに決めた結果を返し、同時実行数を記録します。
type fakeExtractor struct {
	results map[string]fakeExtraction
	delay   time.Duration

	running       atomic.Int32
	maxConcurrent atomic.Int32
	calls         atomic.Int32
}

var _ VehicleExtractor = (*fakeExtractor)(nil)

func (f *fakeExtractor) Extract(ctx context.Context, carID, knownLineupID string) (model.ScrapeRecord, error) {
	f.calls.Add(1)
	n := f.running.Add(1)
	defer f.running.Add(-1)
	for {
		cur := f.maxConcurrent.Load()
		if n <= cur || f.maxConcurrent.CompareAndSwap(cur, n) {
			break
		}
	}

	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return model.ScrapeRecord{}, ctx.Err()
		case <-time.After(f.delay):
		}
	}

	res, ok := f.results[carID]
	if !ok {
		return model.ScrapeRecord{CarID: carID}, nil
	}
	return res.record, res.err
}

// fakeSessionは、あらかじめ用意したHTMLを返すブラウザセッションです。
type fakeSession struct {
	navigateErr error
	clickErr    error
	html        string
	bodies      []string
	panelHTML   string

	navigated []string
	settled   time.Duration
	closed    bool
}

var _ infra.BrowserSession = (*fakeSession)(nil)

func (s *fakeSession) Navigate(ctx context.Context, url string) error {
	s.navigated = append(s.navigated, url)
	return s.navigateErr
}

func (s *fakeSession) ClickFirst(ctx context.Context, selectors []string) (string, error) {
	if s.clickErr != nil {
		return "", s.clickErr
	}
	return selectors[0], nil
}

func (s *fakeSession) Settle(ctx context.Context, d time.Duration) error {
	s.settled = d
	return ctx.Err()
}

func (s *fakeSession) HTML() (string, error) {
	return s.html, nil
}

func (s *fakeSession) InnerHTML(selector string) (string, error) {
	return s.panelHTML, nil
}

func (s *fakeSession) InterceptedBodies() []string {
	return s.bodies
}

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

type fakeBrowserClient struct {
	session *fakeSession
	openErr error
}

var _ infra.BrowserClient = (*fakeBrowserClient)(nil)

func (c *fakeBrowserClient) OpenSession(ctx context.Context) (infra.BrowserSession, error) {
	if c.openErr != nil {
		return nil, c.openErr
	}
	return c.session, nil
}

func (c *fakeBrowserClient) Close() error {
	return nil
}

// testCatalogは、3車種の整合したカタログを返します。
func testCatalog() *model.Catalog {
	trims := func(prefix string, prices ...int64) []model.Trim {
		out := make([]model.Trim, 0, len(prices))
		for i, p := range prices {
			out = append(out, model.Trim{ID: "grade_" + string(rune('0'+i)), Name: prefix + string(rune('A'+i)), Price: p, Features: []string{}})
		}
		return out
	}
	details := map[string]*model.CarDetail{
		"1": {Brand: "현대", Name: "쏘나타", Trims: trims("S", 30_000_000, 35_000_000), SelectableOptions: []model.Option{}, ColorImages: []model.ColorImage{}},
		"2": {Brand: "현대", Name: "아반떼", Trims: trims("A", 20_000_000), SelectableOptions: []model.Option{}, ColorImages: []model.ColorImage{}},
		"3": {Brand: "기아", Name: "K5", Trims: trims("K", 28_000_000), SelectableOptions: []model.Option{}, ColorImages: []model.ColorImage{
			{ID: "color_1", Name: "스노우 화이트 펄", ImageURL: "https://autoimg.danawa.com/photo/3/40001/color_1_360.png", Hex: "#ffffff", Price: 80_000},
		}},
	}
	cars := []model.Car{}
	for _, id := range []string{"1", "2", "3"} {
		d := details[id]
		brandID := "hyundai"
		if d.Brand == "기아" {
			brandID = "kia"
		}
		low, _ := model.MinTrimPrice(d.Trims)
		cars = append(cars, model.Car{
			ID: id, BrandID: brandID, BrandName: d.Brand, Name: d.Name,
			StartPrice: low, Grades: model.GradesFromTrims(d.Trims), GradeCount: len(d.Trims),
		})
	}
	doc := model.CarsDocument{
		Brands: []model.Brand{{ID: "hyundai", Name: "현대"}, {ID: "kia", Name: "기아"}},
		Cars:   cars,
	}
	subModels := map[string]*model.SubModelEntry{
		"1": {SubModels: []model.SubModel{{ID: "sub_0", Name: "가솔린", FuelType: model.FuelGasoline, IsDefault: true}}},
		"2": {SubModels: []model.SubModel{{ID: "sub_0", Name: "가솔린", FuelType: model.FuelGasoline, IsDefault: true}}},
		"3": {SubModels: []model.SubModel{{ID: "sub_0", Name: "가솔린", FuelType: model.FuelGasoline, IsDefault: true}}},
	}
	return model.NewCatalog(doc, details, subModels)
}
