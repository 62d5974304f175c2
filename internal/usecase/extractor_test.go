package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/nrad-K/car-catalog/internal/domain/model"
	"github.com/nrad-K/car-catalog/internal/infra"
	"github.com/nrad-K/car-catalog/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubParserは、受け取った内容を記録して固定の結果を返します。
type stubParser struct {
	got    infra.EstimatePageContent
	record model.ScrapeRecord
	err    error
}

var _ infra.EstimatePageParser = (*stubParser)(nil)

func (p *stubParser) Parse(carID string, content infra.EstimatePageContent) (model.ScrapeRecord, error) {
	p.got = content
	if p.err != nil {
		return model.ScrapeRecord{}, p.err
	}
	r := p.record
	r.CarID = carID
	return r, nil
}

func newTestExtractor(t *testing.T, session *fakeSession, parser *stubParser) VehicleExtractor {
	t.Helper()
	return NewPageExtractor(ExtractorArgs{
		Cfg:    newTestScraperConfig(t),
		Client: &fakeBrowserClient{session: session},
		Parser: parser,
		Logger: logger.NewNop(),
	})
}

func TestExtractor_Protocol(t *testing.T) {
	session := &fakeSession{html: "<html></html>", bodies: []string{`<li color="C1">a</li>`, `<li color="C2">b</li>`}, panelHTML: "panel"}
	parser := &stubParser{record: model.ScrapeRecord{Trims: []model.RawTrim{{Name: "노블레스", Price: 30_000_000}}}}
	extractor := newTestExtractor(t, session, parser)

	record, err := extractor.Extract(context.Background(), "4660", "54321")
	require.NoError(t, err)

	assert.Equal(t, "4660", record.CarID)
	assert.Equal(t, []string{"https://auto.danawa.com/newcar/?Work=estimate&Model=4660"}, session.navigated)
	assert.Equal(t, 3500*time.Millisecond, session.settled)
	assert.True(t, session.closed)

	// 傍受したレスポンスがある場合はパネルを読まない
	assert.Equal(t, "<li color=\"C1\">a</li>\n<li color=\"C2\">b</li>", parser.got.ColorHTML)
	assert.Equal(t, "54321", parser.got.KnownLineupID)
}

func TestExtractor_SavesSnapshot(t *testing.T) {
	session := &fakeSession{html: "<html>page</html>", panelHTML: "panel"}
	loader := infra.NewHTMLFileLoader(t.TempDir())
	extractor := NewPageExtractor(ExtractorArgs{
		Cfg:       newTestScraperConfig(t),
		Client:    &fakeBrowserClient{session: session},
		Parser:    &stubParser{},
		Logger:    logger.NewNop(),
		Snapshots: loader,
	})

	_, err := extractor.Extract(context.Background(), "4660", "")
	require.NoError(t, err)

	paths, err := loader.ListHTMLFilePaths()
	require.NoError(t, err)
	require.Len(t, paths, 1)
	snap, err := loader.LoadSnapshot(paths[0])
	require.NoError(t, err)
	assert.Equal(t, "4660", snap.CarID)
	assert.Equal(t, "<html>page</html>", snap.HTML)
	assert.Equal(t, "panel", snap.ColorHTML)
}

func TestExtractor_FallsBackToColorPanel(t *testing.T) {
	session := &fakeSession{html: "<html></html>", panelHTML: "panel"}
	parser := &stubParser{}
	extractor := newTestExtractor(t, session, parser)

	_, err := extractor.Extract(context.Background(), "4660", "")
	require.NoError(t, err)
	assert.Equal(t, "panel", parser.got.ColorHTML)
}

func TestExtractor_NavigationErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind model.ExtractErrorKind
	}{
		{"timeout", fmt.Errorf("%w: 30s", infra.ErrNavigationTimeout), model.ExtractErrorTimeout},
		{"deadline", context.DeadlineExceeded, model.ExtractErrorTimeout},
		{"other", errors.New("net::ERR_NAME_NOT_RESOLVED"), model.ExtractErrorNavigation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := &fakeSession{navigateErr: tt.err}
			extractor := newTestExtractor(t, session, &stubParser{})

			record, err := extractor.Extract(context.Background(), "4660", "")
			var extractErr *model.ExtractError
			require.ErrorAs(t, err, &extractErr)
			assert.Equal(t, tt.kind, extractErr.Kind)
			assert.Equal(t, "4660", extractErr.CarID)
			assert.Empty(t, record.Trims)
			assert.True(t, session.closed)
		})
	}
}

func TestExtractor_DegradesAfterNavigation(t *testing.T) {
	t.Run("click failure is not fatal", func(t *testing.T) {
		session := &fakeSession{clickErr: errors.New("no trim radio"), html: "<html></html>"}
		parser := &stubParser{record: model.ScrapeRecord{Trims: []model.RawTrim{{Name: "A", Price: 1}}}}
		extractor := newTestExtractor(t, session, parser)

		record, err := extractor.Extract(context.Background(), "4660", "")
		require.NoError(t, err)
		assert.Len(t, record.Trims, 1)
	})

	t.Run("parse failure yields empty record", func(t *testing.T) {
		session := &fakeSession{html: "<html></html>"}
		extractor := newTestExtractor(t, session, &stubParser{err: errors.New("broken markup")})

		record, err := extractor.Extract(context.Background(), "4660", "")
		require.NoError(t, err)
		assert.Equal(t, "4660", record.CarID)
		assert.ElementsMatch(t, []string{model.CategoryTrims, model.CategoryColors, model.CategoryOptions}, record.EmptyCategories())
	})
}

func TestExtractor_SessionOpenFailure(t *testing.T) {
	extractor := NewPageExtractor(ExtractorArgs{
		Cfg:    newTestScraperConfig(t),
		Client: &fakeBrowserClient{openErr: errors.New("browser closed")},
		Parser: &stubParser{},
		Logger: logger.NewNop(),
	})

	_, err := extractor.Extract(context.Background(), "4660", "")
	var extractErr *model.ExtractError
	require.ErrorAs(t, err, &extractErr)
	assert.Equal(t, model.ExtractErrorSession, extractErr.Kind)
}
