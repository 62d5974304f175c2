package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/nrad-K/car-catalog/internal/config"
	"github.com/nrad-K/car-catalog/internal/domain/model"
	"github.com/nrad-K/car-catalog/internal/domain/repository"
)

// catalogFileStoreは、3つのJSONファイルを1つのカタログとして読み書きします。
type catalogFileStore struct {
	cfg  config.CatalogConfig
	lock *os.File
}

var _ repository.CatalogRepository = (*catalogFileStore)(nil)

func NewCatalogFileStore(cfg config.CatalogConfig) *catalogFileStore {
	return &catalogFileStore{cfg: cfg}
}

// Loadは、3つのドキュメントを読み込みます。存在しないファイルは空のドキュメントとして扱います。
// いずれかが正しいJSONでない場合はmodel.ErrMalformedCatalogを返します。
//
// args:
//
//	ctx: コンテキスト
//
// return:
//
//	*model.Catalog: 読み込んだスナップショット
//	error: 失敗時のエラー
func (s *catalogFileStore) Load(ctx context.Context) (*model.Catalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var doc model.CarsDocument
	if err := readJSONDocument(s.cfg.CarsPath(), &doc); err != nil {
		return nil, err
	}
	details := map[string]*model.CarDetail{}
	if err := readJSONDocument(s.cfg.DetailsPath(), &details); err != nil {
		return nil, err
	}
	subModels := map[string]*model.SubModelEntry{}
	if err := readJSONDocument(s.cfg.SubModelsPath(), &subModels); err != nil {
		return nil, err
	}

	return model.NewCatalog(doc, details, subModels), nil
}

func readJSONDocument(path string, v any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("カタログファイルの読み込みに失敗しました(%s): %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", model.ErrMalformedCatalog, path, err)
	}
	return nil
}

// Persistは、3つのドキュメントを2スペースインデントで書き戻します。
// 全てのドキュメントのエンコードに成功してから書き込みを始め、各ファイルは一時ファイルからのリネームで置き換えます。
//
// args:
//
//	ctx: コンテキスト
//	catalog: 書き込むスナップショット
//
// return:
//
//	error: 失敗時のエラー
func (s *catalogFileStore) Persist(ctx context.Context, catalog *model.Catalog) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	docs := []struct {
		path  string
		value any
	}{
		{path: s.cfg.CarsPath(), value: catalog.Document()},
		{path: s.cfg.DetailsPath(), value: catalog.Details},
		{path: s.cfg.SubModelsPath(), value: catalog.SubModels},
	}

	encoded := make([][]byte, len(docs))
	for i, doc := range docs {
		data, err := encodeJSONDocument(doc.value)
		if err != nil {
			return fmt.Errorf("カタログのエンコードに失敗しました(%s): %w", doc.path, err)
		}
		encoded[i] = data
	}

	if err := os.MkdirAll(s.cfg.Dir, 0755); err != nil {
		return fmt.Errorf("カタログディレクトリの作成に失敗しました: %w", err)
	}
	for i, doc := range docs {
		if err := writeFileAtomic(doc.path, encoded[i]); err != nil {
			return err
		}
	}
	return nil
}

func encodeJSONDocument(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("一時ファイルの作成に失敗しました(%s): %w", path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("一時ファイルへの書き込みに失敗しました(%s): %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("一時ファイルのクローズに失敗しました(%s): %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("ファイルの置き換えに失敗しました(%s): %w", path, err)
	}
	return nil
}

// Lockは、ロックファイルを排他的に作成します。既に存在する場合はmodel.ErrCatalogLockedを返します。
func (s *catalogFileStore) Lock() error {
	if s.lock != nil {
		return nil
	}
	if err := os.MkdirAll(s.cfg.Dir, 0755); err != nil {
		return fmt.Errorf("カタログディレクトリの作成に失敗しました: %w", err)
	}
	f, err := os.OpenFile(s.cfg.LockPath(), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if errors.Is(err, os.ErrExist) {
		return fmt.Errorf("%w: %s", model.ErrCatalogLocked, s.cfg.LockPath())
	}
	if err != nil {
		return fmt.Errorf("ロックファイルの作成に失敗しました: %w", err)
	}
	fmt.Fprintf(f, "pid=%s started=%s\n", strconv.Itoa(os.Getpid()), time.Now().Format(time.RFC3339))
	s.lock = f
	return nil
}

// Unlockは、Lockで作成したロックファイルを削除します。
func (s *catalogFileStore) Unlock() error {
	if s.lock == nil {
		return nil
	}
	s.lock.Close()
	s.lock = nil
	if err := os.Remove(s.cfg.LockPath()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("ロックファイルの削除に失敗しました: %w", err)
	}
	return nil
}
