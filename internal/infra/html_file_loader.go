package infra

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const colorSnapshotSuffix = ".color.html"

// PageSnapshotは、保存済みの見積もりページです。ファイル名(拡張子を除く)が車種IDです。
type PageSnapshot struct {
	CarID     string
	Path      string
	HTML      string
	ColorHTML string
}

// HTMLFileLoaderは、見積もりページのHTMLを車種IDごとのファイルとして保存・読み込みします。
// 外装色パネルのHTMLは"{車種ID}.color.html"として隣に置きます。
type HTMLFileLoader struct {
	dir string
}

func NewHTMLFileLoader(dir string) *HTMLFileLoader {
	return &HTMLFileLoader{dir: dir}
}

func (f *HTMLFileLoader) Dir() string {
	return f.dir
}

// SaveSnapshotは、ページHTMLと外装色HTMLを保存します。外装色HTMLが空の場合は古いファイルを消します。
func (f *HTMLFileLoader) SaveSnapshot(carID, html, colorHTML string) error {
	if err := os.MkdirAll(f.dir, 0755); err != nil {
		return fmt.Errorf("スナップショットのディレクトリ作成に失敗しました: %w", err)
	}
	base := filepath.Join(f.dir, carID)
	if err := writeFileAtomic(base+".html", []byte(html)); err != nil {
		return err
	}
	if colorHTML == "" {
		if err := os.Remove(base + colorSnapshotSuffix); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("古い外装色スナップショットを削除できませんでした: %w", err)
		}
		return nil
	}
	return writeFileAtomic(base+colorSnapshotSuffix, []byte(colorHTML))
}

func (f *HTMLFileLoader) LoadHTMLFile(path string) (string, error) {
	html, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("HTMLファイルの読み込みに失敗しました: %w", err)
	}
	return string(html), nil
}

// LoadSnapshotは、ページHTMLと(あれば)外装色HTMLを読み込みます。
func (f *HTMLFileLoader) LoadSnapshot(path string) (PageSnapshot, error) {
	html, err := f.LoadHTMLFile(path)
	if err != nil {
		return PageSnapshot{}, err
	}
	carID := strings.TrimSuffix(filepath.Base(path), ".html")
	snapshot := PageSnapshot{CarID: carID, Path: path, HTML: html}

	colorPath := strings.TrimSuffix(path, ".html") + colorSnapshotSuffix
	if _, err := os.Stat(colorPath); err == nil {
		if snapshot.ColorHTML, err = f.LoadHTMLFile(colorPath); err != nil {
			return PageSnapshot{}, err
		}
	}
	return snapshot, nil
}

// ListHTMLFilePathsは、ディレクトリ配下のページHTMLを再帰的に探し、パス順で返します。外装色HTMLは含みません。
func (f *HTMLFileLoader) ListHTMLFilePaths() ([]string, error) {
	var paths []string

	err := filepath.Walk(f.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".html" && !strings.HasSuffix(path, colorSnapshotSuffix) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return paths, fmt.Errorf("ディレクトリの走査に失敗しました: %w", err)
	}

	sort.Strings(paths)
	return paths, nil
}
