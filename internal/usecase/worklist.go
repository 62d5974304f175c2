package usecase

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/nrad-K/car-catalog/internal/domain/model"
	"github.com/nrad-K/car-catalog/internal/domain/repository"
)

// WorklistEntryは、スクレイプ対象の1車種です。BrandIDはカタログに無い車種を追加する場合だけ必要です。
type WorklistEntry struct {
	CarID   string
	BrandID string
}

// WorklistSelectorは、ワークリストの選び方です。指定された全ての条件の和集合を対象にします。
type WorklistSelector struct {
	Entries []WorklistEntry
	// Missingは、指定カテゴリ(trims・colors・options)が空の車種を対象にします。
	Missing     string
	RetryFailed bool
}

func (s WorklistSelector) Empty() bool {
	return len(s.Entries) == 0 && s.Missing == "" && !s.RetryFailed
}

// ParseIDsは、"4435,4660"のようなカンマ区切りの車種IDを解析します。
func ParseIDs(ids string) []WorklistEntry {
	var entries []WorklistEntry
	for _, id := range strings.Split(ids, ",") {
		if id = strings.TrimSpace(id); id != "" {
			entries = append(entries, WorklistEntry{CarID: id})
		}
	}
	return entries
}

// ParseWorklistは、1行1車種のワークリストを読み込みます。
// 各行は"車種ID"または"車種ID,ブランドID"で、空行と#で始まる行は無視します。
//
// args:
//
//	r: ワークリストの入力
//
// return:
//
//	[]WorklistEntry: 読み込んだエントリー
//	error: 読み込みに失敗した場合のエラー
func ParseWorklist(r io.Reader) ([]WorklistEntry, error) {
	var entries []WorklistEntry
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		parts := strings.Split(text, ",")
		if len(parts) > 2 {
			return nil, fmt.Errorf("ワークリスト%d行目の形式が不正です: %q", line, text)
		}
		entry := WorklistEntry{CarID: strings.TrimSpace(parts[0])}
		if len(parts) == 2 {
			entry.BrandID = strings.TrimSpace(parts[1])
		}
		if entry.CarID == "" {
			return nil, fmt.Errorf("ワークリスト%d行目に車種IDがありません", line)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("ワークリストの読み込みに失敗しました: %w", err)
	}
	return entries, nil
}

// MissingCategoryIDsは、指定カテゴリが空または詳細が無い車種のIDを昇順で返します。
func MissingCategoryIDs(catalog *model.Catalog, category string) ([]string, error) {
	var ids []string
	for _, id := range catalog.CarIDs() {
		detail, ok := catalog.FindDetailByID(id)
		if !ok {
			ids = append(ids, id)
			continue
		}
		var n int
		switch category {
		case model.CategoryTrims:
			n = len(detail.Trims)
		case model.CategoryColors:
			n = len(detail.ColorImages)
		case model.CategoryOptions:
			n = len(detail.SelectableOptions)
		default:
			return nil, fmt.Errorf("不明なカテゴリです: %s", category)
		}
		if n == 0 {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// resolveWorklistは、選択条件からワークリストを作ります。重複は最初の出現の位置に残し、ブランドは最初に指定されたものを使います。
func resolveWorklist(ctx context.Context, catalog *model.Catalog, outcomes repository.VehicleOutcomeRepository, sel WorklistSelector) ([]WorklistEntry, error) {
	entries := append([]WorklistEntry(nil), sel.Entries...)

	if sel.Missing != "" {
		ids, err := MissingCategoryIDs(catalog, sel.Missing)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			entries = append(entries, WorklistEntry{CarID: id})
		}
	}

	if sel.RetryFailed {
		if outcomes == nil {
			return nil, fmt.Errorf("実行結果ストアが無いため前回失敗した車種を取得できません")
		}
		ids, err := outcomes.FindIDsByStatus(ctx, model.OutcomeFailed)
		if err != nil {
			return nil, fmt.Errorf("前回失敗した車種の取得に失敗しました: %w", err)
		}
		for _, id := range ids {
			entries = append(entries, WorklistEntry{CarID: id})
		}
	}

	index := map[string]int{}
	deduped := make([]WorklistEntry, 0, len(entries))
	for _, e := range entries {
		i, ok := index[e.CarID]
		if !ok {
			index[e.CarID] = len(deduped)
			deduped = append(deduped, e)
			continue
		}
		if deduped[i].BrandID == "" {
			deduped[i].BrandID = e.BrandID
		}
	}
	return deduped, nil
}

// FormatWorklistは、ParseWorklistで読み込める形式にエントリーを書き出します。
func FormatWorklist(header string, entries []WorklistEntry) []byte {
	var b strings.Builder
	if header != "" {
		for _, line := range strings.Split(header, "\n") {
			b.WriteString("# " + line + "\n")
		}
	}
	for _, e := range entries {
		b.WriteString(e.CarID)
		if e.BrandID != "" {
			b.WriteString("," + e.BrandID)
		}
		b.WriteString("\n")
	}
	return []byte(b.String())
}
