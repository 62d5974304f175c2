package infra

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nrad-K/car-catalog/internal/constants"
	"github.com/nrad-K/car-catalog/internal/domain/model"
)

type FileExporter interface {
	Write(row []string) error
	Close() error
}

type CSVExporter struct {
	file   *os.File
	writer *csv.Writer
}

func NewCSVExporter(filePath string, headers []string) (*CSVExporter, error) {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("出力ディレクトリの作成に失敗しました: %w", err)
	}

	file, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("CSVファイルの作成に失敗しました: %w", err)
	}

	writer := csv.NewWriter(file)

	if err := writer.Write(headers); err != nil {
		file.Close()
		return nil, fmt.Errorf("CSVヘッダーの書き込みに失敗しました: %w", err)
	}

	return &CSVExporter{
		file:   file,
		writer: writer,
	}, nil
}

func (c *CSVExporter) Write(row []string) error {
	return c.writer.Write(row)
}

func (c *CSVExporter) Close() error {
	c.writer.Flush()
	if err := c.writer.Error(); err != nil {
		c.file.Close()
		return err
	}
	return c.file.Close()
}

func issueRow(issue model.Issue) []string {
	return []string{
		string(issue.Severity),
		issue.Pass,
		issue.Kind,
		issue.CarID,
		issue.Message,
	}
}

func repairRow(repair model.Repair) []string {
	return []string{
		repair.Pass,
		repair.CarID,
		repair.Field,
		formatValue(repair.Before),
		formatValue(repair.After),
	}
}

// formatValueは、修正前後の値をCSVの1セルに収まる文字列にします。
func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case fmt.Stringer:
		return val.String()
	case int, int64, bool:
		return fmt.Sprint(val)
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(data)
	}
}

// ExportFindingsCSVは、検出結果と修正結果をそれぞれCSVに書き出します。
//
// args:
//
//	dir: 出力ディレクトリ
//	prefix: ファイル名の接頭辞
//	findings: 書き出す結果
//
// return:
//
//	[]string: 書き出したファイルのパス
//	error: 失敗時のエラー
func ExportFindingsCSV(dir, prefix string, findings model.Findings) ([]string, error) {
	issuePath := filepath.Join(dir, prefix+"-issues.csv")
	if err := exportRows(issuePath, constants.GetIssueCSVHeaders(), len(findings.Issues), func(i int) []string {
		return issueRow(findings.Issues[i])
	}); err != nil {
		return nil, err
	}

	paths := []string{issuePath}
	if len(findings.Repairs) == 0 {
		return paths, nil
	}

	repairPath := filepath.Join(dir, prefix+"-repairs.csv")
	if err := exportRows(repairPath, constants.GetRepairCSVHeaders(), len(findings.Repairs), func(i int) []string {
		return repairRow(findings.Repairs[i])
	}); err != nil {
		return nil, err
	}
	return append(paths, repairPath), nil
}

func exportRows(path string, headers []string, n int, row func(i int) []string) error {
	exporter, err := NewCSVExporter(path, headers)
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := exporter.Write(row(i)); err != nil {
			exporter.Close()
			return fmt.Errorf("CSVの書き込みに失敗しました(%s): %w", path, err)
		}
	}
	if err := exporter.Close(); err != nil {
		return fmt.Errorf("CSVのクローズに失敗しました(%s): %w", path, err)
	}
	return nil
}

// ExportJSONReportは、レポートを2スペースインデントのJSONとして書き出します。
func ExportJSONReport(dir, name string, v any) (string, error) {
	data, err := encodeJSONDocument(v)
	if err != nil {
		return "", fmt.Errorf("レポートのエンコードに失敗しました: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("出力ディレクトリの作成に失敗しました: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := writeFileAtomic(path, data); err != nil {
		return "", err
	}
	return path, nil
}

// ExportTextFileは、テキストをそのままファイルに書き出します。
func ExportTextFile(dir, name string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("出力ディレクトリの作成に失敗しました: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := writeFileAtomic(path, data); err != nil {
		return "", err
	}
	return path, nil
}
