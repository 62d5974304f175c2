package constants

// GetIssueCSVHeadersは、検出結果CSVのヘッダーを返します。
func GetIssueCSVHeaders() []string {
	return []string{"severity", "pass", "kind", "car_id", "message"}
}

// GetRepairCSVHeadersは、修正結果CSVのヘッダーを返します。
func GetRepairCSVHeaders() []string {
	return []string{"pass", "car_id", "field", "before", "after"}
}
