package utils

import "testing"

func TestFileIdentity(t *testing.T) {
	// 相同路径必须得到相同标识
	a := FileIdentity("/finance/reports/q3.xlsx")
	b := FileIdentity("/finance/reports/q3.xlsx")
	if a != b {
		t.Errorf("same path produced different identities: %s vs %s", a, b)
	}

	// SHA-256 十六进制编码固定 64 字符
	if len(a) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(a))
	}

	// 路径不同则标识不同
	if FileIdentity("/finance/reports/q3.xlsx") == FileIdentity("/finance/reports/q4.xlsx") {
		t.Error("different paths produced the same identity")
	}

	// 已知值回归："" 的 SHA-256
	if got := FileIdentity(""); got != "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855" {
		t.Errorf("unexpected identity for empty path: %s", got)
	}
}
