package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// FileIdentity 计算文件路径字符串的 SHA-256 哈希（十六进制小写）
// 注意：这是基于路径的标识，不是文件内容哈希——链接改名不影响标识，
// 但底层文件移动路径后会生成新的标识，被当作一条新记录跟踪
func FileIdentity(filePath string) string {
	sum := sha256.Sum256([]byte(filePath))
	return hex.EncodeToString(sum[:])
}
