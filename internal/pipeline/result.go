package pipeline

import "fmt"

// Result is the external response shape of one obfuscation run (§6).
type Result struct {
	Code           string `json:"code"`
	OriginalSize   int    `json:"originalSize"`
	ObfuscatedSize int    `json:"obfuscatedSize"`
	ExpansionRatio string `json:"expansionRatio"`
	SecurityLevel  int    `json:"securityLevel"`
	Checksum       string `json:"checksum"`
}

func expansionRatio(originalSize, obfuscatedSize int) string {
	if originalSize == 0 {
		return "0.00%"
	}
	pct := float64(obfuscatedSize) / float64(originalSize) * 100
	return fmt.Sprintf("%.2f%%", pct)
}
