package textutil

import (
	"fmt"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DecodeText converts stored bytes into a UTF-8 string. A UTF-8 or UTF-16
// byte order mark is honored and stripped; input without a BOM is treated as
// UTF-8. Summaries written by upstream tooling on Windows hosts tend to carry
// a BOM, so readers go through here rather than casting bytes directly.
func DecodeText(raw []byte) (string, error) {
	decoded, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), raw)
	if err != nil {
		return "", fmt.Errorf("decode text: %w", err)
	}
	return string(decoded), nil
}
