package executor

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// DefaultEncoding is the legacy console code page of the zh-CN Windows builds
// both backends were written against. htmlindex maps it to GBK, a superset.
const DefaultEncoding = "gb2312"

// LookupEncoding resolves a code page name such as "gb2312", "gbk",
// "windows-1252" or "utf-8". An empty name selects DefaultEncoding.
func LookupEncoding(name string) (encoding.Encoding, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultEncoding
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unknown console encoding %q: %w", name, err)
	}
	return enc, nil
}
