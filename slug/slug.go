// Package slug 从投票标题生成 URL 安全的标识
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fallback 标题中没有任何字母数字时使用
const Fallback = "enquete"

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// Make 去掉重音符号后转小写，非字母数字的连续字符替换为一个连字符
func Make(title string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	plain, _, err := transform.String(t, title)
	if err != nil {
		plain = title
	}

	s := nonAlphanumeric.ReplaceAllString(strings.ToLower(plain), "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return Fallback
	}
	return s
}

// Unique 在 base 后追加随机标记，保证唯一
func Unique(base string) string {
	if base == "" {
		base = Fallback
	}
	token := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return base + "-" + token
}

// HasBase 判断 s 是否由 base 生成（本身或 base 加标记）
func HasBase(s, base string) bool {
	if s == base {
		return true
	}
	if !strings.HasPrefix(s, base+"-") {
		return false
	}
	token := strings.TrimPrefix(s, base+"-")
	return len(token) == 12 && !strings.Contains(token, "-")
}
