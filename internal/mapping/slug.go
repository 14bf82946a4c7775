package mapping

import (
	"regexp"

	"github.com/gosimple/slug"
)

var slugUnsafe = regexp.MustCompile(`[^a-zA-Z0-9_\-]`)

// ToSlug 生成平台可接受的 slug
// 先把非字母数字/下划线/连字符替换为空格，再交给 slug 库做小写、连字符连接与转写
func ToSlug(s string) string {
	return slug.Make(slugUnsafe.ReplaceAllString(s, " "))
}
