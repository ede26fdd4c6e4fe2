package explain

import "strings"

// spoilerPlaceholder 替换解释文案中出现的剧透标签名。
const spoilerPlaceholder = "[隐藏标签]"

// Sanitize 对文案做大小写不敏感的剧透标签名查找替换。
// 正常路径下模板只用非剧透数据生成，这里是最后一道防线：
// 当剥除剧透标签的过滤开关被关掉时仍能兜住。
func Sanitize(text string, spoilerNames []string) string {
	for _, name := range spoilerNames {
		if name == "" {
			continue
		}
		text = replaceFold(text, name, spoilerPlaceholder)
	}
	return text
}

func replaceFold(text, old, new string) string {
	lowerText := strings.ToLower(text)
	lowerOld := strings.ToLower(old)

	var b strings.Builder
	start := 0
	for {
		i := strings.Index(lowerText[start:], lowerOld)
		if i < 0 {
			b.WriteString(text[start:])
			return b.String()
		}
		b.WriteString(text[start : start+i])
		b.WriteString(new)
		start += i + len(old)
	}
}
