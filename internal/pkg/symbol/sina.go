package symbol

import "strings"

// SinaConverter 新浪接口与腾讯同为前缀式代码，但北交所代码需保持小写 bj。
type SinaConverter struct{}

func (SinaConverter) ToExchange(internal string) string {
	return strings.ToLower(Parse(internal).Prefixed())
}

func (SinaConverter) FromExchange(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	return Normalize(s)
}

func (SinaConverter) Format() Format {
	return FormatSina
}

var Sina = SinaConverter{}
