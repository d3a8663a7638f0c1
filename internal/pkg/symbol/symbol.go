package symbol

import (
	"strings"
)

type Format string

const (
	FormatInternal Format = "internal"
	FormatTencent  Format = "tencent"
	FormatSina     Format = "sina"
)

// Converter 在规范代码与数据源代码之间转换，纯函数无副作用。
type Converter interface {
	ToExchange(internal string) string

	FromExchange(raw string) string

	Format() Format
}

// Exchange 为交易所简写。
type Exchange string

const (
	ExchangeSH Exchange = "SH"
	ExchangeSZ Exchange = "SZ"
	ExchangeBJ Exchange = "BJ"
)

// 规范后缀 -> 交易所；.XSHG/.XSHE 为聚宽风格。
var suffixes = []struct {
	suffix   string
	exchange Exchange
}{
	{".XSHG", ExchangeSH},
	{".XSHE", ExchangeSZ},
	{".SH", ExchangeSH},
	{".SZ", ExchangeSZ},
	{".BJ", ExchangeBJ},
}

var prefixes = map[string]Exchange{
	"sh": ExchangeSH,
	"sz": ExchangeSZ,
	"bj": ExchangeBJ,
}

type Symbol struct {
	Code     string
	Exchange Exchange

	// raw 保存无法识别交易所时的小写原值
	raw string
}

// Internal 返回 600519.SH 形式；无法识别交易所时返回空串。
func (s Symbol) Internal() string {
	if s.Code == "" || s.Exchange == "" {
		return ""
	}
	return s.Code + "." + string(s.Exchange)
}

// Prefixed 返回 sh600519 形式；无法识别交易所时退化为小写原值。
func (s Symbol) Prefixed() string {
	if s.Code == "" || s.Exchange == "" {
		return s.raw
	}
	return strings.ToLower(string(s.Exchange)) + s.Code
}

func (s Symbol) Valid() bool {
	return s.Code != "" && s.Exchange != ""
}

func Parse(s string) Symbol {
	s = strings.TrimSpace(s)
	if s == "" {
		return Symbol{}
	}
	upper := strings.ToUpper(s)
	for _, sf := range suffixes {
		if strings.HasSuffix(upper, sf.suffix) && len(upper) > len(sf.suffix) {
			return Symbol{Code: upper[:len(upper)-len(sf.suffix)], Exchange: sf.exchange}
		}
	}
	lower := strings.ToLower(s)
	if len(lower) > 2 {
		if ex, ok := prefixes[lower[:2]]; ok && isDigits(lower[2:]) {
			return Symbol{Code: lower[2:], Exchange: ex}
		}
	}
	return Symbol{raw: lower}
}

// Normalize 返回规范代码；无法识别交易所时返回大写原值，保证可作为缓存 key。
func Normalize(s string) string {
	sym := Parse(s)
	if sym.Valid() {
		return sym.Internal()
	}
	return strings.ToUpper(strings.TrimSpace(s))
}

func NormalizeList(symbols []string) []string {
	if len(symbols) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		norm := Normalize(s)
		if norm == "" {
			continue
		}
		if _, ok := seen[norm]; ok {
			continue
		}
		seen[norm] = struct{}{}
		out = append(out, norm)
	}
	return out
}

func IsValid(s string) bool {
	return Parse(s).Valid()
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
