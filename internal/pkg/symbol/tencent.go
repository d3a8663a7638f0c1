package symbol

// TencentConverter 腾讯行情使用 sh600519 / sz000001 形式。
type TencentConverter struct{}

func (TencentConverter) ToExchange(internal string) string {
	return Parse(internal).Prefixed()
}

func (TencentConverter) FromExchange(raw string) string {
	return Normalize(raw)
}

func (TencentConverter) Format() Format {
	return FormatTencent
}

var Tencent = TencentConverter{}
