package market

import (
	"fmt"
	"sort"
	"strings"
)

// Frequency 是 K 线粒度的封闭枚举。
type Frequency int

const (
	FrequencyUnknown Frequency = iota
	Minute
	Daily
	Weekly
	Monthly
)

// FrequencySpec 汇总一个周期在各数据源上的编码。
type FrequencySpec struct {
	Key string
	// TencentUnit 为 fqkline 的 day/week/month；分钟线为空。
	TencentUnit string
	// TencentMinute 为 mkline 的 m1 参数；日线及以上为空。
	TencentMinute string
	// SinaScale 为新浪接口的 scale（分钟数）。
	SinaScale int
	// DayFactor 用于新浪 end_date 补偿：相差自然日 / DayFactor。
	DayFactor int
	Intraday  bool
}

var frequencySpecs = map[Frequency]FrequencySpec{
	Minute:  {Key: "1m", TencentMinute: "m1", SinaScale: 1, DayFactor: 1, Intraday: true},
	Daily:   {Key: "1d", TencentUnit: "day", SinaScale: 240, DayFactor: 1},
	Weekly:  {Key: "1w", TencentUnit: "week", SinaScale: 1200, DayFactor: 4},
	Monthly: {Key: "1M", TencentUnit: "month", SinaScale: 7200, DayFactor: 29},
}

var frequencyByKey = func() map[string]Frequency {
	out := make(map[string]Frequency, len(frequencySpecs))
	for f, spec := range frequencySpecs {
		out[spec.Key] = f
	}
	return out
}()

// ParseFrequency 解析 1m/1d/1w/1M。月线的 "M" 区分大小写，与分钟线 "m" 不同。
func ParseFrequency(key string) (Frequency, error) {
	f, ok := frequencyByKey[strings.TrimSpace(key)]
	if !ok {
		return FrequencyUnknown, fmt.Errorf("unsupported frequency: %q", key)
	}
	return f, nil
}

// Spec 返回周期定义；未知周期返回零值与 false。
func (f Frequency) Spec() (FrequencySpec, bool) {
	spec, ok := frequencySpecs[f]
	return spec, ok
}

func (f Frequency) String() string {
	if spec, ok := frequencySpecs[f]; ok {
		return spec.Key
	}
	return "unknown"
}

// SupportedFrequencies 返回所有 key（排序后）。
func SupportedFrequencies() []string {
	keys := make([]string, 0, len(frequencyByKey))
	for k := range frequencyByKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Period 是聚合目标周期。
type Period int

const (
	PeriodUnknown Period = iota
	PeriodWeekly
	PeriodMonthly
)

var periodByName = map[string]Period{
	"weekly":  PeriodWeekly,
	"monthly": PeriodMonthly,
}

func ParsePeriod(name string) (Period, error) {
	p, ok := periodByName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return PeriodUnknown, fmt.Errorf("unsupported period: %q", name)
	}
	return p, nil
}

func (p Period) String() string {
	switch p {
	case PeriodWeekly:
		return "weekly"
	case PeriodMonthly:
		return "monthly"
	default:
		return "unknown"
	}
}
