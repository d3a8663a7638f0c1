package symbol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	cases := []struct {
		in       string
		internal string
		prefixed string
	}{
		{"600519.SH", "600519.SH", "sh600519"},
		{"600519.XSHG", "600519.SH", "sh600519"},
		{"000001.XSHE", "000001.SZ", "sz000001"},
		{"000001.sz", "000001.SZ", "sz000001"},
		{"sh000001", "000001.SH", "sh000001"},
		{"SZ399001", "399001.SZ", "sz399001"},
		{"830799.BJ", "830799.BJ", "bj830799"},
		{"AAPL", "", "aapl"},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			sym := Parse(tc.in)
			assert.Equal(t, tc.internal, sym.Internal())
			assert.Equal(t, tc.prefixed, sym.Prefixed())
		})
	}
}

func TestConverters(t *testing.T) {
	assert.Equal(t, "sh600519", Tencent.ToExchange("600519.SH"))
	assert.Equal(t, "sz000001", Sina.ToExchange("000001.XSHE"))
	assert.Equal(t, "600519.SH", Tencent.FromExchange("sh600519"))
	assert.Equal(t, "", Sina.FromExchange("  "))
	assert.Equal(t, FormatSina, Sina.Format())
}

func TestNormalizeList(t *testing.T) {
	out := NormalizeList([]string{"600519.XSHG", "sh600519", "000001.SZ", "", "aapl"})
	assert.Equal(t, []string{"600519.SH", "000001.SZ", "AAPL"}, out)
}
