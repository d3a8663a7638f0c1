package market

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFrequency(t *testing.T) {
	cases := map[string]Frequency{"1m": Minute, "1d": Daily, "1w": Weekly, "1M": Monthly}
	for key, want := range cases {
		got, err := ParseFrequency(key)
		require.NoError(t, err, key)
		assert.Equal(t, want, got)
		assert.Equal(t, key, got.String())
	}
	_, err := ParseFrequency("1h")
	assert.Error(t, err)
	assert.Equal(t, []string{"1M", "1d", "1m", "1w"}, SupportedFrequencies())
}

func TestFrequencySpecTable(t *testing.T) {
	spec, ok := Weekly.Spec()
	require.True(t, ok)
	assert.Equal(t, "week", spec.TencentUnit)
	assert.Equal(t, 1200, spec.SinaScale)
	assert.Equal(t, 4, spec.DayFactor)

	spec, ok = Minute.Spec()
	require.True(t, ok)
	assert.True(t, spec.Intraday)

	_, ok = FrequencyUnknown.Spec()
	assert.False(t, ok)
}

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod(" Weekly ")
	require.NoError(t, err)
	assert.Equal(t, PeriodWeekly, p)
	_, err = ParsePeriod("daily")
	assert.Error(t, err)
}

func TestSourceErrorKinds(t *testing.T) {
	err := NetworkError("sina", errors.New("dial tcp"))
	assert.True(t, errors.Is(err, ErrSourceUnavailable))
	assert.Equal(t, KindNetwork, KindOf(err))
	assert.Contains(t, err.Error(), "sina")
	assert.Equal(t, ErrorKind(0), KindOf(errors.New("other")))
}
