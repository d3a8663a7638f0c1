package market

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSource struct {
	mock.Mock
	name string
}

func (m *mockSource) Name() string { return m.name }

func (m *mockSource) Fetch(ctx context.Context, req FetchRequest) ([]Candle, error) {
	args := m.Called(ctx, req)
	var out []Candle
	if v := args.Get(0); v != nil {
		out = v.([]Candle)
	}
	return out, args.Error(1)
}

func candles(n int) []Candle {
	out := make([]Candle, n)
	for i := range out {
		out[i] = bar(day(2024, 1, 2).AddDate(0, 0, i), 1, 1, 1, float64(i+1), 1)
	}
	return out
}

func TestGetPriceMinuteUsesSourceAOnly(t *testing.T) {
	a := &mockSource{name: "a"}
	b := &mockSource{name: "b"}
	req := FetchRequest{Symbol: "600519.SH", Frequency: Minute, Count: 250}
	a.On("Fetch", mock.Anything, req).Return(candles(3), nil).Once()

	c := NewCoordinator(a, b)
	out := c.GetPrice(context.Background(), "600519.SH", time.Time{}, 250, Minute)
	assert.Len(t, out, 3)
	a.AssertExpectations(t)
	b.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
}

func TestGetPricePrefersSourceB(t *testing.T) {
	a := &mockSource{name: "a"}
	b := &mockSource{name: "b"}
	end := day(2024, 1, 5)
	req := FetchRequest{Symbol: "600519.SH", Frequency: Daily, Count: 2, EndDate: end}
	b.On("Fetch", mock.Anything, req).Return(candles(2), nil).Once()

	out := NewCoordinator(a, b).GetPrice(context.Background(), "600519.SH", end, 2, Daily)
	assert.Len(t, out, 2)
	a.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
}

func TestGetPriceFailsOverWithSameParameters(t *testing.T) {
	a := &mockSource{name: "a"}
	b := &mockSource{name: "b"}
	req := FetchRequest{Symbol: "000001.SZ", Frequency: Weekly, Count: 10}
	b.On("Fetch", mock.Anything, req).Return(nil, NetworkError("b", errors.New("timeout"))).Once()
	a.On("Fetch", mock.Anything, req).Return(candles(10), nil).Once()

	out := NewCoordinator(a, b).GetPrice(context.Background(), "000001.SZ", time.Time{}, 10, Weekly)
	assert.Len(t, out, 10)
	a.AssertExpectations(t)
	b.AssertExpectations(t)
}

func TestGetPriceEmptyPrimaryFailsOver(t *testing.T) {
	a := &mockSource{name: "a"}
	b := &mockSource{name: "b"}
	b.On("Fetch", mock.Anything, mock.Anything).Return([]Candle{}, nil).Once()
	a.On("Fetch", mock.Anything, mock.Anything).Return(candles(1), nil).Once()

	out := NewCoordinator(a, b).GetPrice(context.Background(), "000001.SZ", time.Time{}, 1, Daily)
	assert.Len(t, out, 1)
}

func TestGetPriceBothFailReturnsEmpty(t *testing.T) {
	a := &mockSource{name: "a"}
	b := &mockSource{name: "b"}
	b.On("Fetch", mock.Anything, mock.Anything).Return(nil, FormatError("b", "bad")).Once()
	a.On("Fetch", mock.Anything, mock.Anything).Return(nil, EmptyResultError("a", "x")).Once()

	out := NewCoordinator(a, b).GetPrice(context.Background(), "x", time.Time{}, 5, Monthly)
	require.NotNil(t, out)
	assert.Empty(t, out)
	a.AssertNumberOfCalls(t, "Fetch", 1)
	b.AssertNumberOfCalls(t, "Fetch", 1)
}

func TestGetPriceBreakerSkipsOpenSource(t *testing.T) {
	a := &mockSource{name: "a"}
	b := &mockSource{name: "b"}
	b.On("Fetch", mock.Anything, mock.Anything).Return(nil, NetworkError("b", errors.New("down")))
	a.On("Fetch", mock.Anything, mock.Anything).Return(candles(1), nil)

	c := NewCoordinator(a, b, WithBreakers(2, time.Hour))
	for i := 0; i < 3; i++ {
		out := c.GetPrice(context.Background(), "x", time.Time{}, 1, Daily)
		assert.Len(t, out, 1)
	}
	// 第三次调用时 b 已熔断，不再发起请求
	b.AssertNumberOfCalls(t, "Fetch", 2)
	a.AssertNumberOfCalls(t, "Fetch", 3)
}

func TestGetPriceByKey(t *testing.T) {
	a := &mockSource{name: "a"}
	b := &mockSource{name: "b"}
	b.On("Fetch", mock.Anything, mock.MatchedBy(func(r FetchRequest) bool { return r.Frequency == Monthly })).
		Return(candles(1), nil).Once()

	c := NewCoordinator(a, b)
	out, err := c.GetPriceByKey(context.Background(), "x", time.Time{}, 1, "1M")
	require.NoError(t, err)
	assert.Len(t, out, 1)

	_, err = c.GetPriceByKey(context.Background(), "x", time.Time{}, 1, "5m")
	assert.Error(t, err)
}
