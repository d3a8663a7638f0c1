package visual

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"stockpulse/internal/analysis/indicator"
	"stockpulse/internal/market"
)

// KlineInput 描述一张日/周/月 K 线图。
type KlineInput struct {
	Code    string
	Period  string
	Candles []market.Candle
	MA      []indicator.MASeries
}

// A 股配色：红涨绿跌
const (
	colorBackground    = "#ffffff"
	colorTextPrimary   = "#1f2937"
	colorTextSecondary = "#6b7280"
	colorUp            = "#ef4444"
	colorDown          = "#10b981"

	chartWidthPx   = 1200
	klineHeightPx  = 520
	volumeHeightPx = 200
)

var maColors = []string{"#3b82f6", "#f59e0b", "#8b5cf6", "#ec4899", "#14b8a6", "#64748b"}

// RenderKline 输出包含 K 线、均线与成交量的 HTML 页面。
func RenderKline(w io.Writer, input KlineInput) error {
	if input.Code == "" {
		return fmt.Errorf("code required for kline render")
	}
	if len(input.Candles) == 0 {
		return fmt.Errorf("no candles to render for %s", input.Code)
	}
	page := components.NewPage()
	page.PageTitle = fmt.Sprintf("%s %s", input.Code, input.Period)
	page.SetLayout(components.PageFlexLayout)

	xAxis := buildXAxis(input.Candles)
	kline := buildKlineChart(input, xAxis)
	if len(input.MA) > 0 {
		kline.Overlap(buildMALine(input.MA, xAxis))
	}
	page.AddCharts(kline, buildVolumeChart(input.Candles, xAxis))
	return page.Render(w)
}

func buildKlineChart(input KlineInput, xAxis []string) *charts.Kline {
	minPrice, maxPrice := priceBounds(input.Candles)
	padding := (maxPrice - minPrice) * 0.05
	if padding <= 0 {
		padding = math.Max(0.01, math.Abs(maxPrice)*0.01)
	}

	kline := charts.NewKLine()
	kline.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme:           types.ThemeWesteros,
			Width:           fmt.Sprintf("%dpx", chartWidthPx),
			Height:          fmt.Sprintf("%dpx", klineHeightPx),
			BackgroundColor: colorBackground,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:      fmt.Sprintf("%s %s", input.Code, input.Period),
			Left:       "left",
			TitleStyle: &opts.TextStyle{Color: colorTextPrimary, FontSize: 16},
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), TextStyle: &opts.TextStyle{Color: colorTextSecondary}}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", XAxisIndex: []int{0}}),
		charts.WithXAxisOpts(opts.XAxis{
			AxisLabel: &opts.AxisLabel{Color: colorTextSecondary},
			SplitLine: &opts.SplitLine{Show: opts.Bool(false)},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Scale:     opts.Bool(true),
			Min:       round(minPrice-padding, 2),
			Max:       round(maxPrice+padding, 2),
			AxisLabel: &opts.AxisLabel{Color: colorTextSecondary},
			SplitLine: &opts.SplitLine{Show: opts.Bool(true), LineStyle: &opts.LineStyle{Color: colorTextSecondary, Opacity: opts.Float(0.2)}},
		}),
	)
	kline.SetSeriesOptions(
		charts.WithItemStyleOpts(opts.ItemStyle{
			Color:        colorUp,
			Color0:       colorDown,
			BorderColor:  colorUp,
			BorderColor0: colorDown,
		}),
	)
	data := make([]opts.KlineData, 0, len(input.Candles))
	for _, c := range input.Candles {
		data = append(data, opts.KlineData{Value: [4]float64{c.Open, c.Close, c.Low, c.High}})
	}
	kline.SetXAxis(xAxis)
	kline.AddSeries("K", data)
	return kline
}

func buildMALine(series []indicator.MASeries, xAxis []string) *charts.Line {
	line := charts.NewLine()
	line.SetSeriesOptions(
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
	)
	line.SetXAxis(xAxis)
	for i, ma := range series {
		data := make([]opts.LineData, len(ma.Values))
		for j, v := range ma.Values {
			if v == nil {
				data[j] = opts.LineData{Value: nil}
				continue
			}
			data[j] = opts.LineData{Value: *v}
		}
		color := maColors[i%len(maColors)]
		line.AddSeries(fmt.Sprintf("MA%d", ma.Period), data, charts.WithLineStyleOpts(opts.LineStyle{Color: color, Width: 1.5}))
	}
	return line
}

func buildVolumeChart(candles []market.Candle, xAxis []string) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme:           types.ThemeWesteros,
			Width:           fmt.Sprintf("%dpx", chartWidthPx),
			Height:          fmt.Sprintf("%dpx", volumeHeightPx),
			BackgroundColor: colorBackground,
		}),
		charts.WithTitleOpts(opts.Title{Title: "Volume", Left: "left", TitleStyle: &opts.TextStyle{Color: colorTextPrimary}}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{AxisLabel: &opts.AxisLabel{Show: opts.Bool(false)}}),
		charts.WithYAxisOpts(opts.YAxis{
			AxisLabel: &opts.AxisLabel{Show: opts.Bool(true), Color: colorTextSecondary},
			SplitLine: &opts.SplitLine{Show: opts.Bool(true), LineStyle: &opts.LineStyle{Color: colorTextSecondary, Opacity: opts.Float(0.15)}},
		}),
	)
	vols := make([]opts.BarData, len(candles))
	for i, c := range candles {
		color := colorDown
		if c.Close >= c.Open {
			color = colorUp
		}
		vols[i] = opts.BarData{
			Value:     c.Volume,
			ItemStyle: &opts.ItemStyle{Color: color, Opacity: opts.Float(0.7)},
		}
	}
	bar.SetXAxis(xAxis)
	bar.AddSeries("Volume", vols)
	return bar
}

func buildXAxis(candles []market.Candle) []string {
	x := make([]string, len(candles))
	for i, c := range candles {
		x[i] = c.Time.In(market.Shanghai).Format("2006-01-02")
	}
	return x
}

func round(val float64, decimals int) float64 {
	if decimals <= 0 {
		return math.Round(val)
	}
	scale := math.Pow10(decimals)
	return math.Round(val*scale) / scale
}

func priceBounds(candles []market.Candle) (minVal, maxVal float64) {
	if len(candles) == 0 {
		return 0, 0
	}
	minVal = candles[0].Low
	maxVal = candles[0].High
	for _, c := range candles {
		if c.Low < minVal {
			minVal = c.Low
		}
		if c.High > maxVal {
			maxVal = c.High
		}
	}
	return minVal, maxVal
}
