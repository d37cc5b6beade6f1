package regression

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

const histogramBins = 30

// WriteDiagnostics renders trace and posterior-histogram charts for the
// named parameters (all parameters when none are given) to a
// self-contained HTML file.
func (m *BayesianModel) WriteDiagnostics(path string, params ...string) error {
	if !m.fitted {
		return ErrNotFitted
	}

	names := m.layout.names(m.featureNames, m.groupLevels)
	if len(params) == 0 {
		params = names
	}
	index := make(map[string]int, len(names))
	for i, n := range names {
		index[n] = i
	}

	page := components.NewPage()
	for _, p := range params {
		j, ok := index[p]
		if !ok {
			return fmt.Errorf("no sampled parameter named %q", p)
		}
		perChain := m.paramDraws(j)
		page.AddCharts(traceChart(p, perChain), posteriorChart(p, perChain))
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()
	return page.Render(io.MultiWriter(file))
}

func (m *BayesianModel) paramDraws(j int) [][]float64 {
	perChain := make([][]float64, len(m.trace.chains))
	for c, draws := range m.trace.chains {
		vals := make([]float64, len(draws))
		for d, theta := range draws {
			v := theta[j]
			if m.layout.isLogScale(j) {
				v = math.Exp(v)
			}
			vals[d] = v
		}
		perChain[c] = vals
	}
	return perChain
}

func traceChart(param string, perChain [][]float64) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: fmt.Sprintf("Trace: %s", param),
			},
		),
	)

	draws := make([]int, len(perChain[0]))
	for i := range draws {
		draws[i] = i
	}
	line.SetXAxis(draws)
	for c, vals := range perChain {
		data := make([]opts.LineData, 0, len(vals))
		for _, v := range vals {
			data = append(data, opts.LineData{Value: v})
		}
		line.AddSeries(fmt.Sprintf("chain %d", c), data)
	}
	return line
}

func posteriorChart(param string, perChain [][]float64) *charts.Bar {
	pooled := make([]float64, 0)
	for _, vals := range perChain {
		pooled = append(pooled, vals...)
	}

	lo, hi := pooled[0], pooled[0]
	for _, v := range pooled {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	width := (hi - lo) / histogramBins
	if width == 0 {
		width = 1
	}

	counts := make([]int, histogramBins)
	for _, v := range pooled {
		bin := int((v - lo) / width)
		if bin >= histogramBins {
			bin = histogramBins - 1
		}
		counts[bin]++
	}

	labels := make([]string, histogramBins)
	data := make([]opts.BarData, histogramBins)
	for i := range counts {
		labels[i] = fmt.Sprintf("%.2f", lo+(float64(i)+0.5)*width)
		data[i] = opts.BarData{Value: counts[i]}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: fmt.Sprintf("Posterior: %s", param),
			},
		),
	)
	bar.SetXAxis(labels)
	bar.AddSeries("draws", data)
	return bar
}
