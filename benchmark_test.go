package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"testing"

	"github.com/Unaro/excel-analytics-sub001/csv"
	"github.com/Unaro/excel-analytics-sub001/dashboard"
	"github.com/Unaro/excel-analytics-sub001/dataset"
	"github.com/Unaro/excel-analytics-sub001/formula"
	"github.com/Unaro/excel-analytics-sub001/hierarchy"
	"github.com/Unaro/excel-analytics-sub001/metrics"
	"golang.org/x/text/language"
	"hermannm.dev/devlog"
	"hermannm.dev/wrap"
)

const benchmarkRows = 50_000

var (
	benchmarkData = generateRows(benchmarkRows)

	benchmarkLevels = []hierarchy.Level{
		{ID: "l-region", ColumnName: "region", Order: 0},
		{ID: "l-city", ColumnName: "city", Order: 1},
		{ID: "l-store", ColumnName: "store", Order: 2},
	}

	benchmarkTemplates = []metrics.Template{
		{
			ID:                "t-sum",
			Type:              metrics.TemplateTypeAggregate,
			AggregateFunction: metrics.AggregateSum,
			AggregateField:    "field",
		},
		{
			ID:                "t-median",
			Type:              metrics.TemplateTypeAggregate,
			AggregateFunction: metrics.AggregateMedian,
			AggregateField:    "field",
		},
		{
			ID:      "t-ratio",
			Type:    metrics.TemplateTypeCalculated,
			Formula: "round(part / total * 100, 1)",
		},
	}
)

// Sets up logger before running tests. Warnings only, so that benchmarks are not dominated by log
// output.
func TestMain(m *testing.M) {
	logHandler := devlog.NewHandler(os.Stdout, &devlog.Options{Level: slog.LevelWarn})
	slog.SetDefault(slog.New(logHandler))

	os.Exit(m.Run())
}

func BenchmarkComputeDashboard(b *testing.B) {
	computer := newBenchmarkComputer(b)
	request := newBenchmarkRequest()

	b.ResetTimer()
	for range b.N {
		if _, err := computer.Compute(context.Background(), request); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkConcurrentComputations(b *testing.B) {
	const concurrentComputations = 64

	computer := newBenchmarkComputer(b)
	request := newBenchmarkRequest()

	// Divides by GOMAXPROCS, since SetParallelism multiplies its argument by GOMAXPROCS, and we
	// want exactly concurrentComputations number of concurrent computations
	b.SetParallelism(max(concurrentComputations/runtime.GOMAXPROCS(0), 1))

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := computer.Compute(context.Background(), request); err != nil {
				b.Fatal(err)
			}
		}
	})
}

func BenchmarkBuildHierarchyLevels(b *testing.B) {
	paths := [][]hierarchy.FilterValue{
		nil,
		{{LevelID: "l-region", LevelIndex: 0, ColumnName: "region", Value: "region-3"}},
		{
			{LevelID: "l-region", LevelIndex: 0, ColumnName: "region", Value: "region-3"},
			{LevelID: "l-city", LevelIndex: 1, ColumnName: "city", Value: "city-13"},
		},
	}

	for depth, path := range paths {
		b.Run(fmt.Sprintf("depth_%d", depth), func(b *testing.B) {
			request := hierarchy.Request{
				Levels:        benchmarkLevels,
				ParentFilters: path,
				CountChildren: true,
			}

			for range b.N {
				if _, err := hierarchy.Build(benchmarkData, request, language.English); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkReadCSVDataset(b *testing.B) {
	var file strings.Builder
	file.WriteString("region;city;store;revenue;cost\n")
	for _, row := range benchmarkData {
		fmt.Fprintf(
			&file,
			"%s;%s;%s;%v;%v\n",
			row["region"],
			row["city"],
			row["store"],
			row["revenue"],
			row["cost"],
		)
	}
	content := []byte(file.String())

	b.SetBytes(int64(len(content)))
	b.ResetTimer()
	for range b.N {
		schema, rows, err := csv.ReadDataset(bytes.NewReader(content))
		if err != nil {
			b.Fatal(wrap.Error(err, "failed to read generated CSV"))
		}
		if len(rows) != benchmarkRows || len(schema.Columns) != 5 {
			b.Fatalf("read %d rows with %d columns", len(rows), len(schema.Columns))
		}
	}
}

func generateRows(count int) []dataset.Row {
	rows := make([]dataset.Row, count)
	for i := range count {
		region := i % 7
		city := i % 31
		rows[i] = dataset.Row{
			"region":  fmt.Sprintf("region-%d", region),
			"city":    fmt.Sprintf("city-%d", city),
			"store":   fmt.Sprintf("store-%d", i%211),
			"revenue": float64(i%1000) + 0.5,
			"cost":    int64(i % 300),
		}
	}
	return rows
}

func newBenchmarkComputer(b *testing.B) dashboard.Computer {
	sandbox, err := formula.NewSandbox(formula.DefaultCacheSize)
	if err != nil {
		b.Fatal(err)
	}
	formatter, err := dashboard.NewFormatter(language.Russian, "RUB")
	if err != nil {
		b.Fatal(err)
	}
	return dashboard.NewComputer(sandbox, formatter, runtime.GOMAXPROCS(0))
}

func newBenchmarkRequest() dashboard.Request {
	request := dashboard.Request{
		Data:            benchmarkData,
		MetricTemplates: benchmarkTemplates,
		VirtualMetrics: []dashboard.VirtualMetric{
			{ID: "vm-revenue", Name: "Revenue", DisplayFormat: metrics.DisplayFormatCurrency},
			{ID: "vm-median", Name: "Median cost", DisplayFormat: metrics.DisplayFormatDecimal},
			{ID: "vm-share", Name: "Cost share", DisplayFormat: metrics.DisplayFormatPercent},
		},
		Filters: []hierarchy.FilterValue{
			{LevelID: "l-region", LevelIndex: 0, ColumnName: "region", Value: "region-2"},
		},
		Levels: benchmarkLevels,
	}

	for i := range 10 {
		groupID := fmt.Sprintf("g%d", i)
		request.AllGroups = append(request.AllGroups, metrics.IndicatorGroup{
			ID:   groupID,
			Name: fmt.Sprintf("Group %d", i),
			Metrics: []metrics.GroupMetric{
				{
					ID:            "revenue",
					TemplateID:    "t-sum",
					Order:         0,
					FieldBindings: bindField("revenue"),
				},
				{
					ID:            "cost",
					TemplateID:    "t-sum",
					Order:         1,
					FieldBindings: bindField("cost"),
				},
				{
					ID:            "median-cost",
					TemplateID:    "t-median",
					Order:         2,
					FieldBindings: bindField("cost"),
				},
				{
					ID:         "share",
					TemplateID: "t-ratio",
					Order:      3,
					MetricBindings: []metrics.MetricBinding{
						{MetricAlias: "part", MetricID: "cost"},
						{MetricAlias: "total", MetricID: "revenue"},
					},
				},
			},
		})
		request.DashboardGroupsConfig = append(
			request.DashboardGroupsConfig,
			dashboard.GroupInDashboard{
				GroupID: groupID,
				Enabled: true,
				Order:   i,
				VirtualMetricBindings: []dashboard.VirtualMetricBinding{
					{VirtualMetricID: "vm-revenue", MetricID: "revenue"},
					{VirtualMetricID: "vm-median", MetricID: "median-cost"},
					{VirtualMetricID: "vm-share", MetricID: "share"},
				},
			},
		)
	}

	return request
}

func bindField(column string) []metrics.FieldBinding {
	return []metrics.FieldBinding{{FieldAlias: "field", ColumnName: column}}
}
