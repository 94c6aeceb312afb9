package dashboard

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/Unaro/excel-analytics-sub001/dataset"
	"github.com/Unaro/excel-analytics-sub001/formula"
	"github.com/Unaro/excel-analytics-sub001/hierarchy"
	"github.com/Unaro/excel-analytics-sub001/metrics"
	"github.com/google/uuid"
	"github.com/guregu/null/v5"
	"golang.org/x/sync/errgroup"
	"hermannm.dev/devlog/log"
	"hermannm.dev/wrap"
)

const DefaultParallelism = 4

// Computer runs dashboard and group computations. Each call works on its own snapshot of rows and
// configuration, so a Computer may be shared between goroutines.
type Computer struct {
	resolver    metrics.Resolver
	formatter   Formatter
	parallelism int
	// Replaces evaluateGroup when set.
	groupEvaluator groupEvaluator
}

type groupEvaluator func(
	group metrics.IndicatorGroup,
	templates map[string]metrics.Template,
	rows []dataset.Row,
) (metrics.Results, map[string]error)

func NewComputer(sandbox *formula.Sandbox, formatter Formatter, parallelism int) Computer {
	if parallelism < 1 {
		parallelism = DefaultParallelism
	}
	return Computer{
		resolver:    metrics.NewResolver(sandbox),
		formatter:   formatter,
		parallelism: parallelism,
	}
}

// Compute filters the request's rows by its hierarchy path, evaluates every enabled group of the
// dashboard and maps the results onto the dashboard's virtual metrics. Only a request failing
// validation or a cancelled context fails the call: missing groups are skipped, and failing
// metrics and groups are reported inline in the response.
func (computer Computer) Compute(ctx context.Context, request Request) (Response, error) {
	start := time.Now()

	if err := ValidateRequest(request); err != nil {
		return Response{}, err
	}

	path := request.Filters
	if len(request.Levels) > 0 {
		navigator := hierarchy.NewNavigator(request.Levels)
		if !navigator.SetPath(path) {
			log.Warn("ignoring hierarchy filters that do not match the dashboard levels")
		}
		path = navigator.Path()
	}

	rows := hierarchy.FilterRows(request.Data, path)
	templates := metrics.IndexTemplates(request.MetricTemplates)

	groups := make(map[string]metrics.IndicatorGroup, len(request.AllGroups))
	for _, group := range request.AllGroups {
		groups[group.ID] = group
	}

	virtualMetrics := slices.Clone(request.VirtualMetrics)
	slices.SortStableFunc(virtualMetrics, func(a, b VirtualMetric) int {
		return cmp.Compare(a.Order, b.Order)
	})

	var configs []GroupInDashboard
	for _, config := range request.DashboardGroupsConfig {
		if config.Enabled {
			configs = append(configs, config)
		}
	}
	slices.SortStableFunc(configs, func(a, b GroupInDashboard) int {
		return cmp.Compare(a.Order, b.Order)
	})

	// One slot per group, nil for skipped groups
	results := make([]*GroupResult, len(configs))

	errGroup, ctx := errgroup.WithContext(ctx)
	errGroup.SetLimit(computer.parallelism)
	for i, config := range configs {
		group, ok := groups[config.GroupID]
		if !ok {
			log.Warn("skipping dashboard group without definition", slog.String("groupId", config.GroupID))
			continue
		}

		errGroup.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			result := computer.computeGroup(group, config, templates, virtualMetrics, rows)
			results[i] = &result
			return nil
		})
	}
	if err := errGroup.Wait(); err != nil {
		return Response{}, wrap.Error(err, "dashboard computation was cancelled")
	}

	response := Response{
		ID:               uuid.NewString(),
		HierarchyFilters: path,
		VirtualMetrics:   virtualMetrics,
		Groups:           make([]GroupResult, 0, len(results)),
		TotalRecords:     len(rows),
		ComputedAt:       time.Now().UTC(),
	}
	if response.HierarchyFilters == nil {
		response.HierarchyFilters = []hierarchy.FilterValue{}
	}
	if len(path) > 0 {
		activeFilter := path[len(path)-1]
		response.ActiveFilter = &activeFilter
	}
	for _, result := range results {
		if result != nil {
			response.Groups = append(response.Groups, *result)
		}
	}

	response.ComputationTime = millisecondsSince(start)
	return response, nil
}

// computeGroup evaluates one group and assembles its virtual metric values. A panic anywhere in
// the group degrades it to null values carrying the error.
func (computer Computer) computeGroup(
	group metrics.IndicatorGroup,
	config GroupInDashboard,
	templates map[string]metrics.Template,
	virtualMetrics []VirtualMetric,
	rows []dataset.Row,
) (result GroupResult) {
	result = GroupResult{
		GroupID:     group.ID,
		GroupName:   group.Name,
		RecordCount: len(rows),
		ComputedAt:  time.Now().UTC(),
	}

	defer func() {
		if recovered := recover(); recovered != nil {
			err := fmt.Errorf("group computation panicked: %v", recovered)
			log.ErrorCause(err, "failed to compute group", slog.String("groupId", group.ID))
			result.Error = err.Error()
			result.VirtualMetrics = failedVirtualMetrics(virtualMetrics, config, err)
		}
	}()

	evaluate := computer.evaluateGroup
	if computer.groupEvaluator != nil {
		evaluate = computer.groupEvaluator
	}
	values, errs := evaluate(group, templates, rows)

	result.VirtualMetrics = make([]VirtualMetricValue, 0, len(virtualMetrics))
	for _, virtualMetric := range virtualMetrics {
		result.VirtualMetrics = append(
			result.VirtualMetrics,
			computer.assembleVirtualMetric(virtualMetric, config, values, errs),
		)
	}
	return result
}

// evaluateGroup computes the group's metrics in dependency order. Metrics that fail are null, with
// the reason in errs.
func (computer Computer) evaluateGroup(
	group metrics.IndicatorGroup,
	templates map[string]metrics.Template,
	rows []dataset.Row,
) (values metrics.Results, errs map[string]error) {
	values = make(metrics.Results, len(group.Metrics))
	errs = make(map[string]error)

	ordered, cyclic := metrics.EvaluationOrder(group.Metrics, templates)
	for _, metric := range cyclic {
		values[metric.ID] = null.Float{}
		errs[metric.ID] = metrics.ErrCircularDependency
		log.Warn(
			"skipping metric with circular dependency",
			slog.String("groupId", group.ID),
			slog.String("metricId", metric.ID),
		)
	}

	for _, metric := range ordered {
		value, err := computer.resolveMetric(metric, templates, rows, values)
		values[metric.ID] = value
		if err != nil {
			errs[metric.ID] = err
			log.Debug(
				"metric evaluation failed",
				slog.String("groupId", group.ID),
				slog.String("metricId", metric.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	return values, errs
}

func (computer Computer) resolveMetric(
	metric metrics.GroupMetric,
	templates map[string]metrics.Template,
	rows []dataset.Row,
	prior metrics.Results,
) (value null.Float, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			value = null.Float{}
			err = fmt.Errorf("metric evaluation panicked: %v", recovered)
		}
	}()

	template, ok := templates[metric.TemplateID]
	if !ok {
		log.Warn(
			"metric refers to unknown template",
			slog.String("metricId", metric.ID),
			slog.String("templateId", metric.TemplateID),
		)
		return computer.resolver.Resolve(metric, nil, rows, prior)
	}
	return computer.resolver.Resolve(metric, &template, rows, prior)
}

func (computer Computer) assembleVirtualMetric(
	virtualMetric VirtualMetric,
	config GroupInDashboard,
	values metrics.Results,
	errs map[string]error,
) VirtualMetricValue {
	assembled := VirtualMetricValue{
		VirtualMetricID:   virtualMetric.ID,
		VirtualMetricName: virtualMetric.Name,
		FormattedValue:    NullDisplay,
	}

	metricID, bound := config.boundMetricID(virtualMetric.ID)
	if !bound {
		return assembled
	}
	assembled.SourceMetricID = metricID

	value, computed := values[metricID]
	if !computed {
		assembled.Error = fmt.Sprintf("metric '%s' not found in group", metricID)
		assembled.FormattedValue = ErrorDisplay
		return assembled
	}

	err := errs[metricID]
	if err != nil {
		assembled.Error = err.Error()
	}
	assembled.Value = value
	assembled.FormattedValue = computer.formatter.FormatResult(
		value,
		err != nil,
		virtualMetric.formatOptions(),
	)
	return assembled
}

func failedVirtualMetrics(
	virtualMetrics []VirtualMetric,
	config GroupInDashboard,
	err error,
) []VirtualMetricValue {
	failed := make([]VirtualMetricValue, 0, len(virtualMetrics))
	for _, virtualMetric := range virtualMetrics {
		metricID, _ := config.boundMetricID(virtualMetric.ID)
		failed = append(failed, VirtualMetricValue{
			VirtualMetricID:   virtualMetric.ID,
			VirtualMetricName: virtualMetric.Name,
			FormattedValue:    ErrorDisplay,
			SourceMetricID:    metricID,
			Error:             err.Error(),
		})
	}
	return failed
}

// ComputeGroup evaluates every metric of a single group against the filtered rows, formatting
// each value per its template.
func (computer Computer) ComputeGroup(ctx context.Context, request GroupRequest) (GroupResponse, error) {
	start := time.Now()

	if err := ValidateGroupRequest(request); err != nil {
		return GroupResponse{}, err
	}
	if err := ctx.Err(); err != nil {
		return GroupResponse{}, wrap.Error(err, "group computation was cancelled")
	}

	rows := hierarchy.FilterRows(request.Data, request.Filters)
	templates := metrics.IndexTemplates(request.MetricTemplates)
	values, errs := computer.evaluateGroup(request.Group, templates, rows)

	groupMetrics := slices.Clone(request.Group.Metrics)
	slices.SortStableFunc(groupMetrics, func(a, b metrics.GroupMetric) int {
		return cmp.Compare(a.Order, b.Order)
	})

	response := GroupResponse{
		GroupID:     request.Group.ID,
		GroupName:   request.Group.Name,
		Metrics:     make([]MetricValue, 0, len(groupMetrics)),
		RecordCount: len(rows),
		ComputedAt:  time.Now().UTC(),
	}

	for _, metric := range groupMetrics {
		metricValue := MetricValue{
			MetricID:   metric.ID,
			Name:       metric.Name,
			TemplateID: metric.TemplateID,
			Value:      values[metric.ID],
		}

		err := errs[metric.ID]
		if err != nil {
			metricValue.Error = err.Error()
		}

		template, hasTemplate := templates[metric.TemplateID]
		if metricValue.Name == "" {
			metricValue.Name = template.Name
		}
		metricValue.FormattedValue = computer.formatter.FormatResult(
			metricValue.Value,
			err != nil,
			FormatOptions{
				Format:        template.DisplayFormat,
				DecimalPlaces: template.DecimalPlaces,
				Unit:          template.Unit,
			},
		)
		if !hasTemplate && !metricValue.Value.Valid {
			metricValue.FormattedValue = ErrorDisplay
		}

		response.Metrics = append(response.Metrics, metricValue)
	}

	response.ComputationTime = millisecondsSince(start)
	return response, nil
}

func millisecondsSince(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}
