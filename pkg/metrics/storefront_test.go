package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestStorefrontMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewStorefrontMetrics(reg)

	metrics.IncCheckoutSubmission(OutcomeSuccess)
	metrics.IncCheckoutSubmission(OutcomeFailure)
	metrics.IncCheckoutSubmission(OutcomeFailure)
	metrics.ObserveOrderPlacement(OutcomeSuccess, 120*time.Millisecond)
	metrics.IncNotification(OutcomeSkipped)
	metrics.IncCartMutation("add")
	metrics.IncCartMutation("")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "storefront_checkout_submissions_total", "outcome", OutcomeFailure); err != nil {
		t.Fatalf("fetch failures: %v", err)
	} else if got != 2 {
		t.Fatalf("expected failure=2, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "storefront_order_notifications_total", "outcome", OutcomeSkipped); err != nil {
		t.Fatalf("fetch notifications: %v", err)
	} else if got != 1 {
		t.Fatalf("expected skipped=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "storefront_cart_mutations_total", "op", "unknown"); err != nil {
		t.Fatalf("fetch cart mutations: %v", err)
	} else if got != 1 {
		t.Fatalf("expected unknown op=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "storefront_order_placement_duration_seconds", "outcome", OutcomeSuccess); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestNilStorefrontMetricsIsSafe(t *testing.T) {
	var metrics *StorefrontMetrics
	metrics.IncCheckoutSubmission(OutcomeSuccess)
	metrics.ObserveOrderPlacement(OutcomeSuccess, time.Second)
	metrics.IncNotification(OutcomeFailure)
	metrics.IncCartMutation("clear")

	unregistered := NewStorefrontMetrics(nil)
	unregistered.IncCartMutation("add")
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
