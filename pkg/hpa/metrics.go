// Package hpa implements C6: the Horizontal Pod Autoscaler controller —
// metric evaluation, stabilization, and scaling-rate envelopes (§4.6).
package hpa

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// MetricsSource is the seam onto the PromQL-style instant-query endpoint
// named in §6. A test double can substitute synthetic series without
// standing up an HTTP server.
type MetricsSource interface {
	// PodUsage returns, for the named resource (e.g. "cpu"), the observed
	// usage of every pod present in the sample, keyed by pod name. Pods
	// with no usage sample are simply absent from the map (§4.6 step 5's
	// "missing from the sample").
	PodUsage(ctx context.Context, resourceName string) (map[string]int64, error)
	// FunctionRequestRate returns function_requests_total's rate over the
	// last minute for the named function.
	FunctionRequestRate(ctx context.Context, functionName string) (float64, error)
}

// HTTPMetricsSource queries an instant-query endpoint shaped like the
// repo's existing metrics handler (§6): {data:{result:[{labels,value:[ts,"v"]}]}}.
type HTTPMetricsSource struct {
	BaseURL string
	HTTP    *http.Client
}

// NewHTTPMetricsSource builds a metrics client with the recommended 30s
// outbound timeout (§5).
func NewHTTPMetricsSource(baseURL string) *HTTPMetricsSource {
	return &HTTPMetricsSource{BaseURL: baseURL, HTTP: &http.Client{Timeout: 30 * time.Second}}
}

type queryResponse struct {
	Data struct {
		Result []struct {
			Labels map[string]string `json:"labels"`
			Value  [2]any            `json:"value"`
		} `json:"result"`
	} `json:"data"`
}

func (m *HTTPMetricsSource) instantQuery(ctx context.Context, query string) (*queryResponse, error) {
	u := m.BaseURL + "/api/v1/query?query=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := m.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("hpa: metrics query failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("hpa: metrics query %s: status %d", query, resp.StatusCode)
	}
	var out queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("hpa: decode metrics response: %w", err)
	}
	return &out, nil
}

// PodUsage keys each series by its container_label_minik8s_pod_name label
// and sums the series of one pod; container_label_minik8s_container_name is
// not read.
func (m *HTTPMetricsSource) PodUsage(ctx context.Context, resourceName string) (map[string]int64, error) {
	resp, err := m.instantQuery(ctx, resourceName)
	if err != nil {
		return nil, err
	}
	out := map[string]int64{}
	for _, series := range resp.Data.Result {
		pod := series.Labels["container_label_minik8s_pod_name"]
		if pod == "" {
			continue
		}
		v, err := parseSampleValue(series.Value)
		if err != nil {
			continue
		}
		out[pod] += v
	}
	return out, nil
}

// FunctionRequestRate queries the function_requests_total{function="..."}
// series named in §6.
func (m *HTTPMetricsSource) FunctionRequestRate(ctx context.Context, functionName string) (float64, error) {
	query := fmt.Sprintf(`rate(function_requests_total{function=%q}[1m])`, functionName)
	resp, err := m.instantQuery(ctx, query)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, series := range resp.Data.Result {
		v, err := parseSampleValue(series.Value)
		if err != nil {
			continue
		}
		total += float64(v)
	}
	return total, nil
}

func parseSampleValue(v [2]any) (int64, error) {
	s, ok := v[1].(string)
	if !ok {
		return 0, fmt.Errorf("hpa: unexpected sample value shape")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int64(f), nil
}
