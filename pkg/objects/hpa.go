package objects

// MetricSourceType discriminates the two metric kinds an HPA can target.
type MetricSourceType string

const (
	MetricResource MetricSourceType = "Resource"
	MetricFunction MetricSourceType = "Function"
)

// ResourceMetricKind distinguishes utilization-based from raw-value-based
// resource targets (§4.6 step 5).
type ResourceMetricKind string

const (
	AverageUtilization ResourceMetricKind = "AverageUtilization"
	AverageValue       ResourceMetricKind = "AverageValue"
)

// MetricSpec names one metric an HPA is driven by. Exactly one of the
// Resource/Function fields is meaningful, selected by Type.
type MetricSpec struct {
	Type MetricSourceType `json:"type"`

	// Resource fields (Type == Resource).
	ResourceName string             `json:"resource_name,omitempty"`
	ResourceKind ResourceMetricKind `json:"resource_kind,omitempty"`
	Target       int64              `json:"target,omitempty"` // percent for AverageUtilization, raw units for AverageValue

	// Function fields (Type == Function).
	FunctionName string `json:"function_name,omitempty"`
	TargetQPS    int64  `json:"target_qps,omitempty"`
}

// PolicyType names the unit a scaling policy bounds change in.
type PolicyType string

const (
	PolicyPods    PolicyType = "Pods"
	PolicyPercent PolicyType = "Percent"
)

// ScalingPolicy bounds replica change over a trailing period.
type ScalingPolicy struct {
	Type          PolicyType `json:"type"`
	Value         int64      `json:"value"`
	PeriodSeconds int64      `json:"period_seconds"`
}

// SelectPolicy picks how multiple scaling policies combine.
type SelectPolicy string

const (
	SelectMin      SelectPolicy = "Min"
	SelectMax      SelectPolicy = "Max"
	SelectDisabled SelectPolicy = "Disabled"
)

// HPAScalingRules is one direction (up or down) of HPA.spec.behavior.
type HPAScalingRules struct {
	Policies                   []ScalingPolicy `json:"policies,omitempty"`
	SelectPolicy               SelectPolicy    `json:"select_policy,omitempty"`
	StabilizationWindowSeconds int64           `json:"stabilization_window_seconds,omitempty"`
}

// HPABehavior groups the scale-up and scale-down rule sets.
type HPABehavior struct {
	ScaleUp   HPAScalingRules `json:"scale_up"`
	ScaleDown HPAScalingRules `json:"scale_down"`
}

// HPASpec is the desired autoscaling configuration.
type HPASpec struct {
	ScaleTargetRef  ObjectReference `json:"scale_target_ref"`
	MinReplicas     int32           `json:"min_replicas"`
	MaxReplicas     int32           `json:"max_replicas"`
	Metric          MetricSpec      `json:"metric"`
	Behavior        HPABehavior     `json:"behavior"`
}

// HPAStatus is maintained by C6 (I5).
type HPAStatus struct {
	CurrentReplicas int32 `json:"current_replicas"`
	DesiredReplicas int32 `json:"desired_replicas"`
	LastScaleTime   int64 `json:"last_scale_time,omitempty"` // unix seconds
}

// HorizontalPodAutoscaler evaluates metrics and scales a target ReplicaSet.
type HorizontalPodAutoscaler struct {
	Metadata Metadata  `json:"metadata"`
	Spec     HPASpec   `json:"spec"`
	Status   HPAStatus `json:"status"`
}

func (h *HorizontalPodAutoscaler) Kind() string           { return KindHPA }
func (h *HorizontalPodAutoscaler) GetMetadata() *Metadata { return &h.Metadata }
func (h *HorizontalPodAutoscaler) URI() string            { return uri(KindHPA, h.Metadata.Name) }
