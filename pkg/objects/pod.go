package objects

// PodPhase is the coarse lifecycle state of a pod.
type PodPhase string

const (
	PodPending   PodPhase = "Pending"
	PodRunning   PodPhase = "Running"
	PodSucceeded PodPhase = "Succeeded"
	PodFailed    PodPhase = "Failed"
)

// phaseRank orders phases for the ReplicaSet deletion-candidate sort (§4.5):
// Failed < Pending < Running < Succeeded.
var phaseRank = map[PodPhase]int{
	PodFailed:    0,
	PodPending:   1,
	PodRunning:   2,
	PodSucceeded: 3,
}

// PhaseRank returns the sort rank used when picking a pod to delete.
func PhaseRank(p PodPhase) int {
	if r, ok := phaseRank[p]; ok {
		return r
	}
	return len(phaseRank)
}

// ConditionType names a well-known pod condition.
type ConditionType string

const (
	PodScheduled   ConditionType = "PodScheduled"
	PodInitialized ConditionType = "Initialized"
	ContainersReady ConditionType = "ContainersReady"
	PodReady       ConditionType = "Ready"
)

// Port is a single container port mapping.
type Port struct {
	Name          string `json:"name,omitempty"`
	ContainerPort int32  `json:"container_port"`
}

// ResourceList is a bag of resource quantities, e.g. {"cpu": 500, "memory": 268435456}.
// Units follow the caller's convention (millicores for cpu, bytes for memory);
// the core loops only ever sum and divide them, never interpret units.
type ResourceList map[string]int64

// VolumeMount names a mount point inside a container.
type VolumeMount struct {
	Name      string `json:"name"`
	MountPath string `json:"mount_path"`
}

// Container is one entry in a pod's spec.
type Container struct {
	Name         string            `json:"name"`
	Image        string            `json:"image"`
	Ports        []Port            `json:"ports,omitempty"`
	Requests     ResourceList      `json:"requests,omitempty"`
	Limits       ResourceList      `json:"limits,omitempty"`
	VolumeMounts []VolumeMount     `json:"volume_mounts,omitempty"`
}

// ContainerState is the observed run state of one container.
type ContainerState string

const (
	ContainerWaiting    ContainerState = "Waiting"
	ContainerRunning    ContainerState = "Running"
	ContainerTerminated ContainerState = "Terminated"
)

// ContainerStatus mirrors the per-container detail the original tracks
// (resources/src/objects/pod.rs) beyond the bare phase.
type ContainerStatus struct {
	Name         string         `json:"name"`
	State        ContainerState `json:"state"`
	RestartCount int32          `json:"restart_count"`
	Ready        bool           `json:"ready"`
}

// Condition is a single boolean status, keyed by type in
// PodStatus.Conditions.
type Condition struct {
	Status bool `json:"status"`
}

// PodSpec is the desired state of a pod.
type PodSpec struct {
	Containers []Container `json:"containers"`
}

// PodStatus is the observed state of a pod, owned by the node agent and the
// object server's binding handler (for the PodScheduled condition only).
type PodStatus struct {
	Phase      PodPhase                      `json:"phase,omitempty"`
	PodIP      string                        `json:"pod_ip,omitempty"`
	HostIP     string                        `json:"host_ip,omitempty"`
	StartTime  int64                         `json:"start_time,omitempty"` // unix seconds
	Containers []ContainerStatus             `json:"container_statuses,omitempty"`
	Conditions map[ConditionType]Condition   `json:"conditions,omitempty"`
}

// ConditionTrue reports whether the named condition is present and true.
func (s *PodStatus) ConditionTrue(t ConditionType) bool {
	if s == nil || s.Conditions == nil {
		return false
	}
	return s.Conditions[t].Status
}

// Pod is the unit of scheduling and execution.
type Pod struct {
	Metadata Metadata  `json:"metadata"`
	Spec     PodSpec   `json:"spec"`
	Status   PodStatus `json:"status"`
}

func (p *Pod) Kind() string            { return KindPod }
func (p *Pod) GetMetadata() *Metadata  { return &p.Metadata }
func (p *Pod) URI() string             { return uri(KindPod, p.Metadata.Name) }

// IsScheduled reports whether the pod has a true PodScheduled condition.
func (p *Pod) IsScheduled() bool { return p.Status.ConditionTrue(PodScheduled) }

// IsReady reports whether the pod has a true Ready condition.
func (p *Pod) IsReady() bool { return p.Status.ConditionTrue(PodReady) }
