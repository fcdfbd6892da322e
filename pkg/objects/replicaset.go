package objects

// PodTemplate is the spec stamped onto every pod a ReplicaSet (or GpuJob)
// creates.
type PodTemplate struct {
	Labels map[string]string `json:"labels,omitempty"`
	Spec   PodSpec           `json:"spec"`
}

// ReplicaSetSpec is the desired state of a ReplicaSet.
type ReplicaSetSpec struct {
	Selector map[string]string `json:"selector"`
	Template PodTemplate       `json:"template"`
	Replicas int32             `json:"replicas"`
}

// ReplicaSetStatus is maintained by C5.
type ReplicaSetStatus struct {
	Replicas      int32 `json:"replicas"`
	ReadyReplicas int32 `json:"ready_replicas"`
}

// ReplicaSet reconciles a desired pod count.
type ReplicaSet struct {
	Metadata Metadata         `json:"metadata"`
	Spec     ReplicaSetSpec   `json:"spec"`
	Status   ReplicaSetStatus `json:"status"`
}

func (r *ReplicaSet) Kind() string           { return KindReplicaSet }
func (r *ReplicaSet) GetMetadata() *Metadata { return &r.Metadata }
func (r *ReplicaSet) URI() string            { return uri(KindReplicaSet, r.Metadata.Name) }
