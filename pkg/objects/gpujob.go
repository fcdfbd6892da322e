package objects

// GpuJobSpec is the desired state of a batch GPU job: parallelism is how
// many pods may run concurrently, completions is how many successful
// completions are required overall.
type GpuJobSpec struct {
	Parallelism int32       `json:"parallelism"`
	Completions int32       `json:"completions"`
	Template    PodTemplate `json:"template"`
}

// GpuJobStatus tracks the pod counts C8 maintains.
type GpuJobStatus struct {
	Active    int32 `json:"active"`
	Succeeded int32 `json:"succeeded"`
	Failed    int32 `json:"failed"`
}

// GpuJob is the batch-job analogue of ReplicaSet: it runs pods to
// completion rather than indefinitely.
type GpuJob struct {
	Metadata Metadata     `json:"metadata"`
	Spec     GpuJobSpec   `json:"spec"`
	Status   GpuJobStatus `json:"status"`
}

func (j *GpuJob) Kind() string           { return KindGpuJob }
func (j *GpuJob) GetMetadata() *Metadata { return &j.Metadata }
func (j *GpuJob) URI() string            { return uri(KindGpuJob, j.Metadata.Name) }

// Complete reports whether enough pods have succeeded.
func (j *GpuJob) Complete() bool {
	return j.Status.Succeeded >= j.Spec.Completions
}
