package objects

// ObjectReference names a target object by kind and name.
type ObjectReference struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
}

// Binding is written once by the scheduler; its presence at
// /api/v1/bindings/<pod> is what triggers the store-side pod mutation that
// sets PodScheduled=true (§4.4).
type Binding struct {
	Metadata Metadata        `json:"metadata"`
	Target   ObjectReference `json:"target"`
}

func (b *Binding) Kind() string           { return KindBinding }
func (b *Binding) GetMetadata() *Metadata { return &b.Metadata }
func (b *Binding) URI() string            { return uri(KindBinding, b.Metadata.Name) }
