package objects

// Function, Ingress and Workflow are present in the repo and exercised by
// the generic store/informer layer, but carry no core control-loop logic
// (§3): the object server stores and watches them like any other kind, and
// the serverless activation-on-demand path, the ingress NGINX config
// writer, and workflow orchestration are external collaborators (§1).

// FunctionSpec is the desired state of a serverless function.
type FunctionSpec struct {
	Image       string            `json:"image"`
	Port        int32             `json:"port"`
	MinReplicas int32             `json:"min_replicas"`
	MaxReplicas int32             `json:"max_replicas"`
	Env         map[string]string `json:"env,omitempty"`
}

// FunctionStatus is the observed state of a function, driven externally.
type FunctionStatus struct {
	Replicas int32 `json:"replicas"`
}

type Function struct {
	Metadata Metadata       `json:"metadata"`
	Spec     FunctionSpec   `json:"spec"`
	Status   FunctionStatus `json:"status"`
}

func (f *Function) Kind() string           { return KindFunction }
func (f *Function) GetMetadata() *Metadata { return &f.Metadata }
func (f *Function) URI() string            { return uri(KindFunction, f.Metadata.Name) }

// IngressRule maps a host/path pair to a backend service.
type IngressRule struct {
	Host    string `json:"host"`
	Path    string `json:"path"`
	Service string `json:"service"`
	Port    int32  `json:"port"`
}

type IngressSpec struct {
	Rules []IngressRule `json:"rules,omitempty"`
}

type Ingress struct {
	Metadata Metadata    `json:"metadata"`
	Spec     IngressSpec `json:"spec"`
}

func (i *Ingress) Kind() string           { return KindIngress }
func (i *Ingress) GetMetadata() *Metadata { return &i.Metadata }
func (i *Ingress) URI() string            { return uri(KindIngress, i.Metadata.Name) }

// WorkflowStep names one step of a Workflow DAG.
type WorkflowStep struct {
	Name      string   `json:"name"`
	Job       string   `json:"job"`
	DependsOn []string `json:"depends_on,omitempty"`
}

type WorkflowSpec struct {
	Steps []WorkflowStep `json:"steps,omitempty"`
}

type WorkflowStatus struct {
	Completed []string `json:"completed,omitempty"`
}

type Workflow struct {
	Metadata Metadata       `json:"metadata"`
	Spec     WorkflowSpec   `json:"spec"`
	Status   WorkflowStatus `json:"status"`
}

func (w *Workflow) Kind() string           { return KindWorkflow }
func (w *Workflow) GetMetadata() *Metadata { return &w.Metadata }
func (w *Workflow) URI() string            { return uri(KindWorkflow, w.Metadata.Name) }
