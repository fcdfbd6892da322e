package objects

// ServicePort maps an external port to the port the container listens on.
type ServicePort struct {
	Port       int32 `json:"port"`
	TargetPort int32 `json:"target_port"`
}

// ServiceSpec is the desired state of a service.
type ServiceSpec struct {
	Selector  map[string]string `json:"selector,omitempty"`
	Ports     []ServicePort      `json:"ports,omitempty"`
	ClusterIP string             `json:"cluster_ip,omitempty"`
}

// ServiceStatus holds the endpoint set maintained by C7.
type ServiceStatus struct {
	Endpoints []string `json:"endpoints,omitempty"`
}

// Service selects a set of pods by label and exposes their IPs as endpoints.
type Service struct {
	Metadata Metadata      `json:"metadata"`
	Spec     ServiceSpec   `json:"spec"`
	Status   ServiceStatus `json:"status"`
}

func (s *Service) Kind() string           { return KindService }
func (s *Service) GetMetadata() *Metadata { return &s.Metadata }
func (s *Service) URI() string            { return uri(KindService, s.Metadata.Name) }

// HasEndpoint reports whether ip is already recorded.
func (s *Service) HasEndpoint(ip string) bool {
	for _, e := range s.Status.Endpoints {
		if e == ip {
			return true
		}
	}
	return false
}
