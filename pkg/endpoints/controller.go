// Package endpoints implements C7: it keeps each service's endpoint set in
// sync with the IPs of the pods matching its selector.
package endpoints

import (
	"context"
	"log/slog"
	"time"

	"github.com/costinm/minik8s/pkg/client"
	"github.com/costinm/minik8s/pkg/controller"
	"github.com/costinm/minik8s/pkg/metrics"
	"github.com/costinm/minik8s/pkg/objects"
)

// itemKind discriminates the merged work queue's typed union (§4.7's
// Pod{Add|Update|Delete} | Service{Add}).
type itemKind int

const (
	podAdd itemKind = iota
	podUpdate
	podDelete
	serviceAdd
)

type workItem struct {
	kind    itemKind
	pod     *objects.Pod
	oldPod  *objects.Pod
	service *objects.Service
}

// queueCap bounds the merged queue, matching the "capacity 16" rule in §5.
const queueCap = 16

// Controller maintains service endpoint sets.
type Controller struct {
	client *client.Client

	services *controller.Informer
	pods     *controller.Informer

	queue chan workItem
	log   *slog.Logger

	metrics *metrics.Recorder
}

// New builds the endpoints controller. rec may be nil.
func New(cl *client.Client, rec *metrics.Recorder, log *slog.Logger) *Controller {
	if log == nil {
		log = slog.Default()
	}
	c := &Controller{
		client:  cl,
		queue:   make(chan workItem, queueCap),
		log:     log,
		metrics: rec,
	}
	c.services = controller.NewInformer(objects.KindService, cl.ListerWatcherFor(objects.KindService), controller.Handlers{
		OnAdd: func(ctx context.Context, obj objects.KubeObject) error {
			return c.enqueue(ctx, workItem{kind: serviceAdd, service: obj.(*objects.Service)})
		},
	}, log)
	c.pods = controller.NewInformer(objects.KindPod, cl.ListerWatcherFor(objects.KindPod), controller.Handlers{
		OnAdd: func(ctx context.Context, obj objects.KubeObject) error {
			return c.enqueue(ctx, workItem{kind: podAdd, pod: obj.(*objects.Pod)})
		},
		OnUpdate: func(ctx context.Context, old, new objects.KubeObject) error {
			return c.enqueue(ctx, workItem{kind: podUpdate, pod: new.(*objects.Pod), oldPod: old.(*objects.Pod)})
		},
		OnDelete: func(ctx context.Context, obj objects.KubeObject) error {
			return c.enqueue(ctx, workItem{kind: podDelete, pod: obj.(*objects.Pod)})
		},
	}, log)
	return c
}

func (c *Controller) enqueue(ctx context.Context, item workItem) error {
	select {
	case c.queue <- item:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run starts both informers and the reconcile worker; it blocks until ctx
// is canceled.
func (c *Controller) Run(ctx context.Context) {
	go c.services.Run(ctx)
	go c.pods.Run(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case item := <-c.queue:
			start := time.Now()
			c.process(ctx, item)
			if c.metrics != nil {
				c.metrics.Observe("endpoints", time.Since(start).Seconds(), nil)
			}
		}
	}
}

func (c *Controller) process(ctx context.Context, item workItem) {
	switch item.kind {
	case podAdd:
		c.onPodAdd(ctx, item.pod)
	case podUpdate:
		if item.oldPod.Status.PodIP != item.pod.Status.PodIP {
			c.onPodDelete(ctx, item.oldPod)
			c.onPodAdd(ctx, item.pod)
		}
	case podDelete:
		c.onPodDelete(ctx, item.pod)
	case serviceAdd:
		c.onServiceAdd(ctx, item.service)
	}
}

func (c *Controller) servicesSnapshot() []*objects.Service {
	var out []*objects.Service
	for _, o := range c.services.Store() {
		out = append(out, o.(*objects.Service))
	}
	return out
}

func (c *Controller) onPodAdd(ctx context.Context, pod *objects.Pod) {
	if pod.Status.PodIP == "" {
		return
	}
	for _, svc := range c.servicesSnapshot() {
		if !pod.Metadata.LabelsSupersetOf(svc.Spec.Selector) {
			continue
		}
		if svc.HasEndpoint(pod.Status.PodIP) {
			continue
		}
		updated := *svc
		updated.Status.Endpoints = append(append([]string(nil), svc.Status.Endpoints...), pod.Status.PodIP)
		if err := c.client.Put(ctx, &updated); err != nil {
			c.log.Warn("endpoints add failed", "service", svc.Metadata.Name, "ip", pod.Status.PodIP, "err", err)
		}
	}
}

func (c *Controller) onPodDelete(ctx context.Context, pod *objects.Pod) {
	if pod.Status.PodIP == "" {
		return
	}
	for _, svc := range c.servicesSnapshot() {
		if !pod.Metadata.LabelsSupersetOf(svc.Spec.Selector) {
			continue
		}
		if !svc.HasEndpoint(pod.Status.PodIP) {
			continue
		}
		updated := *svc
		updated.Status.Endpoints = removeIP(svc.Status.Endpoints, pod.Status.PodIP)
		if err := c.client.Put(ctx, &updated); err != nil {
			c.log.Warn("endpoints remove failed", "service", svc.Metadata.Name, "ip", pod.Status.PodIP, "err", err)
		}
	}
}

func (c *Controller) onServiceAdd(ctx context.Context, svc *objects.Service) {
	endpoints := append([]string(nil), svc.Status.Endpoints...)
	changed := false
	for _, o := range c.pods.Store() {
		pod := o.(*objects.Pod)
		if pod.Status.PodIP == "" {
			continue
		}
		if !pod.Metadata.LabelsSupersetOf(svc.Spec.Selector) {
			continue
		}
		if containsIP(endpoints, pod.Status.PodIP) {
			continue
		}
		endpoints = append(endpoints, pod.Status.PodIP)
		changed = true
	}
	if !changed {
		return
	}
	updated := *svc
	updated.Status.Endpoints = endpoints
	if err := c.client.Put(ctx, &updated); err != nil {
		c.log.Warn("endpoints init failed", "service", svc.Metadata.Name, "err", err)
	}
}

func containsIP(ips []string, ip string) bool {
	for _, e := range ips {
		if e == ip {
			return true
		}
	}
	return false
}

func removeIP(ips []string, ip string) []string {
	out := make([]string, 0, len(ips))
	for _, e := range ips {
		if e != ip {
			out = append(out, e)
		}
	}
	return out
}
