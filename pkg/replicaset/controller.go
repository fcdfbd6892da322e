// Package replicaset implements C5: it drives a ReplicaSet's observed pod
// count toward its desired replica count and keeps its status current.
package replicaset

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"k8s.io/client-go/util/workqueue"

	"github.com/costinm/minik8s/pkg/client"
	"github.com/costinm/minik8s/pkg/controller"
	"github.com/costinm/minik8s/pkg/metrics"
	"github.com/costinm/minik8s/pkg/objects"
)

const requeueBaseBackoff = 500 * time.Millisecond
const requeueMaxBackoff = 30 * time.Second

// Controller reconciles ReplicaSets.
type Controller struct {
	client *client.Client

	rs   *controller.Informer
	pods *controller.Informer

	queue workqueue.RateLimitingInterface
	log   *slog.Logger

	metrics *metrics.Recorder
}

// New builds the ReplicaSet controller. rec may be nil, in which case
// reconcile outcomes are simply not recorded.
func New(cl *client.Client, rec *metrics.Recorder, log *slog.Logger) *Controller {
	if log == nil {
		log = slog.Default()
	}
	c := &Controller{
		client:  cl,
		queue:   controller.NewQueue("replicaset", requeueBaseBackoff, requeueMaxBackoff),
		log:     log,
		metrics: rec,
	}
	c.rs = controller.NewInformer(objects.KindReplicaSet, cl.ListerWatcherFor(objects.KindReplicaSet), controller.Handlers{
		OnAdd: func(ctx context.Context, obj objects.KubeObject) error {
			c.queue.Add(obj.GetMetadata().Name)
			return nil
		},
		OnUpdate: func(ctx context.Context, old, new objects.KubeObject) error {
			c.queue.Add(new.GetMetadata().Name)
			return nil
		},
	}, log)
	c.pods = controller.NewInformer(objects.KindPod, cl.ListerWatcherFor(objects.KindPod), controller.Handlers{
		OnAdd: func(ctx context.Context, obj objects.KubeObject) error {
			c.enqueueOwner(obj.(*objects.Pod))
			return nil
		},
		OnUpdate: func(ctx context.Context, old, new objects.KubeObject) error {
			c.enqueueOwner(new.(*objects.Pod))
			return nil
		},
		OnDelete: func(ctx context.Context, obj objects.KubeObject) error {
			c.enqueueOwner(obj.(*objects.Pod))
			return nil
		},
	}, log)
	return c
}

// enqueueOwner resolves the pod's single ReplicaSet owner (I3) and enqueues
// it; a pod with zero or more than one matching owner is skipped (DEBUG
// "not owned by any RS" per §7 — multiple owners is an invariant violation,
// never fatal).
func (c *Controller) enqueueOwner(pod *objects.Pod) {
	var owner string
	matches := 0
	for _, o := range c.rs.Store() {
		rs := o.(*objects.ReplicaSet)
		if isOwnedBy(pod, rs) {
			owner = rs.Metadata.Name
			matches++
		}
	}
	if matches != 1 {
		c.log.Debug("pod not owned by exactly one RS, skipping", "pod", pod.Metadata.Name, "matches", matches)
		return
	}
	c.queue.Add(owner)
}

func isOwnedBy(pod *objects.Pod, rs *objects.ReplicaSet) bool {
	return pod.Metadata.HasOwner(objects.KindReplicaSet, rs.Metadata.Name) &&
		pod.Metadata.LabelsSupersetOf(rs.Spec.Selector)
}

// Run starts both informers and the reconcile worker; it blocks until ctx
// is canceled.
func (c *Controller) Run(ctx context.Context) {
	go c.rs.Run(ctx)
	go c.pods.Run(ctx)
	go c.worker(ctx)
	<-ctx.Done()
	c.queue.ShutDown()
}

func (c *Controller) worker(ctx context.Context) {
	for {
		key, shutdown := c.queue.Get()
		if shutdown {
			return
		}
		start := time.Now()
		err := c.reconcile(ctx, key.(string))
		if c.metrics != nil {
			c.metrics.Observe("replicaset", time.Since(start).Seconds(), err)
		}
		if err != nil {
			c.log.Warn("reconcile failed, requeueing", "rs", key, "err", err)
			c.queue.AddRateLimited(key)
		} else {
			c.queue.Forget(key)
		}
		c.queue.Done(key)
	}
}

func ownedPods(pods map[string]objects.KubeObject, rs *objects.ReplicaSet) []*objects.Pod {
	var out []*objects.Pod
	for _, o := range pods {
		p := o.(*objects.Pod)
		if isOwnedBy(p, rs) {
			out = append(out, p)
		}
	}
	return out
}

// reconcile implements §4.5: at most one pod create/delete per call, plus
// an idempotent status write gated by equality (R3).
func (c *Controller) reconcile(ctx context.Context, name string) error {
	obj, ok := c.rs.Get("/api/v1/replicasets/" + name)
	if !ok {
		return nil // deleted
	}
	rs := obj.(*objects.ReplicaSet)

	owned := ownedPods(c.pods.Store(), rs)

	switch {
	case int32(len(owned)) < rs.Spec.Replicas:
		if err := c.createPod(ctx, rs); err != nil {
			return err
		}
	case int32(len(owned)) > rs.Spec.Replicas:
		victim := pickDeletionCandidate(owned)
		if err := c.client.Delete(ctx, objects.KindPod, victim.Metadata.Name); err != nil {
			return err
		}
	}

	return c.updateStatus(ctx, rs, owned)
}

func (c *Controller) createPod(ctx context.Context, rs *objects.ReplicaSet) error {
	pod := &objects.Pod{
		Metadata: objects.Metadata{
			Name:   rs.Metadata.Name + "-" + uuid.New().String()[:8],
			Labels: rs.Spec.Template.Labels,
			OwnerReferences: []objects.OwnerReference{
				{Kind: objects.KindReplicaSet, Name: rs.Metadata.Name},
			},
		},
		Spec:   rs.Spec.Template.Spec,
		Status: objects.PodStatus{Phase: objects.PodPending},
	}
	return c.client.Create(ctx, pod)
}

// pickDeletionCandidate implements the rank in §4.5: phase order, then
// not-ready before ready, then earliest start_time first. Preserved as
// specified even though it contradicts typical "delete youngest first"
// semantics — see DESIGN NOTES §9's open question on this exact point.
func pickDeletionCandidate(pods []*objects.Pod) *objects.Pod {
	sorted := append([]*objects.Pod(nil), pods...)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if ra, rb := objects.PhaseRank(a.Status.Phase), objects.PhaseRank(b.Status.Phase); ra != rb {
			return ra < rb
		}
		if a.IsReady() != b.IsReady() {
			return !a.IsReady() // not-ready sorts first
		}
		return a.Status.StartTime < b.Status.StartTime
	})
	return sorted[0]
}

func (c *Controller) updateStatus(ctx context.Context, rs *objects.ReplicaSet, owned []*objects.Pod) error {
	var ready int32
	for _, p := range owned {
		if p.IsReady() {
			ready++
		}
	}
	newStatus := objects.ReplicaSetStatus{Replicas: int32(len(owned)), ReadyReplicas: ready}
	if cmp.Equal(newStatus, rs.Status) {
		return nil
	}
	updated := *rs
	updated.Status = newStatus
	return c.client.Put(ctx, &updated)
}
