// Package gpujob implements C8: the Jobs analogue of C5 (§3's component
// table). A GpuJob runs pods to completion — up to spec.parallelism
// concurrently — until spec.completions pods have succeeded, rather than
// maintaining a steady-state replica count indefinitely.
package gpujob

import (
	"context"
	"log/slog"
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

// Controller reconciles GpuJobs.
type Controller struct {
	client *client.Client

	jobs *controller.Informer
	pods *controller.Informer

	queue workqueue.RateLimitingInterface
	log   *slog.Logger

	metrics *metrics.Recorder
}

// New builds the GpuJob controller. rec may be nil.
func New(cl *client.Client, rec *metrics.Recorder, log *slog.Logger) *Controller {
	if log == nil {
		log = slog.Default()
	}
	c := &Controller{
		client:  cl,
		queue:   controller.NewQueue("gpujob", requeueBaseBackoff, requeueMaxBackoff),
		log:     log,
		metrics: rec,
	}
	c.jobs = controller.NewInformer(objects.KindGpuJob, cl.ListerWatcherFor(objects.KindGpuJob), controller.Handlers{
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

func (c *Controller) enqueueOwner(pod *objects.Pod) {
	for _, o := range c.jobs.Store() {
		job := o.(*objects.GpuJob)
		if pod.Metadata.HasOwner(objects.KindGpuJob, job.Metadata.Name) {
			c.queue.Add(job.Metadata.Name)
			return
		}
	}
}

// Run starts both informers and the reconcile worker; it blocks until ctx
// is canceled.
func (c *Controller) Run(ctx context.Context) {
	go c.jobs.Run(ctx)
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
			c.metrics.Observe("gpujob", time.Since(start).Seconds(), err)
		}
		if err != nil {
			c.log.Warn("reconcile failed, requeueing", "gpujob", key, "err", err)
			c.queue.AddRateLimited(key)
		} else {
			c.queue.Forget(key)
		}
		c.queue.Done(key)
	}
}

func ownedPods(pods map[string]objects.KubeObject, job *objects.GpuJob) []*objects.Pod {
	var out []*objects.Pod
	for _, o := range pods {
		p := o.(*objects.Pod)
		if p.Metadata.HasOwner(objects.KindGpuJob, job.Metadata.Name) {
			out = append(out, p)
		}
	}
	return out
}

// reconcile counts owned pods by phase, creates at most one pod per call
// when completions remain outstanding and parallelism allows it (matching
// pkg/replicaset's one-mutation-per-reconcile shape; the ensuing watch
// event drives the next reconcile), and writes the job's status. A
// completed job (Succeeded >= Completions) creates nothing further.
func (c *Controller) reconcile(ctx context.Context, name string) error {
	obj, ok := c.jobs.Get("/api/v1/gpujobs/" + name)
	if !ok {
		return nil // deleted
	}
	job := obj.(*objects.GpuJob)

	owned := ownedPods(c.pods.Store(), job)

	var active, succeeded, failed int32
	for _, p := range owned {
		switch p.Status.Phase {
		case objects.PodSucceeded:
			succeeded++
		case objects.PodFailed:
			failed++
		default:
			active++
		}
	}

	if succeeded < job.Spec.Completions && active < job.Spec.Parallelism {
		if err := c.createPod(ctx, job); err != nil {
			return err
		}
		active++
	}

	newStatus := objects.GpuJobStatus{Active: active, Succeeded: succeeded, Failed: failed}
	if cmp.Equal(newStatus, job.Status) {
		return nil
	}
	updated := *job
	updated.Status = newStatus
	return c.client.Put(ctx, &updated)
}

func (c *Controller) createPod(ctx context.Context, job *objects.GpuJob) error {
	pod := &objects.Pod{
		Metadata: objects.Metadata{
			Name:   job.Metadata.Name + "-" + uuid.New().String()[:8],
			Labels: job.Spec.Template.Labels,
			OwnerReferences: []objects.OwnerReference{
				{Kind: objects.KindGpuJob, Name: job.Metadata.Name},
			},
		},
		Spec:   job.Spec.Template.Spec,
		Status: objects.PodStatus{Phase: objects.PodPending},
	}
	return c.client.Create(ctx, pod)
}
