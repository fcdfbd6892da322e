package scheduler

import (
	"context"
	"log/slog"
	"time"

	"k8s.io/client-go/util/workqueue"

	"github.com/costinm/minik8s/pkg/client"
	"github.com/costinm/minik8s/pkg/controller"
	"github.com/costinm/minik8s/pkg/metrics"
	"github.com/costinm/minik8s/pkg/objects"
)

// Controller consumes unscheduled-pod notifications and binds them to a
// node chosen by Algorithm.
type Controller struct {
	client *client.Client
	algo   Algorithm

	pods  *controller.Informer
	nodes *controller.Informer

	queue workqueue.RateLimitingInterface
	log   *slog.Logger

	metrics *metrics.Recorder
}

// New builds the scheduler controller. cl is used both to dial the pod/node
// informers and to write Bindings. rec may be nil.
func New(cl *client.Client, algo Algorithm, rec *metrics.Recorder, log *slog.Logger) *Controller {
	if log == nil {
		log = slog.Default()
	}
	c := &Controller{
		client:  cl,
		algo:    algo,
		queue:   controller.NewQueue("scheduler", controller.SchedulerBaseBackoff, controller.SchedulerMaxBackoff),
		log:     log,
		metrics: rec,
	}
	c.pods = controller.NewInformer(objects.KindPod, cl.ListerWatcherFor(objects.KindPod), controller.Handlers{
		OnAdd: func(ctx context.Context, obj objects.KubeObject) error {
			c.maybeEnqueue(obj.(*objects.Pod))
			return nil
		},
		OnUpdate: func(ctx context.Context, old, new objects.KubeObject) error {
			c.maybeEnqueue(new.(*objects.Pod))
			return nil
		},
	}, log)
	c.nodes = controller.NewInformer(objects.KindNode, cl.ListerWatcherFor(objects.KindNode), controller.Handlers{}, log)
	return c
}

func (c *Controller) maybeEnqueue(pod *objects.Pod) {
	if pod.IsScheduled() {
		return
	}
	c.queue.Add(pod.Metadata.Name)
}

// Run starts both informers and the reconcile worker; it blocks until ctx
// is canceled.
func (c *Controller) Run(ctx context.Context) {
	go c.pods.Run(ctx)
	go c.nodes.Run(ctx)
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
		c.reconcile(ctx, key.(string))
		if c.metrics != nil {
			c.metrics.Observe("scheduler", time.Since(start).Seconds(), nil)
		}
		c.queue.Done(key)
	}
}

func (c *Controller) reconcile(ctx context.Context, name string) {
	podKey := "/api/v1/pods/" + name
	obj, ok := c.pods.Get(podKey)
	if !ok {
		return // deleted since enqueue
	}
	pod := obj.(*objects.Pod)
	if pod.IsScheduled() {
		return
	}

	var nodes []*objects.Node
	for _, o := range c.nodes.Store() {
		nodes = append(nodes, o.(*objects.Node))
	}
	var pods []*objects.Pod
	for _, o := range c.pods.Store() {
		pods = append(pods, o.(*objects.Pod))
	}

	nodeName, err := c.algo.SelectNode(nodes, pods, pod)
	if err != nil {
		c.log.Info("no candidate node, requeueing", "pod", name)
		c.queue.AddRateLimited(name)
		return
	}

	binding := &objects.Binding{
		Metadata: objects.Metadata{Name: name},
		Target:   objects.ObjectReference{Kind: "Node", Name: nodeName},
	}
	if err := c.client.CreateBinding(ctx, binding); err != nil {
		c.log.Warn("binding write failed, requeueing", "pod", name, "node", nodeName, "err", err)
		c.queue.AddRateLimited(name)
		return
	}
	c.queue.Forget(name)
}
