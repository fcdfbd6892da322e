package hpa

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/go-cmp/cmp"
	"k8s.io/apimachinery/pkg/util/wait"

	"github.com/costinm/minik8s/pkg/client"
	"github.com/costinm/minik8s/pkg/controller"
	"github.com/costinm/minik8s/pkg/metrics"
	"github.com/costinm/minik8s/pkg/objects"
)

// Controller implements C6: it evaluates every HorizontalPodAutoscaler on
// a fixed period, computes a raw desired replica count, stabilizes it
// against recent history, clamps it through the scaling-rate envelope and
// the min/max bounds, and writes the target ReplicaSet's replica count
// plus the HPA's own status (§4.6).
type Controller struct {
	client  *client.Client
	metrics MetricsSource

	hpas *controller.Informer
	pods *controller.Informer

	syncPeriod time.Duration
	log        *slog.Logger

	mu        sync.Mutex
	histories map[string]*history

	recorder *metrics.Recorder
}

// New builds the HPA controller. rec may be nil.
func New(cl *client.Client, ms MetricsSource, syncPeriod time.Duration, rec *metrics.Recorder, log *slog.Logger) *Controller {
	if log == nil {
		log = slog.Default()
	}
	c := &Controller{
		client:     cl,
		metrics:    ms,
		syncPeriod: syncPeriod,
		log:        log,
		histories:  map[string]*history{},
		recorder:   rec,
	}
	c.hpas = controller.NewInformer(objects.KindHPA, cl.ListerWatcherFor(objects.KindHPA), controller.Handlers{}, log)
	c.pods = controller.NewInformer(objects.KindPod, cl.ListerWatcherFor(objects.KindPod), controller.Handlers{}, log)
	return c
}

// Run starts the backing informers and the periodic evaluation loop; it
// blocks until ctx is canceled.
func (c *Controller) Run(ctx context.Context) {
	go c.hpas.Run(ctx)
	go c.pods.Run(ctx)

	// wait.UntilWithContext runs syncAll immediately, then every syncPeriod,
	// returning as soon as ctx is canceled (§4.6's SYNC_PERIOD tick).
	wait.UntilWithContext(ctx, c.syncAll, c.syncPeriod)
}

func (c *Controller) syncAll(ctx context.Context) {
	for _, o := range c.hpas.Store() {
		hpa := o.(*objects.HorizontalPodAutoscaler)
		start := time.Now()
		err := c.reconcile(ctx, hpa)
		if c.recorder != nil {
			c.recorder.Observe("hpa", time.Since(start).Seconds(), err)
		}
		if err != nil {
			c.log.Warn("hpa reconcile failed", "hpa", hpa.Metadata.Name, "err", err)
		}
	}
}

func (c *Controller) historyFor(name string) *history {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.histories[name]
	if !ok {
		h = &history{}
		c.histories[name] = h
	}
	return h
}

// ownedPods returns the pods belonging to the HPA's scale target: pods with
// an owner reference naming the target ReplicaSet. Unlike the replicaset
// controller's ownership check, the ReplicaSet's selector is not matched.
func (c *Controller) ownedPods(targetName string) []*objects.Pod {
	var out []*objects.Pod
	for _, o := range c.pods.Store() {
		p := o.(*objects.Pod)
		if p.Metadata.HasOwner(objects.KindReplicaSet, targetName) {
			out = append(out, p)
		}
	}
	return out
}

// reconcile implements the nine-step sequence in §4.6:
//  1. read the target's current replica count
//  2. B1: scaling is a no-op when current is 0 (scale-from-zero is out of
//     scope)
//  3. sample metrics and compute raw_desired
//  4. B4: cancel on a missing-sample direction flip
//  5. stabilize against history
//  6. clamp through the scaling-rate envelope
//  7. clamp to [MinReplicas, MaxReplicas] — B2: a policy's envelope bound
//     never widens past MaxReplicas, the hard clamp always wins last
//  8. write the target's new replica count if it changed
//  9. write HPA status, gated by equality (R3)
func (c *Controller) reconcile(ctx context.Context, hpa *objects.HorizontalPodAutoscaler) error {
	targetObj, err := c.client.Get(ctx, hpa.Spec.ScaleTargetRef.Kind, hpa.Spec.ScaleTargetRef.Name)
	if err != nil {
		return err
	}
	rs, ok := targetObj.(*objects.ReplicaSet)
	if !ok {
		return nil
	}
	current := rs.Spec.Replicas

	if current == 0 {
		// B1: a target scaled to zero is left alone; the HPA does not
		// scale up from zero on its own.
		return c.writeStatus(ctx, hpa, current, current)
	}

	now := time.Now()
	raw, ok := c.computeRaw(ctx, hpa, current)
	if !ok {
		// B4: missing-sample assumption flipped direction; hold current.
		return c.writeStatus(ctx, hpa, current, current)
	}

	h := c.historyFor(hpa.Metadata.Name)
	c.mu.Lock()
	widest := hpa.Spec.Behavior.ScaleUp.StabilizationWindowSeconds
	if d := hpa.Spec.Behavior.ScaleDown.StabilizationWindowSeconds; d > widest {
		widest = d
	}
	h.record(now, raw, time.Duration(widest)*time.Second)
	recsCopy := append([]recommendation(nil), h.recs...)
	eventsCopy := append([]scaleEvent(nil), h.events...)
	c.mu.Unlock()

	scalingUp := raw > current
	var stabilized int32
	if scalingUp {
		stabilized = stabilize(recsCopy, now, hpa.Spec.Behavior.ScaleUp.StabilizationWindowSeconds, true)
	} else {
		stabilized = stabilize(recsCopy, now, hpa.Spec.Behavior.ScaleDown.StabilizationWindowSeconds, false)
	}

	var bound int32
	if stabilized > current {
		bound = envelopeBound(hpa.Spec.Behavior.ScaleUp, current, true, now, eventsCopy)
		if stabilized > bound {
			stabilized = bound
		}
	} else if stabilized < current {
		bound = envelopeBound(hpa.Spec.Behavior.ScaleDown, current, false, now, eventsCopy)
		if stabilized < bound {
			stabilized = bound
		}
	}

	// B2: MaxReplicas/MinReplicas clamp last and always win, even over an
	// envelope bound that would otherwise allow more headroom.
	desired := stabilized
	if desired > hpa.Spec.MaxReplicas {
		desired = hpa.Spec.MaxReplicas
	}
	if desired < hpa.Spec.MinReplicas {
		desired = hpa.Spec.MinReplicas
	}

	if desired != current {
		updatedRS := *rs
		updatedRS.Spec.Replicas = desired
		if err := c.client.Put(ctx, &updatedRS); err != nil {
			return err
		}
		c.mu.Lock()
		h.lastScaleTime = now
		h.recordScale(now, desired-current, widestPeriod(hpa.Spec.Behavior))
		c.mu.Unlock()
	}

	return c.writeStatus(ctx, hpa, current, desired)
}

// widestPeriod returns the largest period_seconds configured across both
// scaling directions' policies, so recorded scale events are kept around
// long enough for every policy's own (narrower) window to see them.
func widestPeriod(b objects.HPABehavior) time.Duration {
	var widest int64
	for _, rules := range []objects.HPAScalingRules{b.ScaleUp, b.ScaleDown} {
		for _, p := range rules.Policies {
			if p.PeriodSeconds > widest {
				widest = p.PeriodSeconds
			}
		}
	}
	return time.Duration(widest) * time.Second
}

// computeRaw samples the HPA's configured metric and returns the raw
// desired replica count (§4.6 step 5).
func (c *Controller) computeRaw(ctx context.Context, hpa *objects.HorizontalPodAutoscaler, current int32) (int32, bool) {
	switch hpa.Spec.Metric.Type {
	case objects.MetricResource:
		usage, err := c.metrics.PodUsage(ctx, hpa.Spec.Metric.ResourceName)
		if err != nil {
			c.log.Warn("hpa metrics sample failed", "hpa", hpa.Metadata.Name, "err", err)
			return current, true
		}
		pods := c.ownedPods(hpa.Spec.ScaleTargetRef.Name)
		return resourceRawDesired(hpa.Spec.Metric, current, pods, usage)
	case objects.MetricFunction:
		qps, err := c.metrics.FunctionRequestRate(ctx, hpa.Spec.Metric.FunctionName)
		if err != nil {
			c.log.Warn("hpa metrics sample failed", "hpa", hpa.Metadata.Name, "err", err)
			return current, true
		}
		return functionRawDesired(current, qps, hpa.Spec.Metric.TargetQPS), true
	default:
		return current, true
	}
}

func (c *Controller) writeStatus(ctx context.Context, hpa *objects.HorizontalPodAutoscaler, current, desired int32) error {
	newStatus := objects.HPAStatus{
		CurrentReplicas: current,
		DesiredReplicas: desired,
		LastScaleTime:   hpa.Status.LastScaleTime,
	}
	if desired != current {
		newStatus.LastScaleTime = time.Now().Unix()
	}
	if cmp.Equal(newStatus, hpa.Status) {
		return nil
	}
	updated := *hpa
	updated.Status = newStatus
	return c.client.Put(ctx, &updated)
}
