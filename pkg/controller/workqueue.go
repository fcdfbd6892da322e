package controller

import (
	"time"

	"k8s.io/client-go/util/workqueue"
)

// NewQueue builds a rate-limiting, delaying work queue keyed by object
// name/URI — the work queue used by the scheduler, ReplicaSet and GpuJob
// controllers (C4, C5, C8). The endpoints controller (C7) uses a typed
// channel instead, and the HPA controller (C6) uses no queue: it re-evaluates
// every HPA on each sync tick. The "in-queue" coalescing set and delayed-requeue timer heap called for in
// DESIGN NOTES §9 are exactly workqueue.RateLimitingInterface's semantics:
// Add is a no-op while an item is already queued, and AddAfter/AddRateLimited
// schedule a future insertion.
func NewQueue(name string, baseBackoff, maxBackoff time.Duration) workqueue.RateLimitingInterface {
	limiter := workqueue.NewItemExponentialFailureRateLimiter(baseBackoff, maxBackoff)
	return workqueue.NewRateLimitingQueueWithConfig(limiter, workqueue.RateLimitingQueueConfig{Name: name})
}

// SchedulerBackoff matches §4.4's failure-mode back-off: 1s doubling to a
// 20s cap.
const (
	SchedulerBaseBackoff = time.Second
	SchedulerMaxBackoff  = 20 * time.Second
)
