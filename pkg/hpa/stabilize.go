package hpa

import (
	"time"

	"github.com/costinm/minik8s/pkg/objects"
)

// recommendation is one past raw_desired value, timestamped for window
// eviction (§4.6 step 6).
type recommendation struct {
	at    time.Time
	value int32
}

// scaleEvent records a replica-count change actually applied at a point in
// time, so the scaling-rate envelope can compute each policy's
// period_start = current − Σ(events in P.period) (§4.6 step 7/8).
type scaleEvent struct {
	at    time.Time
	delta int32 // desired - current at the time the change was applied
}

// history tracks the recent recommendations and scale events an HPA needs
// to apply stabilization and rate-limiting. One history lives per HPA name
// for the controller's lifetime.
type history struct {
	recs          []recommendation
	events        []scaleEvent
	lastScaleTime time.Time
}

// record appends a raw recommendation and evicts entries older than the
// wider of the two stabilization windows (so both directions can still see
// it when they each trim to their own window).
func (h *history) record(now time.Time, raw int32, window time.Duration) {
	h.recs = append(h.recs, recommendation{at: now, value: raw})
	cutoff := now.Add(-window)
	i := 0
	for ; i < len(h.recs); i++ {
		if h.recs[i].at.After(cutoff) {
			break
		}
	}
	h.recs = h.recs[i:]
}

// recordScale appends an applied scale event and evicts events older than
// maxPeriod, the widest period_seconds configured across the HPA's scaling
// policies (so every policy can still see it before its own, narrower
// eviction on read).
func (h *history) recordScale(now time.Time, delta int32, maxPeriod time.Duration) {
	h.events = append(h.events, scaleEvent{at: now, delta: delta})
	cutoff := now.Add(-maxPeriod)
	i := 0
	for ; i < len(h.events); i++ {
		if h.events[i].at.After(cutoff) {
			break
		}
	}
	h.events = h.events[i:]
}

// eventsSum totals the recorded deltas whose timestamp falls within the
// trailing period ending at now.
func eventsSum(events []scaleEvent, now time.Time, period time.Duration) int32 {
	cutoff := now.Add(-period)
	var sum int32
	for _, e := range events {
		if e.at.After(cutoff) {
			sum += e.delta
		}
	}
	return sum
}

// stabilize implements §4.6 step 6: scale-up picks the minimum
// recommendation seen in the scale-up stabilization window (most
// conservative upward move), scale-down picks the maximum recommendation
// seen in the scale-down window (most conservative downward move).
func stabilize(recs []recommendation, now time.Time, windowSeconds int64, scalingUp bool) int32 {
	window := time.Duration(windowSeconds) * time.Second
	cutoff := now.Add(-window)
	best := recs[len(recs)-1].value
	for _, r := range recs {
		if r.at.Before(cutoff) {
			continue
		}
		if scalingUp {
			if r.value < best {
				best = r.value
			}
		} else {
			if r.value > best {
				best = r.value
			}
		}
	}
	return best
}

// envelopeBound computes the single bound scale rate policies allow for one
// direction, resolving the spec's flagged ambiguity over how select_policy
// combines period bounds (DESIGN NOTES §9):
//
//   - scale-up: each policy yields an allowed *ceiling* above current.
//     SelectMax takes the loosest (highest) ceiling, SelectMin the
//     tightest (lowest) ceiling — matching "Max lets you grow fastest".
//   - scale-down: each policy yields an allowed *floor* below current.
//     SelectMax takes the loosest (lowest) floor, SelectMin the tightest
//     (highest, i.e. smallest decrease) floor — so SelectMax/SelectMin
//     keep a consistent "Max = most aggressive change" meaning across
//     both directions.
//   - SelectDisabled freezes the bound at current in that direction.
//
// Each policy's bound is computed net of scale events that already landed
// inside that policy's own rolling period_seconds window: period_start :=
// current − Σ(events in P.period), so a policy allowing "+4 pods / 60s"
// that already scaled by +4 at t=0 caps further growth at period_start+4
// (== the t=0 replica count + 4) until that event ages out of the window,
// rather than re-granting +4 headroom from whatever current happens to be
// on every reconcile.
func envelopeBound(rules objects.HPAScalingRules, current int32, scalingUp bool, now time.Time, events []scaleEvent) int32 {
	if rules.SelectPolicy == objects.SelectDisabled || len(rules.Policies) == 0 {
		return current
	}

	bounds := make([]int32, 0, len(rules.Policies))
	for _, p := range rules.Policies {
		period := time.Duration(p.PeriodSeconds) * time.Second
		periodStart := current - eventsSum(events, now, period)
		bounds = append(bounds, policyBound(p, periodStart, scalingUp))
	}

	best := bounds[0]
	for _, b := range bounds[1:] {
		if rules.SelectPolicy == objects.SelectMax {
			if scalingUp {
				if b > best {
					best = b
				}
			} else {
				if b < best {
					best = b
				}
			}
		} else { // SelectMin (default when unset)
			if scalingUp {
				if b < best {
					best = b
				}
			} else {
				if b > best {
					best = b
				}
			}
		}
	}
	return best
}

func policyBound(p objects.ScalingPolicy, current int32, scalingUp bool) int32 {
	switch p.Type {
	case objects.PolicyPods:
		if scalingUp {
			return current + int32(p.Value)
		}
		b := current - int32(p.Value)
		if b < 0 {
			b = 0
		}
		return b
	case objects.PolicyPercent:
		delta := int32((int64(current)*p.Value + 99) / 100) // ceil
		if delta < 1 {
			delta = 1
		}
		if scalingUp {
			return current + delta
		}
		b := current - delta
		if b < 0 {
			b = 0
		}
		return b
	default:
		return current
	}
}
