package hpa

import (
	"testing"
	"time"

	"github.com/costinm/minik8s/pkg/objects"
)

func TestStabilizeScaleUpPicksMinimumInWindow(t *testing.T) {
	now := time.Unix(1000, 0)
	recs := []recommendation{
		{at: now.Add(-20 * time.Second), value: 5},
		{at: now.Add(-10 * time.Second), value: 3},
		{at: now, value: 8},
	}
	got := stabilize(recs, now, 60, true)
	if got != 3 {
		t.Errorf("stabilize(scale up) = %d, want 3 (minimum over window)", got)
	}
}

func TestStabilizeScaleDownPicksMaximumInWindow(t *testing.T) {
	now := time.Unix(1000, 0)
	recs := []recommendation{
		{at: now.Add(-20 * time.Second), value: 5},
		{at: now.Add(-10 * time.Second), value: 8},
		{at: now, value: 2},
	}
	got := stabilize(recs, now, 60, false)
	if got != 8 {
		t.Errorf("stabilize(scale down) = %d, want 8 (maximum over window)", got)
	}
}

func TestStabilizeIgnoresEntriesOutsideWindow(t *testing.T) {
	now := time.Unix(1000, 0)
	recs := []recommendation{
		{at: now.Add(-120 * time.Second), value: 1}, // outside a 60s window
		{at: now, value: 9},
	}
	got := stabilize(recs, now, 60, true)
	if got != 9 {
		t.Errorf("stabilize = %d, want 9 (stale entry excluded)", got)
	}
}

func TestHistoryRecordEvictsOldEntries(t *testing.T) {
	h := &history{}
	now := time.Unix(1000, 0)
	h.record(now.Add(-100*time.Second), 1, 30*time.Second)
	h.record(now, 2, 30*time.Second)
	if len(h.recs) != 1 || h.recs[0].value != 2 {
		t.Errorf("history after record = %+v, want only the recent entry", h.recs)
	}
}

func TestEnvelopeBoundScaleUpSelectMaxTakesLoosestBound(t *testing.T) {
	rules := objects.HPAScalingRules{
		SelectPolicy: objects.SelectMax,
		Policies: []objects.ScalingPolicy{
			{Type: objects.PolicyPods, Value: 2, PeriodSeconds: 60},
			{Type: objects.PolicyPods, Value: 5, PeriodSeconds: 60},
		},
	}
	got := envelopeBound(rules, 10, true, time.Unix(1000, 0), nil)
	if got != 15 {
		t.Errorf("envelopeBound = %d, want 15 (SelectMax picks the larger ceiling)", got)
	}
}

func TestEnvelopeBoundScaleUpSelectMinTakesTightestBound(t *testing.T) {
	rules := objects.HPAScalingRules{
		SelectPolicy: objects.SelectMin,
		Policies: []objects.ScalingPolicy{
			{Type: objects.PolicyPods, Value: 2, PeriodSeconds: 60},
			{Type: objects.PolicyPods, Value: 5, PeriodSeconds: 60},
		},
	}
	got := envelopeBound(rules, 10, true, time.Unix(1000, 0), nil)
	if got != 12 {
		t.Errorf("envelopeBound = %d, want 12 (SelectMin picks the smaller ceiling)", got)
	}
}

func TestEnvelopeBoundDisabledFreezesCurrent(t *testing.T) {
	rules := objects.HPAScalingRules{
		SelectPolicy: objects.SelectDisabled,
		Policies:     []objects.ScalingPolicy{{Type: objects.PolicyPods, Value: 2, PeriodSeconds: 60}},
	}
	got := envelopeBound(rules, 10, true, time.Unix(1000, 0), nil)
	if got != 10 {
		t.Errorf("envelopeBound = %d, want 10 (disabled freezes at current)", got)
	}
}

func TestEnvelopeBoundScaleDownNeverGoesBelowZero(t *testing.T) {
	rules := objects.HPAScalingRules{
		SelectPolicy: objects.SelectMax,
		Policies:     []objects.ScalingPolicy{{Type: objects.PolicyPods, Value: 10, PeriodSeconds: 60}},
	}
	got := envelopeBound(rules, 3, false, time.Unix(1000, 0), nil)
	if got != 0 {
		t.Errorf("envelopeBound = %d, want 0 (floor clamps at zero)", got)
	}
}

func TestEnvelopeBoundNetsOutInWindowScaleEvents(t *testing.T) {
	// S3: a policy allowing +4 pods / 60s already granted a +4 event at
	// t=0 (current scaled 2 -> 6). A reconcile at t=15s, still inside the
	// 60s window, must not grant another +4 on top of the new current (6);
	// period_start = 6 - 4 = 2, so the bound stays at 2+4 = 6.
	rules := objects.HPAScalingRules{
		SelectPolicy: objects.SelectMax,
		Policies:     []objects.ScalingPolicy{{Type: objects.PolicyPods, Value: 4, PeriodSeconds: 60}},
	}
	now := time.Unix(1000, 0)
	events := []scaleEvent{{at: now.Add(-15 * time.Second), delta: 4}}

	got := envelopeBound(rules, 6, true, now, events)
	if got != 6 {
		t.Errorf("envelopeBound = %d, want 6 (in-window event already spent the +4 budget)", got)
	}
}

func TestEnvelopeBoundEventOutsideWindowIsIgnored(t *testing.T) {
	// The same +4 event, but now 61s old: it has aged out of the 60s
	// window, so the full +4 budget is available again from current.
	rules := objects.HPAScalingRules{
		SelectPolicy: objects.SelectMax,
		Policies:     []objects.ScalingPolicy{{Type: objects.PolicyPods, Value: 4, PeriodSeconds: 60}},
	}
	now := time.Unix(1000, 0)
	events := []scaleEvent{{at: now.Add(-61 * time.Second), delta: 4}}

	got := envelopeBound(rules, 6, true, now, events)
	if got != 10 {
		t.Errorf("envelopeBound = %d, want 10 (stale event excluded, full budget restored)", got)
	}
}

func TestHistoryRecordScaleEvictsOldEvents(t *testing.T) {
	h := &history{}
	now := time.Unix(1000, 0)
	h.recordScale(now.Add(-100*time.Second), 4, 30*time.Second)
	h.recordScale(now, 2, 30*time.Second)
	if len(h.events) != 1 || h.events[0].delta != 2 {
		t.Errorf("history.events after recordScale = %+v, want only the recent event", h.events)
	}
}
