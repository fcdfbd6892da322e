package hpa

import (
	"math"

	"github.com/costinm/minik8s/pkg/objects"
)

// podRequest sums a container resource's requests across a pod's spec.
func podRequest(pod *objects.Pod, resourceName string) int64 {
	var total int64
	for _, c := range pod.Spec.Containers {
		total += c.Requests[resourceName]
	}
	return total
}

// readyPods filters out not-ready/failed pods (§4.6 step 5).
func readyPods(pods []*objects.Pod) []*objects.Pod {
	var out []*objects.Pod
	for _, p := range pods {
		if p.Status.Phase == objects.PodFailed {
			continue
		}
		if !p.IsReady() {
			continue
		}
		out = append(out, p)
	}
	return out
}

// resourceRawDesired computes raw_desired for a Resource metric (§4.6 step
// 5, AverageUtilization/AverageValue). It returns ok=false when the
// missing-pod assumption would flip the scale direction, signaling the
// caller to cancel and keep current (B4).
func resourceRawDesired(spec objects.MetricSpec, currentReplicas int32, pods []*objects.Pod, usage map[string]int64) (raw int32, ok bool) {
	rp := readyPods(pods)
	n := len(rp)
	if n == 0 {
		return currentReplicas, true
	}

	var presentUsage, presentReq, missingReq, totalReq int64
	for _, p := range rp {
		req := podRequest(p, spec.ResourceName)
		totalReq += req
		if u, sampled := usage[p.Metadata.Name]; sampled {
			presentUsage += u
			presentReq += req
		} else {
			missingReq += req
		}
	}

	value := func(usageSum int64, req int64, count int) (float64, bool) {
		switch spec.ResourceKind {
		case objects.AverageValue:
			if count == 0 {
				return 0, false
			}
			return float64(usageSum) / float64(count), true
		default: // AverageUtilization
			if req == 0 {
				return 0, false
			}
			return float64(usageSum) / float64(req) * 100, true
		}
	}

	target := float64(spec.Target)
	ratioOf := func(v float64) float64 {
		if target == 0 {
			// Division by a zero target utilization/value is undefined;
			// treat as "on target" per DESIGN NOTES §9.
			return 1.0
		}
		return v / target
	}

	presentCount := n - len(presentPodsMissingCount(rp, usage))
	baseVal, baseOK := value(presentUsage, presentReq, presentCount)
	baseRatio := 1.0
	if baseOK {
		baseRatio = ratioOf(baseVal)
	}

	assumedUsage := presentUsage
	if baseRatio < 1 {
		assumedUsage += missingReq // conservative: missing pods assumed fully busy
	}
	finalVal, finalOK := value(assumedUsage, totalReq, n)
	finalRatio := 1.0
	if finalOK {
		finalRatio = ratioOf(finalVal)
	}

	if sign(baseRatio-1) != sign(finalRatio-1) {
		return currentReplicas, false
	}

	return int32(math.Ceil(finalRatio * float64(n))), true
}

func presentPodsMissingCount(pods []*objects.Pod, usage map[string]int64) []*objects.Pod {
	var missing []*objects.Pod
	for _, p := range pods {
		if _, ok := usage[p.Metadata.Name]; !ok {
			missing = append(missing, p)
		}
	}
	return missing
}

func sign(f float64) int {
	switch {
	case f > 0:
		return 1
	case f < 0:
		return -1
	default:
		return 0
	}
}

// functionRawDesired implements §4.6 step 5's Function(target QPS) formula.
func functionRawDesired(currentReplicas int32, currentQPS float64, targetQPS int64) int32 {
	if currentReplicas == 0 || targetQPS == 0 {
		return currentReplicas
	}
	perReplica := currentQPS / float64(currentReplicas)
	ratio := perReplica / float64(targetQPS)
	return int32(math.Ceil(float64(currentReplicas) * ratio))
}
