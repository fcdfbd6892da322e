package controller

import (
	"github.com/google/go-cmp/cmp"

	"github.com/costinm/minik8s/pkg/objects"
)

// sameObject reports deep equality between two cached values, used for the
// Reflector's Put de-duplication (R2) and to detect whether a relist
// changed anything (§4.2 step 1).
func sameObject(a, b objects.KubeObject) bool {
	return cmp.Equal(a, b)
}

func sameCache(a, b map[string]objects.KubeObject) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		bv, ok := b[k]
		if !ok || !sameObject(v, bv) {
			return false
		}
	}
	return true
}
