// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package sampler

// uniform implements Uniform: sampling without replacement, each
// remaining index equally likely. k-means++ seeding uses this for its
// first centroid and for its fallback pick.
type uniform struct {
	count int
	src   Source
}

// NewUniform returns a Uniform backed by src.
func NewUniform(src Source) Uniform {
	return &uniform{src: src}
}

func (u *uniform) Initialize(count int) error {
	if count < 0 {
		return ErrOutOfRange
	}
	u.count = count
	return nil
}

// Sample draws size distinct indices in [0, count). It reports false
// if size exceeds count.
func (u *uniform) Sample(size int) ([]int, bool) {
	if size > u.count {
		return nil, false
	}
	indices := make([]int, size)
	selected := make(map[int]bool, size)
	for i := 0; i < size; i++ {
		for {
			idx := int(u.src.Uint64() % uint64(u.count))
			if !selected[idx] {
				indices[i] = idx
				selected[idx] = true
				break
			}
		}
	}
	return indices, true
}
