// Copyright 2023 The CubeFS Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

// Package replica defines the assign_replicas(n) external collaborator
// from §6 and ships a deterministic round-robin Assigner. OSD placement
// policy itself is explicitly out of scope (spec.md §1); this package
// only gives CHUNKALLOC something real to call.
package replica

import (
	"context"
	"sync/atomic"

	mstorerr "github.com/redfish/mstor/errors"
)

const MaxReplicas = 8

// Assigner hands out the OSD ids a newly allocated chunk should be
// replicated to.
type Assigner interface {
	AssignReplicas(ctx context.Context, n int) ([]uint32, error)
}

type roundRobin struct {
	oids []uint32
	next uint64
}

// NewRoundRobin returns an Assigner that walks a fixed pool of OSD ids
// round-robin, handing out n distinct ids per call (n must be <= len(oids)
// and <= MaxReplicas).
func NewRoundRobin(oids []uint32) Assigner {
	pool := make([]uint32, len(oids))
	copy(pool, oids)
	return &roundRobin{oids: pool}
}

func (r *roundRobin) AssignReplicas(_ context.Context, n int) ([]uint32, error) {
	if n <= 0 || n > MaxReplicas || n > len(r.oids) {
		return nil, mstorerr.ErrInvalid
	}
	start := atomic.AddUint64(&r.next, uint64(n)) - uint64(n)
	out := make([]uint32, n)
	for i := 0; i < n; i++ {
		out[i] = r.oids[(int(start)+i)%len(r.oids)]
	}
	return out, nil
}
