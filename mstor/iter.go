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

package mstor

import (
	"context"

	"github.com/cubefs/cubefs/blobstore/util/errors"
)

// forEachChild scans every c-key under parent (spec.md §4.6
// LISTDIR/RMDIR) and invokes fn with each child's name and nid, in
// name order. fn's error, if non-nil, stops the scan and propagates.
func (s *Store) forEachChild(ctx context.Context, parent uint64, fn func(name string, childNID uint64) error) error {
	prefix := encodeChildKeyPrefix(parent)
	lr := s.kv.List(ctx, metaCF, prefix, nil, nil)
	defer lr.Close()

	for {
		key, val, err := lr.ReadNextCopy()
		if err != nil {
			return errors.Info(err, "mstor: scan children failed")
		}
		if key == nil {
			return nil
		}
		childNID, err := decodeUint64(val)
		if err != nil {
			return err
		}
		if err := fn(decodeChildName(key), childNID); err != nil {
			return err
		}
	}
}
