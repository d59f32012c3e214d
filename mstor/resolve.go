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

	mstorerr "github.com/redfish/mstor/errors"
	"github.com/redfish/mstor/pathutil"
)

// resolved is what the resolver hands to an operation handler: the
// parent directory (nil for the root path), the terminal component's
// name, and the terminal node if it already exists.
type resolved struct {
	parentNID uint64
	parent    *payload
	name      string
	nid       uint64
	node      *payload
	found     bool
}

// fetchChild requires exec+IS_DIR on parent and returns the named
// child, per spec.md §4.4 step 5.
func (s *Store) fetchChild(ctx context.Context, parentNID uint64, parent *payload, name string, user *requestUser, checkPerms bool) (uint64, *payload, error) {
	if err := checkMode(parent, true, permExec, checkPerms, user); err != nil {
		return 0, nil, err
	}
	childNID, err := s.getChildNID(ctx, parentNID, name)
	if err != nil {
		return 0, nil, err
	}
	child, err := s.getNode(ctx, childNID)
	if err != nil {
		return 0, nil, err
	}
	return childNID, child, nil
}

// resolvePath implements spec.md §4.4: canonicalize, split, fetch
// root, and walk every component but the last with an exec+dir check
// on each interior directory. The terminal component is looked up but
// never created here -- creation is the caller's job on ENOENT.
func (s *Store) resolvePath(ctx context.Context, fullPath string, user *requestUser, checkPerms bool) (*resolved, error) {
	if len(fullPath) > PathMax {
		return nil, mstorerr.ErrNameTooLong
	}
	canon, err := pathutil.Canonicalize(fullPath)
	if err != nil {
		return nil, err
	}
	comps := pathutil.Split(canon)
	for _, c := range comps {
		if len(c) == 0 || len(c) >= PCompMax {
			return nil, mstorerr.ErrNameTooLong
		}
	}

	root, err := s.getNode(ctx, RootNID)
	if err != nil {
		return nil, err
	}
	if len(comps) == 0 {
		return &resolved{nid: RootNID, node: root, found: true}, nil
	}

	cnode := root
	cnid := RootNID
	for i := 0; i < len(comps)-1; i++ {
		childNID, child, err := s.fetchChild(ctx, cnid, cnode, comps[i], user, checkPerms)
		if err != nil {
			return nil, err
		}
		cnid, cnode = childNID, child
	}

	last := comps[len(comps)-1]
	if err := checkMode(cnode, true, permExec, checkPerms, user); err != nil {
		return nil, err
	}
	childNID, child, err := s.getChildNIDAndNode(ctx, cnid, last)
	if err == mstorerr.ErrNotExist {
		return &resolved{parentNID: cnid, parent: cnode, name: last, found: false}, nil
	}
	if err != nil {
		return nil, err
	}
	return &resolved{parentNID: cnid, parent: cnode, name: last, nid: childNID, node: child, found: true}, nil
}

// createChild allocates a nid and atomically writes the {c-entry,
// n-entry} pair that makes name a child of parentNID, per spec.md
// §4.6 CREAT/MKDIRS.
func (s *Store) createChild(ctx context.Context, parentNID uint64, name string, modeAndType uint16, now int64, user *requestUser) (uint64, *payload, error) {
	nid, err := s.nextNid()
	if err != nil {
		return 0, nil, err
	}
	node := &payload{
		Mtime:       now,
		Atime:       now,
		Length:      0,
		UID:         user.uid,
		GID:         user.gid,
		ModeAndType: modeAndType,
	}

	if err := s.limiter.AcquireWrite(); err != nil {
		return 0, nil, mstorerr.ErrIO
	}
	defer s.limiter.ReleaseWrite()

	batch := s.kv.NewWriteBatch()
	defer batch.Close()
	batch.Put(metaCF, encodeChildKey(parentNID, name), encodeUint64(nid))
	batch.Put(metaCF, encodeNodeKey(nid), node.marshal())
	if err := s.kv.Write(ctx, batch, nil); err != nil {
		return 0, nil, errors.Info(err, "mstor: create child failed")
	}
	return nid, node, nil
}

func (s *Store) getChildNIDAndNode(ctx context.Context, parent uint64, name string) (uint64, *payload, error) {
	nid, err := s.getChildNID(ctx, parent, name)
	if err != nil {
		return 0, nil, err
	}
	node, err := s.getNode(ctx, nid)
	if err != nil {
		return 0, nil, err
	}
	return nid, node, nil
}

// resolveMkdirs walks fullPath creating any missing directory along
// the way, per spec.md §4.4 step 6. Once it creates the first
// intermediate directory it clears checkPerms for the remainder of the
// walk, so a caller may mkdirs into a mode that excludes exec for
// itself.
func (s *Store) resolveMkdirs(ctx context.Context, fullPath string, user *requestUser, checkPerms bool, mode uint16, now int64) (*resolved, error) {
	if len(fullPath) > PathMax {
		return nil, mstorerr.ErrNameTooLong
	}
	canon, err := pathutil.Canonicalize(fullPath)
	if err != nil {
		return nil, err
	}
	comps := pathutil.Split(canon)
	for _, c := range comps {
		if len(c) == 0 || len(c) >= PCompMax {
			return nil, mstorerr.ErrNameTooLong
		}
	}

	root, err := s.getNode(ctx, RootNID)
	if err != nil {
		return nil, err
	}
	if len(comps) == 0 {
		return &resolved{nid: RootNID, node: root, found: true}, nil
	}

	cnid, cnode := RootNID, root
	for _, name := range comps {
		if err := checkMode(cnode, true, permExec, checkPerms, user); err != nil {
			return nil, err
		}
		childNID, child, err := s.getChildNIDAndNode(ctx, cnid, name)
		if err == mstorerr.ErrNotExist {
			if err := checkMode(cnode, true, permWrite, checkPerms, user); err != nil {
				return nil, err
			}
			newNID, newNode, err := s.createChild(ctx, cnid, name, newMode(mode, true), now, user)
			if err != nil {
				return nil, err
			}
			cnid, cnode = newNID, newNode
			checkPerms = false
			continue
		}
		if err != nil {
			return nil, err
		}
		cnid, cnode = childNID, child
	}
	return &resolved{nid: cnid, node: cnode, found: true}, nil
}
