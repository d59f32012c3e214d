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

	"github.com/cubefs/cubefs/blobstore/common/trace"

	mstorerr "github.com/redfish/mstor/errors"
)

// Response carries whichever fields req.Op actually populates; callers
// read only the fields documented for the Op they sent.
type Response struct {
	NID     uint64
	Stat    StatEntry
	Entries []StatEntry
	CInfos  []ChunkInfo
	CID     uint64
	OIDs    []uint32
}

// Do is the single entry point every mstor request passes through,
// mirroring mstor_do_operation: resolve the caller's identity, decide
// once whether permission checks apply, and dispatch to the handler
// for req.Op. CHUNKFIND and CHUNKALLOC identify their target node
// directly and skip path resolution; every other op resolves req.FullPath.
func (s *Store) Do(ctx context.Context, req *Request) (*Response, error) {
	span := trace.SpanFromContext(ctx)

	if req.Op.reserved() {
		span.Infof("mstor: rejecting reserved op %s", req.Op)
		return nil, mstorerr.ErrNotSupported
	}

	u, err := s.udata.LookupUser(req.UserName)
	if err != nil {
		return nil, err
	}
	user := &requestUser{uid: u.UID, gid: u.GID, groups: u.Groups}
	checkPerms := !user.isSuperuser()

	switch req.Op {
	case OpCreat:
		nid, err := s.doCreat(ctx, req, user, checkPerms)
		if err != nil {
			return nil, err
		}
		return &Response{NID: nid}, nil

	case OpOpen:
		nid, err := s.doOpen(ctx, req, user, checkPerms)
		if err != nil {
			return nil, err
		}
		return &Response{NID: nid}, nil

	case OpMkdirs:
		if err := s.doMkdirs(ctx, req, user, checkPerms); err != nil {
			return nil, err
		}
		return &Response{}, nil

	case OpListdir:
		entries, err := s.doListdir(ctx, req, user, checkPerms)
		if err != nil {
			return nil, err
		}
		return &Response{Entries: entries}, nil

	case OpStat:
		st, err := s.doStat(ctx, req, user, checkPerms)
		if err != nil {
			return nil, err
		}
		return &Response{Stat: st}, nil

	case OpChmod:
		if err := s.doChmod(ctx, req, user, checkPerms); err != nil {
			return nil, err
		}
		return &Response{}, nil

	case OpChown:
		if err := s.doChown(ctx, req, user, checkPerms); err != nil {
			return nil, err
		}
		return &Response{}, nil

	case OpUtimes:
		if err := s.doUtimes(ctx, req, user, checkPerms); err != nil {
			return nil, err
		}
		return &Response{}, nil

	case OpRmdir:
		if err := s.doRmdir(ctx, req, user, checkPerms); err != nil {
			return nil, err
		}
		return &Response{}, nil

	case OpChunkFind:
		cinfos, err := s.doChunkFind(ctx, req, user, checkPerms)
		if err != nil {
			return nil, err
		}
		return &Response{CInfos: cinfos}, nil

	case OpChunkAlloc:
		cid, oids, err := s.doChunkAlloc(ctx, req, user, checkPerms)
		if err != nil {
			return nil, err
		}
		return &Response{CID: cid, OIDs: oids}, nil

	default:
		return nil, mstorerr.ErrNotSupported
	}
}
