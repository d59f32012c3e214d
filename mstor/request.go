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

// Op names one of the operations a Request can carry. Store.Do
// dispatches each to its handler.
type Op int

const (
	OpCreat Op = iota
	OpOpen
	OpMkdirs
	OpListdir
	OpStat
	OpChmod
	OpChown
	OpUtimes
	OpRmdir
	OpChunkFind
	OpChunkAlloc

	// Reserved: recognized but always ENOTSUP, see Store.Do.
	OpSequesterTree
	OpFindSequestered
	OpDestroySequestered
	OpRename
)

func (op Op) String() string {
	switch op {
	case OpCreat:
		return "creat"
	case OpOpen:
		return "open"
	case OpMkdirs:
		return "mkdirs"
	case OpListdir:
		return "listdir"
	case OpStat:
		return "stat"
	case OpChmod:
		return "chmod"
	case OpChown:
		return "chown"
	case OpUtimes:
		return "utimes"
	case OpRmdir:
		return "rmdir"
	case OpChunkFind:
		return "chunkfind"
	case OpChunkAlloc:
		return "chunkalloc"
	case OpSequesterTree:
		return "sequester_tree"
	case OpFindSequestered:
		return "find_sequestered"
	case OpDestroySequestered:
		return "destroy_sequestered"
	case OpRename:
		return "rename"
	default:
		return "unknown"
	}
}

// reserved reports whether op is recognized but not implemented.
func (op Op) reserved() bool {
	switch op {
	case OpSequesterTree, OpFindSequestered, OpDestroySequestered, OpRename:
		return true
	default:
		return false
	}
}

// Request is the tagged record every mstor operation is driven by.
// Only the fields relevant to Op are read; callers should zero-value
// the rest.
type Request struct {
	Op       Op
	UserName string
	FullPath string

	// CREAT / MKDIRS
	Mode uint16

	// CHOWN: nil means "leave unchanged".
	NewUserName  *string
	NewGroupName *string

	// UTIMES: InvalidTime means "leave unchanged".
	Mtime int64
	Atime int64

	// RMDIR
	Recursive bool

	// CHUNKFIND / CHUNKALLOC: identify the file directly by nid,
	// bypassing path resolution (see Store.Do).
	NID uint64

	// CHUNKFIND
	Start     uint64
	End       uint64
	MaxCInfos int

	// CHUNKALLOC
	Offset uint64

	// LISTDIR: the size, in bytes, of the caller's output buffer. Zero
	// means unbounded. A listing whose encoded records would exceed it
	// fails as a whole with ErrNameTooLong.
	OutputCap int
}

// requestUser is the resolved identity a Request runs as.
type requestUser struct {
	uid    uint32
	gid    uint32
	groups []uint32
}

func (u *requestUser) isSuperuser() bool {
	return u.uid == SuperuserUID
}
