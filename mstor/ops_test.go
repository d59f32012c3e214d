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
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	mstorerr "github.com/redfish/mstor/errors"
	"github.com/redfish/mstor/replica"
)

func TestMkdirsCreatListdir(t *testing.T) {
	s, path := openTestStore(t)
	defer closeTestStore(s, path)
	ctx := context.Background()

	_, err := s.Do(ctx, &Request{Op: OpMkdirs, UserName: "u1", FullPath: "/home/u1", Mode: 0o755})
	require.NoError(t, err)

	_, err = s.Do(ctx, &Request{Op: OpCreat, UserName: "u1", FullPath: "/home/u1/readme.txt", Mode: 0o644})
	require.NoError(t, err)

	resp, err := s.Do(ctx, &Request{Op: OpListdir, UserName: "u1", FullPath: "/home/u1"})
	require.NoError(t, err)
	require.Len(t, resp.Entries, 1)
	require.Equal(t, "readme.txt", resp.Entries[0].Name)
	require.Equal(t, testUID1, resp.Entries[0].UID)
}

func TestCreatOnExistingNameFails(t *testing.T) {
	s, path := openTestStore(t)
	defer closeTestStore(s, path)
	ctx := context.Background()

	_, err := s.Do(ctx, &Request{Op: OpCreat, UserName: "root", FullPath: "/a", Mode: 0o644})
	require.NoError(t, err)
	_, err = s.Do(ctx, &Request{Op: OpCreat, UserName: "root", FullPath: "/a", Mode: 0o644})
	require.ErrorIs(t, err, mstorerr.ErrExist)
}

// TestPermissionDenial: a 0700 directory owned by u1 is invisible to
// u2, and stays so after u1 moves it to a group u2 belongs to, because
// its group bits grant nothing.
func TestPermissionDenial(t *testing.T) {
	s, path := openTestStore(t)
	defer closeTestStore(s, path)
	ctx := context.Background()

	_, err := s.Do(ctx, &Request{Op: OpMkdirs, UserName: "u1", FullPath: "/private", Mode: 0o700})
	require.NoError(t, err)

	_, err = s.Do(ctx, &Request{Op: OpListdir, UserName: "u2", FullPath: "/private"})
	require.ErrorIs(t, err, mstorerr.ErrPermission)

	newGroup := "g1"
	_, err = s.Do(ctx, &Request{Op: OpChown, UserName: "u1", FullPath: "/private", NewGroupName: &newGroup})
	require.NoError(t, err)

	_, err = s.Do(ctx, &Request{Op: OpListdir, UserName: "u2", FullPath: "/private"})
	require.ErrorIs(t, err, mstorerr.ErrPermission)
}

func TestChownOwnerChangeRequiresSuperuser(t *testing.T) {
	s, path := openTestStore(t)
	defer closeTestStore(s, path)
	ctx := context.Background()

	_, err := s.Do(ctx, &Request{Op: OpCreat, UserName: "u1", FullPath: "/f", Mode: 0o644})
	require.NoError(t, err)

	newUser := "u2"
	_, err = s.Do(ctx, &Request{Op: OpChown, UserName: "u1", FullPath: "/f", NewUserName: &newUser})
	require.ErrorIs(t, err, mstorerr.ErrPermission)

	_, err = s.Do(ctx, &Request{Op: OpChown, UserName: "root", FullPath: "/f", NewUserName: &newUser})
	require.NoError(t, err)

	st, err := s.Do(ctx, &Request{Op: OpStat, UserName: "root", FullPath: "/f"})
	require.NoError(t, err)
	require.Equal(t, testUID2, st.Stat.UID)
}

func TestChownGroupChangeRequiresOwnershipAndMembership(t *testing.T) {
	s, path := openTestStore(t)
	defer closeTestStore(s, path)
	ctx := context.Background()

	_, err := s.Do(ctx, &Request{Op: OpCreat, UserName: "u1", FullPath: "/f", Mode: 0o644})
	require.NoError(t, err)

	// u2 does not own the node: rejected even though u2 belongs to g2.
	g2 := "g2"
	_, err = s.Do(ctx, &Request{Op: OpChown, UserName: "u2", FullPath: "/f", NewGroupName: &g2})
	require.ErrorIs(t, err, mstorerr.ErrPermission)

	// u1 owns the node but is not a member of g2: also rejected.
	_, err = s.Do(ctx, &Request{Op: OpChown, UserName: "u1", FullPath: "/f", NewGroupName: &g2})
	require.ErrorIs(t, err, mstorerr.ErrPermission)

	// u1 owns the node and is a member of g1: allowed.
	g1 := "g1"
	_, err = s.Do(ctx, &Request{Op: OpChown, UserName: "u1", FullPath: "/f", NewGroupName: &g1})
	require.NoError(t, err)
}

func TestRmdirRequiresRecursiveOnNonEmptyDir(t *testing.T) {
	s, path := openTestStore(t)
	defer closeTestStore(s, path)
	ctx := context.Background()

	_, err := s.Do(ctx, &Request{Op: OpMkdirs, UserName: "root", FullPath: "/d/child", Mode: 0o755})
	require.NoError(t, err)

	_, err = s.Do(ctx, &Request{Op: OpRmdir, UserName: "root", FullPath: "/d"})
	require.ErrorIs(t, err, mstorerr.ErrNotEmpty)

	_, err = s.Do(ctx, &Request{Op: OpRmdir, UserName: "root", FullPath: "/d", Recursive: true})
	require.NoError(t, err)

	_, err = s.Do(ctx, &Request{Op: OpStat, UserName: "root", FullPath: "/d"})
	require.ErrorIs(t, err, mstorerr.ErrNotExist)
}

// TestRmdirRecursiveReachesGrandchildren mirrors spec.md's recursive
// rmdir scenario: build /a/b/c/f, then rmdir("/a", rmr=true) must
// leave no trace of a, b, c, or f -- not just a's direct child b.
func TestRmdirRecursiveReachesGrandchildren(t *testing.T) {
	s, path := openTestStore(t)
	defer closeTestStore(s, path)
	ctx := context.Background()

	_, err := s.Do(ctx, &Request{Op: OpMkdirs, UserName: "root", FullPath: "/a/b/c", Mode: 0o755})
	require.NoError(t, err)
	_, err = s.Do(ctx, &Request{Op: OpCreat, UserName: "root", FullPath: "/a/b/c/f", Mode: 0o644})
	require.NoError(t, err)

	_, err = s.Do(ctx, &Request{Op: OpRmdir, UserName: "root", FullPath: "/a"})
	require.ErrorIs(t, err, mstorerr.ErrNotEmpty)

	_, err = s.Do(ctx, &Request{Op: OpRmdir, UserName: "root", FullPath: "/a", Recursive: true})
	require.NoError(t, err)

	for _, p := range []string{"/a", "/a/b", "/a/b/c", "/a/b/c/f"} {
		_, err = s.Do(ctx, &Request{Op: OpStat, UserName: "root", FullPath: p})
		require.ErrorIs(t, err, mstorerr.ErrNotExist, "stat(%s)", p)
	}

	var buf bytes.Buffer
	require.NoError(t, s.Dump(ctx, &buf))
	require.NotContains(t, buf.String(), "CHILD(")
}

func TestRmdirRootIsRejected(t *testing.T) {
	s, path := openTestStore(t)
	defer closeTestStore(s, path)
	ctx := context.Background()

	_, err := s.Do(ctx, &Request{Op: OpRmdir, UserName: "root", FullPath: "/", Recursive: true})
	require.ErrorIs(t, err, mstorerr.ErrPermission)
}

func TestChunkAllocationOrder(t *testing.T) {
	s, path := openTestStore(t)
	defer closeTestStore(s, path)
	ctx := context.Background()

	_, err := s.Do(ctx, &Request{Op: OpCreat, UserName: "root", FullPath: "/bigfile", Mode: 0o644})
	require.NoError(t, err)

	openResp, err := s.Do(ctx, &Request{Op: OpOpen, UserName: "root", FullPath: "/bigfile"})
	require.NoError(t, err)
	fileNID := openResp.NID

	alloc1, err := s.Do(ctx, &Request{Op: OpChunkAlloc, UserName: "root", NID: fileNID, Offset: 0})
	require.NoError(t, err)

	alloc2, err := s.Do(ctx, &Request{Op: OpChunkAlloc, UserName: "root", NID: fileNID, Offset: 4194304})
	require.NoError(t, err)

	_, err = s.Do(ctx, &Request{Op: OpChunkAlloc, UserName: "root", NID: fileNID, Offset: 1048576})
	require.ErrorIs(t, err, mstorerr.ErrInvalid)

	find, err := s.Do(ctx, &Request{Op: OpChunkFind, UserName: "root", NID: fileNID, Start: 0, End: 10000000, MaxCInfos: 16})
	require.NoError(t, err)
	require.Len(t, find.CInfos, 2)
	require.Equal(t, uint64(0), find.CInfos[0].Offset)
	require.Equal(t, alloc1.CID, find.CInfos[0].CID)
	require.Equal(t, uint64(4194304), find.CInfos[1].Offset)
	require.Equal(t, alloc2.CID, find.CInfos[1].CID)
}

func TestIDAllocatorsSurviveReopen(t *testing.T) {
	s, path := openTestStore(t)
	defer os.RemoveAll(path)

	ctx := context.Background()
	var lastNID uint64
	for i := 0; i < 5; i++ {
		resp, err := s.Do(ctx, &Request{Op: OpCreat, UserName: "root", FullPath: "/f" + string(rune('a'+i)), Mode: 0o644})
		require.NoError(t, err)
		lastNID = resp.NID
	}
	s.Close()

	s2, err := Open(ctx, &Config{Path: path, Directory: newTestDirectory(), Assigner: replica.NewRoundRobin([]uint32{1, 2})})
	require.NoError(t, err)
	defer s2.Close()

	resp, err := s2.Do(ctx, &Request{Op: OpCreat, UserName: "root", FullPath: "/next", Mode: 0o644})
	require.NoError(t, err)
	require.Greater(t, resp.NID, lastNID)
}

func TestReservedOpsReturnNotSupported(t *testing.T) {
	s, path := openTestStore(t)
	defer closeTestStore(s, path)
	ctx := context.Background()

	for _, op := range []Op{OpSequesterTree, OpFindSequestered, OpDestroySequestered, OpRename} {
		_, err := s.Do(ctx, &Request{Op: op, UserName: "root", FullPath: "/"})
		require.ErrorIs(t, err, mstorerr.ErrNotSupported)
	}
}
