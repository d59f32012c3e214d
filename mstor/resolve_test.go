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
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	mstorerr "github.com/redfish/mstor/errors"
)

func TestResolvePathThroughFileComponentFails(t *testing.T) {
	s, path := openTestStore(t)
	defer closeTestStore(s, path)
	ctx := context.Background()

	_, err := s.Do(ctx, &Request{Op: OpCreat, UserName: "root", FullPath: "/f", Mode: 0o644})
	require.NoError(t, err)

	_, err = s.Do(ctx, &Request{Op: OpCreat, UserName: "root", FullPath: "/f/g", Mode: 0o644})
	require.ErrorIs(t, err, mstorerr.ErrNotDir)
}

func TestResolvePathRejectsOverlongComponent(t *testing.T) {
	s, path := openTestStore(t)
	defer closeTestStore(s, path)
	ctx := context.Background()

	_, err := s.Do(ctx, &Request{Op: OpCreat, UserName: "root", FullPath: "/" + strings.Repeat("a", PCompMax), Mode: 0o644})
	require.ErrorIs(t, err, mstorerr.ErrNameTooLong)
}

func TestStatRootHasNoParentCheck(t *testing.T) {
	s, path := openTestStore(t)
	defer closeTestStore(s, path)
	ctx := context.Background()

	resp, err := s.Do(ctx, &Request{Op: OpStat, UserName: "u1", FullPath: "/"})
	require.NoError(t, err)
	require.True(t, resp.Stat.ModeAndType&modeIsDir != 0)
}

func TestDumpProducesOneLinePerEntry(t *testing.T) {
	s, path := openTestStore(t)
	defer closeTestStore(s, path)
	ctx := context.Background()

	_, err := s.Do(ctx, &Request{Op: OpMkdirs, UserName: "root", FullPath: "/a/b", Mode: 0o755})
	require.NoError(t, err)
	_, err = s.Do(ctx, &Request{Op: OpCreat, UserName: "root", FullPath: "/a/b/c", Mode: 0o644})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, s.Dump(ctx, &buf))

	out := buf.String()
	require.Contains(t, out, "VERSION()")
	require.Contains(t, out, "NODE(0x0)")
	require.Contains(t, out, "CHILD(")
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.GreaterOrEqual(t, len(lines), 5)
}
