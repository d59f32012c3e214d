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
	"os"
	"testing"

	"github.com/redfish/mstor/replica"
	"github.com/redfish/mstor/udata"
	"github.com/redfish/mstor/util"
)

const (
	testUID1 uint32 = 1001
	testGID1 uint32 = 2001
	testUID2 uint32 = 1002
	testGID2 uint32 = 2002
)

func newTestDirectory() udata.Directory {
	return udata.NewStatic(
		[]*udata.User{
			{Name: "root", UID: SuperuserUID, GID: SuperuserGID},
			{Name: "u1", UID: testUID1, GID: testGID1},
			{Name: "u2", UID: testUID2, GID: testGID2, Groups: []uint32{testGID1}},
		},
		[]*udata.Group{
			{Name: "g1", GID: testGID1},
			{Name: "g2", GID: testGID2},
		},
	)
}

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path, err := util.GenTmpPath()
	if err != nil {
		t.Fatal(err)
	}
	s, err := Open(context.Background(), &Config{
		Path:      path,
		Directory: newTestDirectory(),
		Assigner:  replica.NewRoundRobin([]uint32{1, 2, 3, 4}),
		ManRepl:   2,
	})
	if err != nil {
		os.RemoveAll(path)
		t.Fatal(err)
	}
	return s, path
}

func closeTestStore(s *Store, path string) {
	s.Close()
	os.RemoveAll(path)
}
