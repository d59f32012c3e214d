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

import mstorerr "github.com/redfish/mstor/errors"

// checkMode enforces the type gate and, when checkPerms is set, the
// POSIX-style owner/group/other check against p. want is one of
// permExec/permWrite/permRead. wantDir says whether the caller expects
// p to be a directory.
func checkMode(p *payload, wantDir bool, want uint16, checkPerms bool, user *requestUser) error {
	if wantDir {
		if !p.isDir() {
			return mstorerr.ErrNotDir
		}
	} else if p.isDir() {
		return mstorerr.ErrIsDir
	}

	if !checkPerms {
		return nil
	}

	mode := p.mode()
	other := mode & 0o7
	group := (mode >> 3) & 0o7
	owner := (mode >> 6) & 0o7

	if want&other != 0 {
		return nil
	}
	if p.UID == user.uid && want&owner != 0 {
		return nil
	}
	if userInGID(user, p.GID) && want&group != 0 {
		return nil
	}
	return mstorerr.ErrPermission
}

func userInGID(user *requestUser, gid uint32) bool {
	if user.gid == gid {
		return true
	}
	for _, g := range user.groups {
		if g == gid {
			return true
		}
	}
	return false
}
