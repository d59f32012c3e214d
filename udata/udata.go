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

// Package udata defines the user/group directory mstor depends on but
// does not implement in production: §6's "udata" external collaborator.
// It also ships one trivial, in-memory Directory good enough to drive
// the module's own tests and the cmd/mstor-dump tool.
package udata

import mstorerr "github.com/redfish/mstor/errors"

// User is the resolved identity a request runs as.
type User struct {
	Name   string
	UID    uint32
	GID    uint32
	Groups []uint32
}

// Group is a resolved group name.
type Group struct {
	Name string
	GID  uint32
}

// Directory resolves user and group names to numeric ids and answers
// group-membership questions. mstor never looks up /etc/passwd itself;
// it only ever calls this interface.
type Directory interface {
	LookupUser(name string) (*User, error)
	LookupGroup(name string) (*Group, error)
	UserInGID(u *User, gid uint32) bool
}

type static struct {
	users  map[string]*User
	groups map[string]*Group
}

// NewStatic builds a Directory backed by a fixed in-memory table. It is
// meant for tests and small standalone deployments, not for production
// use -- a real deployment supplies its own Directory (LDAP, NIS, a
// cluster-wide user service, etc).
func NewStatic(users []*User, groups []*Group) Directory {
	s := &static{
		users:  make(map[string]*User, len(users)),
		groups: make(map[string]*Group, len(groups)),
	}
	for _, u := range users {
		s.users[u.Name] = u
	}
	for _, g := range groups {
		s.groups[g.Name] = g
	}
	return s
}

func (s *static) LookupUser(name string) (*User, error) {
	u, ok := s.users[name]
	if !ok {
		return nil, mstorerr.ErrUsers
	}
	return u, nil
}

func (s *static) LookupGroup(name string) (*Group, error) {
	g, ok := s.groups[name]
	if !ok {
		return nil, mstorerr.ErrUsers
	}
	return g, nil
}

func (s *static) UserInGID(u *User, gid uint32) bool {
	if u.GID == gid {
		return true
	}
	for _, g := range u.Groups {
		if g == gid {
			return true
		}
	}
	return false
}
