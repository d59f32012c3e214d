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

const (
	// SuperuserUID is the one uid permission checks never apply to.
	SuperuserUID uint32 = 0
	SuperuserGID uint32 = 0

	// RootNID is the fixed node id of the root directory.
	RootNID uint64 = 0

	// NIDMax and CIDMax are the ceilings of the node and chunk id
	// spaces; an allocation that reaches them fails with ErrOverflow.
	NIDMax uint64 = 0xffffffffffff0000
	CIDMax uint64 = 0xffffffffffff0000

	// PathMax bounds an incoming full_path; PCompMax bounds a single
	// path component (child name).
	PathMax  = 4096
	PCompMax = 255

	rootInitMode uint16 = 0o755 | modeIsDir

	versionMagic  = "Fish"
	currentSchema = uint32(1)
)

// permission bits, matching the POSIX rwx layout the on-disk mode
// packs: exec/write/read for owner<<6, group<<3, other<<0.
const (
	permExec  = 0o1
	permWrite = 0o2
	permRead  = 0o4
)

// modeIsDir is the high bit of the 16-bit mode_and_type field.
const modeIsDir uint16 = 0x8000

// InvalidTime means "leave this timestamp unchanged" in a UTIMES
// request.
const InvalidTime int64 = -1
