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
	"encoding/binary"

	mstorerr "github.com/redfish/mstor/errors"
)

// nodePayloadLen is the packed, fixed-width size of a node record:
// mtime(8) atime(8) length(8) uid(4) gid(4) mode_and_type(2).
const nodePayloadLen = 8 + 8 + 8 + 4 + 4 + 2

// payload is the decoded form of a node's value. Directories always
// carry length == 0 (deliberate, unused waste -- see spec.md §3).
type payload struct {
	Mtime       int64
	Atime       int64
	Length      uint64
	UID         uint32
	GID         uint32
	ModeAndType uint16
}

func (p *payload) isDir() bool {
	return p.ModeAndType&modeIsDir != 0
}

func (p *payload) mode() uint16 {
	return p.ModeAndType &^ modeIsDir
}

func (p *payload) marshal() []byte {
	b := make([]byte, nodePayloadLen)
	binary.BigEndian.PutUint64(b[0:8], uint64(p.Mtime))
	binary.BigEndian.PutUint64(b[8:16], uint64(p.Atime))
	binary.BigEndian.PutUint64(b[16:24], p.Length)
	binary.BigEndian.PutUint32(b[24:28], p.UID)
	binary.BigEndian.PutUint32(b[28:32], p.GID)
	binary.BigEndian.PutUint16(b[32:34], p.ModeAndType)
	return b
}

func unmarshalPayload(b []byte) (*payload, error) {
	if len(b) != nodePayloadLen {
		return nil, mstorerr.ErrIO
	}
	return &payload{
		Mtime:       int64(binary.BigEndian.Uint64(b[0:8])),
		Atime:       int64(binary.BigEndian.Uint64(b[8:16])),
		Length:      binary.BigEndian.Uint64(b[16:24]),
		UID:         binary.BigEndian.Uint32(b[24:28]),
		GID:         binary.BigEndian.Uint32(b[28:32]),
		ModeAndType: binary.BigEndian.Uint16(b[32:34]),
	}, nil
}

func newMode(mode uint16, isDir bool) uint16 {
	m := mode &^ modeIsDir
	if isDir {
		m |= modeIsDir
	}
	return m
}
