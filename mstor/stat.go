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

// StatEntry is the decoded form of the wire stat record §6 describes.
// block_sz is carried for wire compatibility but is always zero: the
// source never sizes it either (see DESIGN.md's Open Question decisions).
type StatEntry struct {
	Name        string
	ModeAndType uint16
	BlockSize   uint32
	Mtime       int64
	Atime       int64
	Length      uint64
	ManRepl     uint8
	UID         uint32
	GID         uint32
}

// statHeaderLen is stat_len(2) + mode_and_type(2) + block_sz(4) +
// mtime(8) + atime(8) + length(8) + man_repl(1) + uid(4) + gid(4).
const statHeaderLen = 2 + 2 + 4 + 8 + 8 + 8 + 1 + 4 + 4

// nameLenPrefix is the width of the length prefix on the trailing name
// field.
const nameLenPrefix = 2

func newStatEntry(name string, p *payload, manRepl uint8) StatEntry {
	return StatEntry{
		Name:        name,
		ModeAndType: p.ModeAndType,
		Mtime:       p.Mtime,
		Atime:       p.Atime,
		Length:      p.Length,
		ManRepl:     manRepl,
		UID:         p.UID,
		GID:         p.GID,
	}
}

// EncodedLen is the exact number of bytes Marshal produces.
func (e StatEntry) EncodedLen() int {
	return statHeaderLen + nameLenPrefix + len(e.Name)
}

// Marshal renders e as the big-endian wire record from spec.md §6.
// Callers append records to a caller-supplied buffer; when a record
// would overflow the remaining capacity the whole call must fail
// ENAMETOOLONG rather than emit a partial record, so Marshal itself
// never partially writes.
func (e StatEntry) Marshal() ([]byte, error) {
	n := e.EncodedLen()
	if n > 0xffff {
		return nil, mstorerr.ErrNameTooLong
	}
	b := make([]byte, n)
	binary.BigEndian.PutUint16(b[0:2], uint16(n))
	binary.BigEndian.PutUint16(b[2:4], e.ModeAndType)
	binary.BigEndian.PutUint32(b[4:8], e.BlockSize)
	binary.BigEndian.PutUint64(b[8:16], uint64(e.Mtime))
	binary.BigEndian.PutUint64(b[16:24], uint64(e.Atime))
	binary.BigEndian.PutUint64(b[24:32], e.Length)
	b[32] = e.ManRepl
	binary.BigEndian.PutUint32(b[33:37], e.UID)
	binary.BigEndian.PutUint32(b[37:41], e.GID)
	binary.BigEndian.PutUint16(b[41:43], uint16(len(e.Name)))
	copy(b[43:], e.Name)
	return b, nil
}
