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

// Key family discriminators, see spec.md §3.
const (
	keyVersion = 'v'
	keyNode    = 'n'
	keyChild   = 'c'
	keyFile    = 'f'
	keyChunk   = 'h'
	keyUnlink  = 'u'
)

const (
	nodeKeyLen      = 1 + 8
	childKeyPrefLen = 1 + 8
	fileKeyLen      = 1 + 8 + 8
	chunkKeyLen     = 1 + 8
)

// All on-disk integers are big-endian: lexicographic key order must
// match numeric order for the iterator-based lookups in §4.4/§4.6/§4.7
// to work.

func encodeNodeKey(nid uint64) []byte {
	k := make([]byte, nodeKeyLen)
	k[0] = keyNode
	binary.BigEndian.PutUint64(k[1:], nid)
	return k
}

func decodeNodeKey(k []byte) (nid uint64, ok bool) {
	if len(k) != nodeKeyLen || k[0] != keyNode {
		return 0, false
	}
	return binary.BigEndian.Uint64(k[1:]), true
}

func encodeChildKeyPrefix(parent uint64) []byte {
	k := make([]byte, childKeyPrefLen)
	k[0] = keyChild
	binary.BigEndian.PutUint64(k[1:], parent)
	return k
}

func encodeChildKey(parent uint64, name string) []byte {
	prefix := encodeChildKeyPrefix(parent)
	k := make([]byte, len(prefix)+len(name))
	copy(k, prefix)
	copy(k[len(prefix):], name)
	return k
}

func decodeChildName(k []byte) string {
	return string(k[childKeyPrefLen:])
}

func encodeFileKeyPrefix(nid uint64) []byte {
	k := make([]byte, 1+8)
	k[0] = keyFile
	binary.BigEndian.PutUint64(k[1:], nid)
	return k
}

func encodeFileKey(nid, offset uint64) []byte {
	k := make([]byte, fileKeyLen)
	k[0] = keyFile
	binary.BigEndian.PutUint64(k[1:9], nid)
	binary.BigEndian.PutUint64(k[9:], offset)
	return k
}

func decodeFileKey(k []byte) (nid, offset uint64, ok bool) {
	if len(k) != fileKeyLen || k[0] != keyFile {
		return 0, 0, false
	}
	return binary.BigEndian.Uint64(k[1:9]), binary.BigEndian.Uint64(k[9:]), true
}

func encodeChunkKey(cid uint64) []byte {
	k := make([]byte, chunkKeyLen)
	k[0] = keyChunk
	binary.BigEndian.PutUint64(k[1:], cid)
	return k
}

func decodeChunkKey(k []byte) (cid uint64, ok bool) {
	if len(k) != chunkKeyLen || k[0] != keyChunk {
		return 0, false
	}
	return binary.BigEndian.Uint64(k[1:]), true
}

func encodeUint64(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func decodeUint64(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, mstorerr.ErrIO
	}
	return binary.BigEndian.Uint64(b), nil
}

func encodeOIDs(oids []uint32) []byte {
	b := make([]byte, 4*len(oids))
	for i, oid := range oids {
		binary.BigEndian.PutUint32(b[i*4:], oid)
	}
	return b
}

func decodeOIDs(b []byte) ([]uint32, error) {
	if len(b)%4 != 0 {
		return nil, mstorerr.ErrIO
	}
	oids := make([]uint32, len(b)/4)
	for i := range oids {
		oids[i] = binary.BigEndian.Uint32(b[i*4:])
	}
	return oids, nil
}

var versionKey = []byte{keyVersion}

func encodeVersion(v uint32) []byte {
	b := make([]byte, 8)
	copy(b, versionMagic)
	binary.BigEndian.PutUint32(b[4:], v)
	return b
}

func decodeVersion(b []byte) (uint32, error) {
	if len(b) != 8 || string(b[:4]) != versionMagic {
		return 0, mstorerr.ErrInvalid
	}
	return binary.BigEndian.Uint32(b[4:]), nil
}
