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
	"fmt"
	"io"

	"github.com/cubefs/cubefs/blobstore/util/errors"

	mstorerr "github.com/redfish/mstor/errors"
)

// Dump implements spec.md §4.8: a forward scan of the entire keyspace,
// dispatching on the discriminator byte and rendering one
// human-readable line per entry. An unknown discriminator aborts the
// dump but never mutates the store. The output passes through the
// store's write limiter so a dump against a cfg.WriteMBPS-bounded
// store can't burst past that budget just because it bypasses the kv
// engine.
func (s *Store) Dump(ctx context.Context, out io.Writer) error {
	lr := s.kv.List(ctx, metaCF, nil, nil, nil)
	defer lr.Close()

	lw := s.limiter.Writer(ctx, out)

	for {
		key, val, err := lr.ReadNextCopy()
		if err != nil {
			return errors.Info(err, "mstor: dump scan failed")
		}
		if key == nil {
			return nil
		}
		if err := dumpEntry(lw, key, val); err != nil {
			return err
		}
	}
}

func dumpEntry(out io.Writer, key, val []byte) error {
	if len(key) == 0 {
		return mstorerr.ErrInvalid
	}
	switch key[0] {
	case keyVersion:
		return dumpVersion(out, val)
	case keyNode:
		return dumpNode(out, key, val)
	case keyChild:
		return dumpChild(out, key, val)
	case keyFile:
		return dumpFile(out, key, val)
	case keyChunk:
		return dumpChunk(out, key, val)
	case keyUnlink:
		_, err := fmt.Fprintf(out, "UNLINK(%x)\n", key[1:])
		return err
	default:
		return mstorerr.ErrInvalid
	}
}

func dumpVersion(out io.Writer, val []byte) error {
	vers, err := decodeVersion(val)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "VERSION() => %d\n", vers)
	return err
}

func dumpNode(out io.Writer, key, val []byte) error {
	nid, ok := decodeNodeKey(key)
	if !ok {
		return mstorerr.ErrInvalid
	}
	p, err := unmarshalPayload(val)
	if err != nil {
		return err
	}
	ty := "FILE"
	if p.isDir() {
		ty = "DIR"
	}
	_, err = fmt.Fprintf(out, "NODE(0x%x) => { ty=%s, mode=%04o, mtime=%d, atime=%d, length=%d, uid='%d', gid='%d' }\n",
		nid, ty, p.mode(), p.Mtime, p.Atime, p.Length, p.UID, p.GID)
	return err
}

func dumpChild(out io.Writer, key, val []byte) error {
	if len(key) <= childKeyPrefLen {
		return mstorerr.ErrInvalid
	}
	pnid := keyUint64(key[1:childKeyPrefLen])
	name := decodeChildName(key)
	cnid, err := decodeUint64(val)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "CHILD(0x%x, %s) => 0x%x\n", pnid, name, cnid)
	return err
}

func dumpFile(out io.Writer, key, val []byte) error {
	nid, off, ok := decodeFileKey(key)
	if !ok {
		return mstorerr.ErrInvalid
	}
	cid, err := decodeUint64(val)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "FILE(0x%x, 0x%x) => 0x%x\n", nid, off, cid)
	return err
}

func dumpChunk(out io.Writer, key, val []byte) error {
	cid, ok := decodeChunkKey(key)
	if !ok {
		return mstorerr.ErrInvalid
	}
	oids, err := decodeOIDs(val)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "CHUNK(0x%x) => %x\n", cid, oids)
	return err
}

func keyUint64(b []byte) uint64 {
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v
}
