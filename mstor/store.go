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

// Package mstor implements the metadata store of a single MDS: the
// hierarchical namespace, POSIX-style permission checks, and the
// file -> chunk -> replica-set mapping, on top of one embedded ordered
// KV engine. See doc.go for the on-disk layout.
package mstor

import (
	"context"
	"hash/crc32"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cubefs/cubefs/blobstore/common/trace"
	"github.com/cubefs/cubefs/blobstore/util/errors"
	"github.com/cubefs/cubefs/blobstore/util/log"

	"github.com/redfish/mstor/common/kvstore"
	mstorerr "github.com/redfish/mstor/errors"
	"github.com/redfish/mstor/replica"
	"github.com/redfish/mstor/udata"
	"github.com/redfish/mstor/util/limiter"
)

// metaCF is the single column family mstor keeps all of its key
// families in; there is no reason to split v/n/c/f/h/u across column
// families since every family is range-scanned by its own prefix.
const metaCF = kvstore.CF("meta")

// keyLocksNum follows the teacher's shard.keyLocks striping: a fixed,
// allocation-free array is cheaper than a per-nid lock map and bounds
// worst-case contention the same way.
const keyLocksNum = 1024

// Config is the resolved configuration record mstor.Open receives;
// parsing it out of a config file is the caller's job (spec.md §1
// "Out of scope: configuration parsing").
type Config struct {
	Path       string         `json:"path"`
	KVOption   kvstore.Option `json:"kv_option"`
	CacheSize  uint64         `json:"cache_size"`
	ReadLimit  int            `json:"read_limit"`
	WriteLimit int            `json:"write_limit"`
	// ReadMBPS/WriteMBPS set the limiter's byte-throughput budgets,
	// independent of ReadLimit/WriteLimit's concurrent in-flight caps;
	// zero means unlimited. WriteMBPS bounds Dump's streaming output;
	// ordinary KV reads and writes are still gated by concurrency alone.
	ReadMBPS  int `json:"read_mbps"`
	WriteMBPS int `json:"write_mbps"`
	// ManRepl is the mandatory replica count stamped onto every stat
	// record this store produces (spec.md §6). The source reads this
	// straight from its own config rather than ever computing it, and
	// this does the same.
	ManRepl   uint8 `json:"man_repl"`
	Directory udata.Directory
	Assigner  replica.Assigner
}

// Store is the mstor core: one logical component wrapping one ordered
// KV store, per spec.md §2.
type Store struct {
	kv    kvstore.Store
	cache kvstore.LruCache

	// nextNID and nextCID are advanced with atomic.AddUint64; see
	// nextNid/nextCid below (spec.md §4.3).
	nextNID uint64
	nextCID uint64

	udata    udata.Directory
	assigner replica.Assigner
	limiter  limiter.Limiter
	manRepl  uint8

	keyLocks [keyLocksNum]sync.Mutex
}

// Open attaches to (or creates) the on-disk store at cfg.Path,
// bootstrapping a fresh schema or recovering the id allocators from an
// existing one. See spec.md §4.2.
func Open(ctx context.Context, cfg *Config) (*Store, error) {
	span := trace.SpanFromContext(ctx)

	kvOpt := cfg.KVOption
	kvOpt.CreateIfMissing = true
	kvOpt.CompactionStyle = kvstore.LevelStyle
	var cache kvstore.LruCache
	if cfg.CacheSize > 0 {
		cache = kvstore.NewCache(ctx, kvstore.RocksdbLsmKVType, cfg.CacheSize)
		kvOpt.Cache = cache
	}
	kvOpt.ColumnFamily = []kvstore.CF{metaCF}

	kv, err := kvstore.NewKVStore(ctx, cfg.Path, kvstore.RocksdbLsmKVType, &kvOpt)
	if err != nil {
		return nil, errors.Info(err, "mstor: open kv store failed")
	}

	s := &Store{
		kv:       kv,
		cache:    cache,
		udata:    cfg.Directory,
		assigner: cfg.Assigner,
		manRepl:  cfg.ManRepl,
		limiter: limiter.NewLimiter(limiter.LimitConfig{
			ReadConcurrency:  cfg.ReadLimit,
			WriteConcurrency: cfg.WriteLimit,
			ReadMBPS:         cfg.ReadMBPS,
			WriteMBPS:        cfg.WriteMBPS,
		}),
	}

	empty, err := s.isEmpty(ctx)
	if err != nil {
		kv.Close()
		return nil, err
	}
	if empty {
		span.Infof("mstor: bootstrapping new store at %s", cfg.Path)
		if err := s.bootstrap(ctx); err != nil {
			kv.Close()
			return nil, err
		}
	} else {
		span.Infof("mstor: loading existing store at %s", cfg.Path)
		if err := s.load(ctx); err != nil {
			kv.Close()
			return nil, err
		}
	}

	return s, nil
}

func (s *Store) Close() {
	s.kv.Close()
	if s.cache != nil {
		s.cache.Close()
	}
}

func (s *Store) isEmpty(ctx context.Context) (bool, error) {
	lr := s.kv.List(ctx, metaCF, nil, nil, nil)
	defer lr.Close()
	kg, _, err := lr.ReadNext()
	if err != nil {
		return false, errors.Info(err, "mstor: seek-to-first failed")
	}
	return kg == nil, nil
}

// bootstrap implements spec.md §4.2 step 1: write the version record
// and the root node, then seed the id allocators.
func (s *Store) bootstrap(ctx context.Context) error {
	now := time.Now().Unix()
	batch := s.kv.NewWriteBatch()
	defer batch.Close()

	batch.Put(metaCF, versionKey, encodeVersion(currentSchema))
	root := &payload{
		Mtime:       now,
		Atime:       now,
		Length:      0,
		UID:         SuperuserUID,
		GID:         SuperuserGID,
		ModeAndType: rootInitMode,
	}
	batch.Put(metaCF, encodeNodeKey(RootNID), root.marshal())

	if err := s.kv.Write(ctx, batch, nil); err != nil {
		return errors.Info(err, "mstor: bootstrap write failed")
	}

	atomic.StoreUint64(&s.nextNID, RootNID+1)
	atomic.StoreUint64(&s.nextCID, 1)
	runtimeFence()
	return nil
}

// load implements spec.md §4.2 step 2: read and validate the version
// record, then recover next_nid/next_cid from the tail of their
// respective key ranges.
func (s *Store) load(ctx context.Context) error {
	raw, err := s.kv.GetRaw(ctx, metaCF, versionKey, nil)
	if err != nil {
		if err == kvstore.ErrNotFound {
			return mstorerr.ErrInvalid
		}
		return errors.Info(err, "mstor: read version failed")
	}
	vers, err := decodeVersion(raw)
	if err != nil {
		log.Error("mstor: malformed version record")
		return mstorerr.ErrInvalid
	}
	if vers != currentSchema {
		log.Errorf("mstor: cannot understand schema version %d", vers)
		return mstorerr.ErrInvalid
	}

	nextNID, err := s.loadNextNID(ctx)
	if err != nil {
		return err
	}
	nextCID, err := s.loadNextCID(ctx)
	if err != nil {
		return err
	}
	atomic.StoreUint64(&s.nextNID, nextNID)
	atomic.StoreUint64(&s.nextCID, nextCID)
	runtimeFence()

	log.Infof("mstor: loaded store, next_nid=0x%x next_cid=0x%x", nextNID, nextCID)
	return nil
}

// loadNextNID seeks to the synthetic upper bound n||NIDMax and steps
// back one, per spec.md §4.2. The root node is always present by the
// time load runs, so the 'n' range can never be empty.
func (s *Store) loadNextNID(ctx context.Context) (uint64, error) {
	lr := s.kv.List(ctx, metaCF, nil, nil, nil)
	defer lr.Close()
	if err := lr.SeekForPrev(encodeNodeKey(NIDMax)); err != nil {
		return 0, errors.Info(err, "mstor: load next_nid failed")
	}
	key, _, err := lr.ReadPrevCopy()
	if err != nil {
		return 0, errors.Info(err, "mstor: load next_nid failed")
	}
	if key == nil {
		return 0, mstorerr.ErrInvalid
	}
	nid, ok := decodeNodeKey(key)
	if !ok {
		return 0, mstorerr.ErrInvalid
	}
	return nid + 1, nil
}

// loadNextCID mirrors loadNextNID over the h-key range; an empty range
// means no chunk has ever been allocated, so next_cid starts at 1.
func (s *Store) loadNextCID(ctx context.Context) (uint64, error) {
	lr := s.kv.List(ctx, metaCF, nil, nil, nil)
	defer lr.Close()
	if err := lr.SeekForPrev(encodeChunkKey(CIDMax)); err != nil {
		return 0, errors.Info(err, "mstor: load next_cid failed")
	}
	key, _, err := lr.ReadPrevCopy()
	if err != nil {
		return 0, errors.Info(err, "mstor: load next_cid failed")
	}
	if key == nil {
		return 1, nil
	}
	cid, ok := decodeChunkKey(key)
	if !ok {
		return 1, nil
	}
	return cid + 1, nil
}

func runtimeFence() {
	// Publish the freshly-seeded id allocators to every goroutine
	// before Open returns; atomic.Store* above already does this on
	// every arch Go supports, but a dedicated no-op call documents the
	// intent from spec.md §4.2/§4.3 ("publish with a full memory
	// fence").
}

func (s *Store) nextNid() (uint64, error) {
	nid := atomic.AddUint64(&s.nextNID, 1) - 1
	if nid >= NIDMax {
		return 0, mstorerr.ErrOverflow
	}
	return nid, nil
}

func (s *Store) nextCid() (uint64, error) {
	cid := atomic.AddUint64(&s.nextCID, 1) - 1
	if cid == 0 {
		cid = atomic.AddUint64(&s.nextCID, 1) - 1
	}
	if cid >= CIDMax {
		return 0, mstorerr.ErrOverflow
	}
	return cid, nil
}

// keyLock returns the striped mutex guarding read-modify-write access
// to nid, per spec.md §5/§9's requirement that open/chmod/chown/utimes
// not lose a concurrent update to the same node.
func (s *Store) keyLock(nid uint64) *sync.Mutex {
	var b [8]byte
	for i := 0; i < 8; i++ {
		b[i] = byte(nid >> (56 - 8*i))
	}
	idx := crc32.ChecksumIEEE(b[:]) % keyLocksNum
	return &s.keyLocks[idx]
}

// getNode fetches and decodes the node record at nid.
func (s *Store) getNode(ctx context.Context, nid uint64) (*payload, error) {
	if err := s.limiter.AcquireRead(); err != nil {
		return nil, mstorerr.ErrIO
	}
	defer s.limiter.ReleaseRead()

	raw, err := s.kv.GetRaw(ctx, metaCF, encodeNodeKey(nid), nil)
	if err != nil {
		if err == kvstore.ErrNotFound {
			return nil, mstorerr.ErrNotExist
		}
		return nil, errors.Info(err, "mstor: get node failed")
	}
	p, err := unmarshalPayload(raw)
	if err != nil {
		log.Errorf("mstor: malformed node record at nid=0x%x", nid)
		return nil, err
	}
	return p, nil
}

// putNode overwrites the node record at nid in a single-key write.
func (s *Store) putNode(ctx context.Context, nid uint64, p *payload) error {
	if err := s.limiter.AcquireWrite(); err != nil {
		return mstorerr.ErrIO
	}
	defer s.limiter.ReleaseWrite()

	if err := s.kv.SetRaw(ctx, metaCF, encodeNodeKey(nid), p.marshal(), nil); err != nil {
		return errors.Info(err, "mstor: put node failed")
	}
	return nil
}

// getChildNID looks up the child nid named name under parent.
func (s *Store) getChildNID(ctx context.Context, parent uint64, name string) (uint64, error) {
	raw, err := s.kv.GetRaw(ctx, metaCF, encodeChildKey(parent, name), nil)
	if err != nil {
		if err == kvstore.ErrNotFound {
			return 0, mstorerr.ErrNotExist
		}
		return 0, errors.Info(err, "mstor: get child failed")
	}
	return decodeUint64(raw)
}
