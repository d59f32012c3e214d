/*
 *
 * Copyright 2023 CubeFS authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 */

/*

# mstor: the metadata store of a redfish-style distributed filesystem

mstor owns one metadata server's hierarchical namespace: files,
directories, permissions, timestamps, and the mapping from files to the
chunk/replica locations that live on object storage daemons (OSDs). It
translates path-based filesystem operations into transactional
read/modify/write sequences against a single embedded ordered key/value
store, enforces POSIX-style access control, and allocates monotonically
increasing node and chunk identifiers.

## Data Model

The store is a flat ordered mapping from byte keys to byte values, with
the hierarchy folded into the key encoding rather than represented by
pointers:

* `n` + nid(8) -> node payload -- one metadata node, file or directory
* `c` + parent-nid(8) + name -> child-nid(8) -- a directory entry
* `f` + nid(8) + offset(8) -> cid(8) -- a file's chunk at offset
* `h` + cid(8) -> oid(4)... -- the replica set for one chunk

All integers are big-endian so lexicographic key order matches numeric
order; this is what lets chunk lookup and the node/chunk id allocators
work by seeking rather than scanning.

## Building Blocks

* gorocksdb, for the embedded ordered KV engine (see common/kvstore)
* golang.org/x/time/rate, for the limiter's byte-throughput budgets
* blobstore/util/log and blobstore/common/trace, for logging and tracing
* blobstore/util/errors, for wrapped, context-carrying error chains
* blobstore/common/config, for the dump tool's config loading

## Packages

* mstor -- the store itself: codec, bootstrap, id allocators, path
  resolution, permission checks, operation handlers, chunk index, dump
* errors -- the POSIX-style sentinel errors every handler returns
* pathutil -- path canonicalization and splitting
* udata -- the user/group directory interface mstor depends on
* replica -- the OSD replica-assignment interface
* common/kvstore -- the ordered KV engine abstraction
* util/limiter -- the read/write concurrency limiter
* cmd/mstor-dump -- an offline tool that opens a store and dumps it

*/

package mstor
