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

// Package errors holds the POSIX-style sentinel errors mstor returns.
// Operation handlers return one of these for every failure they detect
// themselves; callers above mstor are expected to compare with
// errors.Is. A failure reported by the KV engine is returned as the
// engine's own error wrapped with context via
// github.com/cubefs/cubefs/blobstore/util/errors, not as one of these
// sentinels; Code maps such errors to EIO.
package errors

import "errors"

var (
	ErrNotExist     = errors.New("mstor: no such file or directory")
	ErrExist        = errors.New("mstor: file or directory already exists")
	ErrNotDir       = errors.New("mstor: not a directory")
	ErrIsDir        = errors.New("mstor: is a directory")
	ErrPermission   = errors.New("mstor: permission denied")
	ErrNotEmpty     = errors.New("mstor: directory not empty")
	ErrNameTooLong  = errors.New("mstor: name or record too long")
	ErrInvalid      = errors.New("mstor: invalid argument")
	ErrIO           = errors.New("mstor: storage engine error")
	ErrNoMemory     = errors.New("mstor: allocation failed")
	ErrNotSupported = errors.New("mstor: operation reserved, not implemented")
	ErrUsers        = errors.New("mstor: user lookup failed")
	ErrOverflow     = errors.New("mstor: identifier space exhausted")
)

// Code is the POSIX-style negative error code table from the module's
// on-disk error taxonomy. It exists for callers (dump tooling, tests)
// that want the numeric form rather than the Go sentinel.
func Code(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrNotExist):
		return -2 // ENOENT
	case errors.Is(err, ErrExist):
		return -17 // EEXIST
	case errors.Is(err, ErrNotDir):
		return -20 // ENOTDIR
	case errors.Is(err, ErrIsDir):
		return -21 // EISDIR
	case errors.Is(err, ErrPermission):
		return -1 // EPERM
	case errors.Is(err, ErrNotEmpty):
		return -39 // ENOTEMPTY
	case errors.Is(err, ErrNameTooLong):
		return -36 // ENAMETOOLONG
	case errors.Is(err, ErrInvalid):
		return -22 // EINVAL
	case errors.Is(err, ErrIO):
		return -5 // EIO
	case errors.Is(err, ErrNoMemory):
		return -12 // ENOMEM
	case errors.Is(err, ErrNotSupported):
		return -95 // ENOTSUP
	case errors.Is(err, ErrUsers):
		return -87 // EUSERS
	case errors.Is(err, ErrOverflow):
		return -75 // EOVERFLOW
	default:
		return -5 // EIO: unknown errors surface as I/O errors to callers
	}
}
