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

// Package pathutil implements the canonicalize_path / path-splitting
// helper the resolver depends on. It is the one external collaborator
// of mstor.c's §4.4 that has no dependency of its own, so it is
// implemented directly rather than left abstract.
package pathutil

import (
	"strings"

	mstorerr "github.com/redfish/mstor/errors"
)

// Canonicalize collapses repeated slashes, resolves "." and "..", and
// rejects any path that would escape above "/". The result always
// begins with "/" and never ends with "/" unless it is exactly "/".
func Canonicalize(path string) (string, error) {
	if path == "" || path[0] != '/' {
		return "", mstorerr.ErrInvalid
	}

	parts := strings.Split(path, "/")
	stack := make([]string, 0, len(parts))
	for _, p := range parts {
		switch p {
		case "", ".":
			continue
		case "..":
			if len(stack) == 0 {
				return "", mstorerr.ErrInvalid
			}
			stack = stack[:len(stack)-1]
		default:
			stack = append(stack, p)
		}
	}
	if len(stack) == 0 {
		return "/", nil
	}
	return "/" + strings.Join(stack, "/"), nil
}

// Split breaks a canonicalized path into its path components. The
// root path "/" yields zero components, matching the resolver's
// corner case in §4.4.
func Split(canonical string) []string {
	if canonical == "/" {
		return nil
	}
	return strings.Split(strings.TrimPrefix(canonical, "/"), "/")
}
