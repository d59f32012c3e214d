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

package main

import (
	"context"
	"os"

	"github.com/cubefs/cubefs/blobstore/common/config"
	"github.com/cubefs/cubefs/blobstore/util/errors"
	"github.com/cubefs/cubefs/blobstore/util/log"

	"github.com/redfish/mstor/common/kvstore"
	"github.com/redfish/mstor/mstor"
	"github.com/redfish/mstor/replica"
	"github.com/redfish/mstor/udata"
)

// Config is the resolved record mstor-dump reads off disk; it embeds
// the subset of mstor.Config that is meaningful outside of a running
// MDS (no Directory/Assigner -- the dump tool never mutates anything
// that would need them).
type Config struct {
	Path      string         `json:"path"`
	KVOption  kvstore.Option `json:"kv_option"`
	CacheSize uint64         `json:"cache_size"`
	ManRepl   uint8          `json:"man_repl"`
	LogLevel  log.Level      `json:"log_level"`
}

func main() {
	config.Init("f", "", "mstor_dump.json")

	cfg := &Config{}
	if err := config.Load(cfg); err != nil {
		log.Fatal(errors.Detail(err))
	}
	log.SetOutputLevel(cfg.LogLevel)

	store, err := mstor.Open(context.Background(), &mstor.Config{
		Path:      cfg.Path,
		KVOption:  cfg.KVOption,
		CacheSize: cfg.CacheSize,
		ManRepl:   cfg.ManRepl,
		Directory: udata.NewStatic(nil, nil),
		Assigner:  replica.NewRoundRobin(nil),
	})
	if err != nil {
		log.Fatalf("mstor-dump: open failed: %s", err)
	}
	defer store.Close()

	if err := store.Dump(context.Background(), os.Stdout); err != nil {
		log.Fatalf("mstor-dump: dump failed: %s", err)
	}
}
