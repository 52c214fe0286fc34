/*
SPDX-License-Identifier: Apache-2.0

Copyright 2026 The Hierarchia Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    https://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package datasources loads grid rows from files. Loaders are looked up by
// source type in a Registry; "csv", "json" and "proto" are built in and users can
// register loaders for other formats.
package datasources

import (
	"sort"
	"sync"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"

	"github.com/google/hierarchia/core/columns"
	"github.com/google/hierarchia/core/records"
)

// ErrUnknownSource is returned for source types without a loader.
var ErrUnknownSource = errors.New("unknown source type")

// Loader is the interface that all data source loaders implement.
type Loader interface {
	// SourceType returns the type identifier used in configs, e.g. "csv".
	SourceType() string
	// Load reads the rows described by config. Every loader requires the
	// "file_path" key; other keys are loader specific.
	Load(config map[string]string) ([]records.Row, error)
}

// Registry holds loaders by source type.
type Registry struct {
	mu      sync.RWMutex
	loaders map[string]Loader
	logger  log.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger log.Logger) *Registry {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Registry{loaders: make(map[string]Loader), logger: logger}
}

// NewDefaultRegistry creates a registry with the csv, json and proto
// loaders. The column metadata types csv cells.
func NewDefaultRegistry(cols columns.Provider, logger log.Logger) *Registry {
	r := NewRegistry(logger)
	r.Register(NewCsvLoader(cols))
	r.Register(NewJSONLoader())
	r.Register(NewProtoLoader())
	return r
}

// Register adds a loader, replacing any loader of the same source type.
func (r *Registry) Register(l Loader) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loaders[l.SourceType()] = l
}

// SourceTypes returns the registered source types, sorted.
func (r *Registry) SourceTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.loaders))
	for t := range r.loaders {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Load reads rows with the loader registered for sourceType.
func (r *Registry) Load(sourceType string, config map[string]string) ([]records.Row, error) {
	r.mu.RLock()
	l, ok := r.loaders[sourceType]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.Wrapf(ErrUnknownSource, "%q", sourceType)
	}
	rows, err := l.Load(config)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s source %s", sourceType, config["file_path"])
	}
	level.Debug(r.logger).Log("msg", "loaded source", "type", sourceType, "path", config["file_path"], "rows", len(rows))
	return rows, nil
}

func filePath(config map[string]string) (string, error) {
	p := config["file_path"]
	if p == "" {
		return "", errors.New("file_path is required")
	}
	return p, nil
}
