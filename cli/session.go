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

package cli

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-kit/log"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/google/hierarchia/core/columns"
	"github.com/google/hierarchia/core/config"
	"github.com/google/hierarchia/core/ids"
	"github.com/google/hierarchia/core/records"
	"github.com/google/hierarchia/core/transactions"
	"github.com/google/hierarchia/core/treegrid"
	"github.com/google/hierarchia/datasources"
	"github.com/google/hierarchia/demo"
)

// session is the configuration and data one command works on.
type session struct {
	cfg    *config.Config
	cols   *columns.Set
	rows   []records.Row
	fields []string
	logger log.Logger
}

func (o *rootOptions) load(cmd *cobra.Command) (*session, error) {
	if o.configPath == "" {
		cfg, err := demo.Config()
		if err != nil {
			return nil, err
		}
		var rows []records.Row
		if o.dataPath == "" {
			if rows, err = demo.Employees(); err != nil {
				return nil, err
			}
		}
		return o.newSession(cmd, cfg, rows)
	}

	if o.dataPath == "" {
		return nil, errors.New("--data is required with --config")
	}
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	return o.newSession(cmd, cfg, nil)
}

// newSession completes a session, loading the data file when rows is nil.
func (o *rootOptions) newSession(cmd *cobra.Command, cfg *config.Config, rows []records.Row) (*session, error) {
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	if o.logFormat != "" {
		cfg.Logging.Format = o.logFormat
	}
	logger, err := cfg.Logger(cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	cols, err := cfg.ColumnSet()
	if err != nil {
		return nil, err
	}

	if rows == nil {
		rows, err = datasources.NewDefaultRegistry(cols, logger).Load(sourceType(o.dataPath), map[string]string{
			"file_path":      o.dataPath,
			"field":          o.field,
			"message_type":   o.message,
			"descriptor_set": o.descriptor,
		})
		if err != nil {
			return nil, err
		}
	}
	return &session{
		cfg:    cfg,
		cols:   cols,
		rows:   rows,
		fields: displayFields(cfg, cols, rows),
		logger: logger,
	}, nil
}

// grid creates a grid over the session rows. A journal turns on batch
// editing.
func (s *session) grid(journal transactions.Store) (*treegrid.Grid, error) {
	opts, err := s.cfg.GridOptions(s.logger)
	if err != nil {
		return nil, err
	}
	if journal != nil {
		opts.BatchEditing = true
		opts.Journal = journal
		opts.IDs = ids.NewUUIDAllocator()
	}
	g, err := treegrid.New(s.rows, opts)
	if err != nil {
		return nil, err
	}
	if err := s.cfg.Apply(g); err != nil {
		return nil, err
	}
	return g, nil
}

func sourceType(path string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	switch ext {
	case "textproto", "txtpb", "binpb":
		return "proto"
	}
	return ext
}

// displayFields lists the configured columns except the hierarchy keys, or
// the fields of the first row when no column is configured.
func displayFields(cfg *config.Config, cols *columns.Set, rows []records.Row) []string {
	hidden := map[string]bool{cfg.PrimaryKey: true, cfg.ForeignKey: true, cfg.ChildDataKey: true, cfg.HasChildrenKey: true}
	names := cols.Names()
	if len(names) == 0 && len(rows) > 0 {
		for k := range rows[0] {
			names = append(names, k)
		}
		sort.Strings(names)
	}
	var fields []string
	for _, n := range names {
		if !hidden[n] {
			fields = append(fields, n)
		}
	}
	return fields
}
