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
	"net/http"

	"github.com/go-kit/log/level"
	"github.com/spf13/cobra"

	"github.com/google/hierarchia/core/server"
	"github.com/google/hierarchia/core/treegrid"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve HTML snapshots of the grid",
		Long: "Serve HTML snapshots of the grid. The query parameters fields, group and\n" +
			"sort take comma separated lists, filter:FIELD a quick filter expression,\n" +
			"toggle and collapse a row key or group id, page and perPage the page.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := opts.load(cmd)
			if err != nil {
				return err
			}
			srv, err := s.server()
			if err != nil {
				return err
			}
			level.Info(s.logger).Log("msg", "serving grid", "addr", addr, "rows", len(s.rows))
			return http.ListenAndServe(addr, srv)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8097", "Listen address")
	return cmd
}

func (s *session) server() (*server.Server, error) {
	return server.NewServer("hierarchia", func() (*treegrid.Grid, error) {
		return s.grid(nil)
	}, s.fields, s.cols, s.logger)
}
