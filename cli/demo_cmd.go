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
	"github.com/spf13/cobra"

	"github.com/google/hierarchia/demo"
)

func newDemoCmd(opts *rootOptions) *cobra.Command {
	flags := &viewFlags{}
	var nested bool
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Render the sample employee hierarchy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := demo.Config()
			if err != nil {
				return err
			}
			rows, err := demo.Employees()
			if err != nil {
				return err
			}
			if nested {
				if cfg, err = demo.NestedConfig(); err != nil {
					return err
				}
				if rows, err = demo.NestedEmployees(); err != nil {
					return err
				}
			}
			s, err := opts.newSession(cmd, cfg, rows)
			if err != nil {
				return err
			}
			g, err := s.grid(nil)
			if err != nil {
				return err
			}
			if err := flags.apply(g); err != nil {
				return err
			}
			return s.render(cmd, g, flags, "hierarchia demo")
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&nested, "nested", false, "Use the nested variant of the data")
	return cmd
}
