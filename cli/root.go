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

// Package cli implements the hierarchia command line.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Execute runs the CLI.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

type rootOptions struct {
	configPath string
	dataPath   string
	field      string
	message    string
	descriptor string
	logLevel   string
	logFormat  string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:   "hierarchia",
		Short: "Shape hierarchical data the way a tree grid does",
		Long: "Load flat (primary/foreign key) or nested rows, then filter, sort, group,\n" +
			"page and batch-edit them, rendering the result as text or HTML.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "Grid configuration file (YAML); the demo configuration when empty")
	pf.StringVarP(&opts.dataPath, "data", "d", "", "Data file (.csv, .json, .textproto, .txtpb or .binpb); the demo employees when empty")
	pf.StringVar(&opts.field, "field", "", "Top-level JSON field, or repeated message field of a proto, holding the rows")
	pf.StringVar(&opts.message, "message", "", "Root message name of a proto data file")
	pf.StringVar(&opts.descriptor, "descriptor-set", "", "Serialized FileDescriptorSet describing the proto data file")
	pf.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error), overrides the configuration")
	pf.StringVar(&opts.logFormat, "log-format", "", "Log format (logfmt, json), overrides the configuration")

	rootCmd.AddCommand(newViewCmd(opts))
	rootCmd.AddCommand(newServeCmd(opts))
	rootCmd.AddCommand(newEditCmd(opts))
	rootCmd.AddCommand(newDemoCmd(opts))
	return rootCmd
}
