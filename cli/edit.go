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
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/google/hierarchia/core/records"
	"github.com/google/hierarchia/core/server"
	"github.com/google/hierarchia/core/transactions"
	"github.com/google/hierarchia/core/treegrid"
	"github.com/google/hierarchia/datasources"
)

const demoJournal = "hierarchia-demo.journal"

type editOptions struct {
	root    *rootOptions
	journal string
}

func newEditCmd(opts *rootOptions) *cobra.Command {
	eo := &editOptions{root: opts}
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Record batch edits in a journal and commit them",
		Long: "Batch edits are journaled in a bbolt file next to the data file and stay\n" +
			"pending until commit writes the data back.",
	}
	cmd.PersistentFlags().StringVar(&eo.journal, "journal", "", "Journal file, defaults to the data file with a .journal suffix")

	cmd.AddCommand(eo.newAddCmd())
	cmd.AddCommand(eo.newUpdateCmd())
	cmd.AddCommand(eo.newDeleteCmd())
	cmd.AddCommand(eo.newCommitCmd())
	cmd.AddCommand(eo.newStepCmd("undo", "Revert the last edit", (*treegrid.Grid).Undo))
	cmd.AddCommand(eo.newStepCmd("redo", "Reapply the last reverted edit", (*treegrid.Grid).Redo))
	cmd.AddCommand(eo.newStepCmd("discard", "Drop all pending edits", (*treegrid.Grid).Discard))
	cmd.AddCommand(eo.newStatusCmd())
	return cmd
}

func (eo *editOptions) journalPath() string {
	switch {
	case eo.journal != "":
		return eo.journal
	case eo.root.dataPath != "":
		return eo.root.dataPath + ".journal"
	}
	return demoJournal
}

// run opens the journal, restores the pending edits and calls fn.
func (eo *editOptions) run(cmd *cobra.Command, fn func(*session, *treegrid.Grid) error) (err error) {
	s, err := eo.root.load(cmd)
	if err != nil {
		return err
	}
	store, err := transactions.OpenBoltStore(eo.journalPath())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	g, err := s.grid(store)
	if err != nil {
		return err
	}
	return fn(s, g)
}

func (eo *editOptions) newAddCmd() *cobra.Command {
	var parent string
	var set []string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a row",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return eo.run(cmd, func(s *session, g *treegrid.Grid) error {
				row, err := parseAssignments(s.cols, set)
				if err != nil {
					return err
				}
				var parentKey any
				if parent != "" {
					parentKey = server.RowKey(parent, nil)
				}
				if err := g.AddRow(row, parentKey); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "added %v\n", row[s.cfg.PrimaryKey])
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&parent, "parent", "", "Key of the parent row, empty for a top-level row")
	cmd.Flags().StringArrayVar(&set, "set", nil, "Field assignment field=value, repeatable")
	return cmd
}

func (eo *editOptions) newUpdateCmd() *cobra.Command {
	var set []string
	cmd := &cobra.Command{
		Use:   "update KEY",
		Short: "Change fields of a row",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return eo.run(cmd, func(s *session, g *treegrid.Grid) error {
				changes, err := parseAssignments(s.cols, set)
				if err != nil {
					return err
				}
				if len(changes) == 0 {
					return errors.New("nothing to update, pass --set")
				}
				if err := g.UpdateRow(server.RowKey(args[0], nil), changes); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "updated %s\n", args[0])
				return nil
			})
		},
	}
	cmd.Flags().StringArrayVar(&set, "set", nil, "Field assignment field=value, repeatable")
	return cmd
}

func (eo *editOptions) newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete KEY",
		Short: "Delete a row",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return eo.run(cmd, func(_ *session, g *treegrid.Grid) error {
				if err := g.DeleteRow(server.RowKey(args[0], nil)); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
				return nil
			})
		},
	}
}

func (eo *editOptions) newCommitCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Apply the pending edits and write the data as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if out == "" {
				out = eo.root.dataPath
			}
			if sourceType(out) != "json" {
				return errors.New("commit writes JSON, pass --out with a .json file")
			}
			return eo.run(cmd, func(_ *session, g *treegrid.Grid) error {
				pending := len(g.Transactions().Pending())
				err := g.CommitTo(func(data []records.Row) error {
					return writeJSONFile(out, data)
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "committed %d changes to %s\n", pending, out)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file, defaults to the data file")
	return cmd
}

// writeJSONFile replaces path with rows through a temporary file in the
// same directory.
func writeJSONFile(path string, rows []records.Row) (err error) {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(f.Name())
		}
	}()
	if err := datasources.WriteJSON(f, rows); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return errors.Wrapf(os.Rename(f.Name(), path), "writing %s", path)
}

func (eo *editOptions) newStepCmd(use, short string, step func(*treegrid.Grid) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return eo.run(cmd, func(_ *session, g *treegrid.Grid) error {
				if err := step(g); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d pending\n", len(g.Transactions().Pending()))
				return nil
			})
		},
	}
}

func (eo *editOptions) newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "List the pending edits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return eo.run(cmd, func(_ *session, g *treegrid.Grid) error {
				txlog := g.Transactions()
				w := cmd.OutOrStdout()
				for _, st := range txlog.Pending() {
					fmt.Fprintf(w, "%-6s %v\n", st.Kind, st.RowKey)
				}
				fmt.Fprintf(w, "%d pending, %d transactions, undo %t, redo %t\n",
					len(txlog.Pending()), txlog.Len(), txlog.CanUndo(), txlog.CanRedo())
				return nil
			})
		},
	}
}
