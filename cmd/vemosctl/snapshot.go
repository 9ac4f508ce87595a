package main

import (
	"bytes"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/hupe1980/vemos"
	"github.com/hupe1980/vemos/blobstore"
	"github.com/hupe1980/vemos/manifest"
	"github.com/hupe1980/vemos/persistence"
)

func newSnapshotCmd(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Inspect and maintain dataset snapshots",
	}
	cmd.AddCommand(
		newSnapshotListCmd(g),
		newSnapshotInspectCmd(g),
		newSnapshotVerifyCmd(g),
		newSnapshotPruneCmd(g),
	)
	return cmd
}

func openManifests(cmd *cobra.Command, uri string, g *globalOptions) (*manifest.Store, error) {
	bs, err := openStore(cmd.Context(), uri, g)
	if err != nil {
		return nil, err
	}
	return manifest.NewStore(bs, nil), nil
}

// loadManifest returns the manifest with the given id, or the current one
// for id 0.
func loadManifest(cmd *cobra.Command, ms *manifest.Store, id uint64) (*manifest.Manifest, error) {
	if id != 0 {
		return ms.LoadID(cmd.Context(), id)
	}
	m, err := ms.Load(cmd.Context())
	if err != nil {
		return nil, err
	}
	if m.ID == 0 {
		return nil, vemos.ErrNoSnapshot
	}
	return m, nil
}

func newSnapshotListCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list STORE",
		Short: "List the snapshot versions of a store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ms, err := openManifests(cmd, args[0], g)
			if err != nil {
				return err
			}
			current, err := ms.Load(cmd.Context())
			if err != nil {
				return err
			}
			ids, err := ms.List(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, id := range ids {
				m, err := ms.LoadID(cmd.Context(), id)
				if err != nil {
					return err
				}
				marker := " "
				if id == current.ID {
					marker = "*"
				}
				fmt.Fprintf(out, "%s %6d  %s  %d records  %d metrics\n",
					marker, id, m.CreatedAt.Format(time.RFC3339), m.Records.Count, len(m.Metrics))
			}
			return nil
		},
	}
}

func newSnapshotInspectCmd(g *globalOptions) *cobra.Command {
	var (
		id      uint64
		asJSON  bool
		headers bool
	)
	cmd := &cobra.Command{
		Use:   "inspect STORE",
		Short: "Print a snapshot manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ms, err := openManifests(cmd, args[0], g)
			if err != nil {
				return err
			}
			m, err := loadManifest(cmd, ms, id)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				b, err := json.MarshalIndent(m, "", "  ")
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(out, "%s\n", b)
				return err
			}

			fmt.Fprintf(out, "snapshot %d of %q, created %s\n", m.ID, m.Name, m.CreatedAt.Format(time.RFC3339))
			fmt.Fprintf(out, "codec %s, reducer %s, %d records\n", m.Codec, m.Reducer, m.Records.Count)
			for _, mi := range m.Metrics {
				fmt.Fprintf(out, "metric %s (%s): %d pairs, %d labels, %s, %d bytes\n",
					mi.Name, mi.Kind, mi.Pairs, mi.Truths, mi.Compression, mi.Size)
				if !headers {
					continue
				}
				data, err := blobstore.ReadAll(cmd.Context(), ms.Blobs(), mi.Path)
				if err != nil {
					return err
				}
				info, err := persistence.Inspect(bytes.NewReader(data))
				if err != nil {
					return fmt.Errorf("%s: %w", mi.Path, err)
				}
				fmt.Fprintf(out, "  header: %s, %s, %d pairs, %d labels\n", info.Metric, info.Compression, info.Pairs, info.Truths)
			}
			for _, gi := range m.Groupings {
				fmt.Fprintf(out, "grouping %s: %d labels\n", gi.Name, len(gi.Labels))
			}
			return nil
		},
	}
	cmd.Flags().Uint64Var(&id, "version", 0, "Snapshot version (default current)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw manifest")
	cmd.Flags().BoolVar(&headers, "headers", false, "Read the header of every metric file")
	return cmd
}

func newSnapshotVerifyCmd(g *globalOptions) *cobra.Command {
	var id uint64
	cmd := &cobra.Command{
		Use:   "verify STORE",
		Short: "Restore a snapshot and check every file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ms, err := openManifests(cmd, args[0], g)
			if err != nil {
				return err
			}
			opts, err := g.datasetOptions(cmd)
			if err != nil {
				return err
			}
			var d *vemos.Dataset
			if id != 0 {
				d, err = vemos.RestoreVersion(cmd.Context(), ms, id, opts...)
			} else {
				d, err = vemos.Restore(cmd.Context(), ms, opts...)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d records, %d metrics, %d groupings\n",
				d.Records().Len(), len(d.Metrics()), len(d.Groupings().Names()))
			return nil
		},
	}
	cmd.Flags().Uint64Var(&id, "version", 0, "Snapshot version (default current)")
	return cmd
}

func newSnapshotPruneCmd(g *globalOptions) *cobra.Command {
	var keep int
	cmd := &cobra.Command{
		Use:   "prune STORE",
		Short: "Delete old snapshot versions and unreferenced files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if keep < 1 {
				return fmt.Errorf("--keep must be at least 1")
			}
			ms, err := openManifests(cmd, args[0], g)
			if err != nil {
				return err
			}
			deleted, err := ms.Prune(cmd.Context(), keep)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, name := range deleted {
				fmt.Fprintf(out, "deleted %s\n", name)
			}
			fmt.Fprintf(out, "%d files deleted\n", len(deleted))
			return nil
		},
	}
	cmd.Flags().IntVar(&keep, "keep", 1, "Number of newest versions to keep")
	return cmd
}
