package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/INLOpen/tombstones/dump"
	"github.com/INLOpen/tombstones/partition"
	"github.com/INLOpen/tombstones/rangetombstone"
	"github.com/spf13/cobra"
)

const diffSuffix = ".diff.rtl"

func newInspectCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect FILE",
		Short: "Print the header, a summary and the tombstones of a dump",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			f, err := a.readDump(args[0])
			if err != nil {
				return err
			}
			summary, err := partition.Summarize(f.List, int32(time.Now().Unix()))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "file: %s\n", args[0])
			fmt.Fprintf(out, "format version: %d\n", f.Header.Version)
			fmt.Fprintf(out, "protocol version: %s\n", f.Header.ProtocolVersion)
			fmt.Fprintf(out, "compression: %s\n", f.Header.CompressorType)
			fmt.Fprintf(out, "created at: %s\n", time.Unix(0, f.Header.CreatedAt).UTC().Format(time.RFC3339Nano))
			fmt.Fprintf(out, "payload bytes: %d\n", f.PayloadSize)
			printSummary(out, summary)

			for i, t := range f.List.All() {
				if limit >= 0 && i >= limit {
					fmt.Fprintf(out, "... %d more\n", f.List.Len()-limit)
					break
				}
				fmt.Fprintf(out, "%d\t%s\tdeleted at %d\n", i, t, t.LocalDeletionTime)
			}
			return nil
		},
	}
	cmd.Flags().Int("limit", 20, "maximum number of tombstones to print, negative for all")
	return cmd
}

func printSummary(out io.Writer, s partition.Summary) {
	fmt.Fprintf(out, "tombstones: %d (%d single-name)\n", s.Count, s.SingleNames)
	fmt.Fprintf(out, "data size: %d bytes, serialized %d bytes\n", s.DataSize, s.SerializedSize)
	if s.Count == 0 {
		return
	}
	fmt.Fprintf(out, "marked at: min %d, max %d\n", s.MinMarkedAt, s.MaxMarkedAt)
	fmt.Fprintf(out, "age seconds: p50 %.0f, p99 %.0f, max %d\n", s.AgeP50, s.AgeP99, s.MaxAge)
}

func newCheckCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check FILE",
		Short: "Verify the checksum and ordering invariants of a dump",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := a.readDump(args[0])
			if err != nil {
				return err
			}
			if err := f.List.Validate(); err != nil {
				a.logger.Error("Dump violates ordering invariants.", "file", args[0], "error", err)
				return fmt.Errorf("%s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok, %d tombstones\n", args[0], f.List.Len())
			return nil
		},
	}
}

func newPurgeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "purge FILE -o OUT",
		Short: "Drop the tombstones deleted before a local deletion time",
		Long:  "purge drops every tombstone whose local deletion time is before --gc-before. Without --gc-before the configured grace period is subtracted from the current time.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			gcBefore, _ := cmd.Flags().GetInt32("gc-before")
			if !cmd.Flags().Changed("gc-before") {
				gcBefore = a.cfg.Purge.GCBefore(time.Now(), a.logger)
			}

			f, err := a.readDump(args[0])
			if err != nil {
				return err
			}
			d := a.newDeletions()
			d.Merge(cmd.Context(), f.List)
			removed := d.Purge(cmd.Context(), gcBefore)

			opts := dump.Options{Compression: f.Header.CompressorType, ProtocolVersion: f.Header.ProtocolVersion}
			if err := a.writeDump(output, d.Snapshot(), opts); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "purged %d of %d tombstones before %d, %d remain\n", removed, f.List.Len(), gcBefore, d.Len())
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "", "path of the purged dump")
	cmd.Flags().Int32("gc-before", 0, "local deletion time, in seconds, before which tombstones are dropped")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func newMergeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge FILE... -o OUT",
		Short: "Merge several dumps into one",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			opts, err := a.writeOptions(cmd)
			if err != nil {
				return err
			}
			d := a.newDeletions()
			for _, path := range args {
				f, err := a.readDump(path)
				if err != nil {
					return err
				}
				d.Merge(cmd.Context(), f.List)
			}
			if err := a.writeDump(output, d.Snapshot(), opts); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "merged %d dumps into %d tombstones\n", len(args), d.Len())
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "", "path of the merged dump")
	addCodecFlags(cmd)
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func newDiffCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff SUBSET SUPERSET",
		Short: "Print the tombstones of SUPERSET that SUBSET lacks or holds differently",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			subset, err := a.readDump(args[0])
			if err != nil {
				return err
			}
			superset, err := a.readDump(args[1])
			if err != nil {
				return err
			}

			diff := subset.List.Diff(superset.List)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d differing tombstones\n", diff.Len())
			for _, t := range diff.All() {
				fmt.Fprintf(out, "%s\n", t)
			}
			if output == "" {
				return nil
			}
			opts, err := a.writeOptions(cmd)
			if err != nil {
				return err
			}
			return a.writeDump(output, diff, opts)
		},
	}
	cmd.Flags().StringP("output", "o", "", "optional path to write the difference as a dump")
	addCodecFlags(cmd)
	return cmd
}

func newRepairCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repair FILE... --out-dir DIR",
		Short: "Compute the repair each replica dump needs to match the merge of all of them",
		Long:  "repair merges every replica dump and writes, for each replica that lacks tombstones, NAME" + diffSuffix + " holding what it must receive. The merge itself is written as superset.rtl.",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			outDir, _ := cmd.Flags().GetString("out-dir")
			opts, err := a.writeOptions(cmd)
			if err != nil {
				return err
			}

			responses := make([]*rangetombstone.List, len(args))
			for i, path := range args {
				f, err := a.readDump(path)
				if err != nil {
					return err
				}
				responses[i] = f.List
			}
			result, err := partition.Repair(cmd.Context(), a.cmp, responses, partition.RepairOptions{
				MaxConcurrency: a.cfg.Repair.MaxConcurrency,
				Logger:         a.logger,
				TracerProvider: a.tp,
				Metrics:        a.metrics,
			})
			if err != nil {
				return err
			}

			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("failed to create output directory %s: %w", outDir, err)
			}
			if err := a.writeDump(filepath.Join(outDir, "superset.rtl"), result.Superset, opts); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for i, path := range args {
				diff, ok := result.Diffs[i]
				if !ok {
					fmt.Fprintf(out, "%s: up to date\n", path)
					continue
				}
				name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + diffSuffix
				if err := a.writeDump(filepath.Join(outDir, name), diff, opts); err != nil {
					return err
				}
				fmt.Fprintf(out, "%s: %d tombstones to repair\n", path, diff.Len())
			}
			return nil
		},
	}
	cmd.Flags().String("out-dir", "", "directory receiving the superset and the per-replica repairs")
	addCodecFlags(cmd)
	_ = cmd.MarkFlagRequired("out-dir")
	return cmd
}

func newConvertCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert FILE -o OUT",
		Short: "Re-encode a dump with another protocol version or compression",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			opts, err := a.writeOptions(cmd)
			if err != nil {
				return err
			}
			f, err := a.readDump(args[0])
			if err != nil {
				return err
			}
			if err := a.writeDump(output, f.List, opts); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "converted %d tombstones from %s/%s to %s/%s\n", f.List.Len(),
				f.Header.ProtocolVersion, f.Header.CompressorType, opts.ProtocolVersion, opts.Compression)
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "", "path of the converted dump")
	addCodecFlags(cmd)
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

// addCodecFlags registers the flags overriding the configured encoding of
// written dumps.
func addCodecFlags(cmd *cobra.Command) {
	cmd.Flags().String("protocol-version", "", "protocol version of written dumps (1.2, 2.0, 2.1), default from config")
	cmd.Flags().String("compression", "", "compression of written dumps (none, snappy, lz4, zstd), default from config")
}

// writeOptions resolves the encoding of written dumps from the flags, falling
// back to the codec configuration.
func (a *app) writeOptions(cmd *cobra.Command) (dump.Options, error) {
	codec := a.cfg.Codec
	if v, _ := cmd.Flags().GetString("protocol-version"); v != "" {
		codec.ProtocolVersion = v
	}
	if c, _ := cmd.Flags().GetString("compression"); c != "" {
		codec.Compression = c
	}
	version, err := codec.ProtocolVersionValue()
	if err != nil {
		return dump.Options{}, err
	}
	compression, err := codec.CompressionType()
	if err != nil {
		return dump.Options{}, err
	}
	return dump.Options{Compression: compression, ProtocolVersion: version}, nil
}

func (a *app) readDump(path string) (*dump.File, error) {
	f, err := dump.ReadFile(path, a.cmp)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("Dump loaded.", "file", path, "tombstones", f.List.Len(),
		"protocol", f.Header.ProtocolVersion.String(), "compression", f.Header.CompressorType.String())
	return f, nil
}

func (a *app) writeDump(path string, list *rangetombstone.List, opts dump.Options) error {
	if path == "" {
		return errors.New("no output path given")
	}
	opts.Logger = a.logger
	return dump.WriteFile(path, list, opts)
}
