package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ryogrid/wdbx/storage/format"
	"github.com/ryogrid/wdbx/wdbx"
	"github.com/ryogrid/wdbx/wdbx/wdbx_util"
)

// runInfo prints the header of each file. It needs no field definitions.
func runInfo(ws *wdbx.Workspace, w io.Writer, paths []string) error {
	failed := 0
	for _, p := range paths {
		data, err := ws.GetInstance().GetDiskManager().ReadFile(p)
		if err == nil {
			var h *format.Header
			if h, err = format.DecodeHeader(data); err == nil {
				printHeader(w, p, h)
				continue
			}
		}
		fmt.Fprintf(w, "%s: %v\n", p, err)
		failed++
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files could not be read", failed, len(paths))
	}
	return nil
}

func printHeader(w io.Writer, path string, h *format.Header) {
	fmt.Fprintf(w, "%s: %s\n", path, h.Variant)
	fmt.Fprintf(w, "  records      %d x %d bytes\n", h.RecordCount, h.RecordSize)
	fmt.Fprintf(w, "  fields       %d", h.FieldCount)
	if h.Variant.HasSparseBlock() {
		fmt.Fprintf(w, " (%d in total)", h.TotalFieldCount)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  strings      %d bytes\n", h.StringBlockSize)
	if h.Build != 0 {
		fmt.Fprintf(w, "  build        %d\n", h.Build)
	}
	if h.Variant.HasIDRange() {
		fmt.Fprintf(w, "  ids          %d..%d\n", h.MinID, h.MaxID)
		fmt.Fprintf(w, "  locale       0x%x\n", h.Locale)
	}
	if h.Variant.HasFieldStructure() {
		fmt.Fprintf(w, "  flags        0x%x\n", h.Flags)
		fmt.Fprintf(w, "  hashes       table 0x%08x layout 0x%08x\n", h.TableHash, h.LayoutHash)
	}
	for _, b := range h.Blocks() {
		fmt.Fprintf(w, "  %-12s %d +%d\n", b.Kind.String(), b.Offset, b.Size)
	}
}

// runDump writes the rows of each file as tab separated text, one header line of field
// names per file.
func runDump(ws *wdbx.Workspace, w io.Writer, paths []string, build uint32) error {
	for _, p := range paths {
		entry, err := ws.Load(p, build)
		if err != nil {
			return err
		}
		tf := entry.Table
		s := tf.GetSchema()
		names := make([]string, 0, s.GetColumnCount())
		for _, c := range s.GetColumns() {
			names = append(names, c.GetColumnName())
		}
		fmt.Fprintf(w, "# %s\n", p)
		fmt.Fprintln(w, strings.Join(names, "\t"))
		for it := tf.Begin(); !it.End(); it.Next() {
			fmt.Fprintln(w, strings.Join(wdbx_util.ConvRowToStrings(s, it.Current()), "\t"))
		}
		ws.RemoveEntry(p, entry.Build)
	}
	return nil
}

// runCheck decodes every file and reports the ones which fail.
func runCheck(ctx context.Context, ws *wdbx.Workspace, w io.Writer, paths []string, build uint32) error {
	res := ws.LoadFiles(ctx, paths, build)
	for _, r := range res.Results {
		if r.Err != nil {
			fmt.Fprintf(w, "FAIL %v\n", r.Err)
			continue
		}
		orphans := ""
		if n := len(r.Entry.Table.GetOrphanSparseIDs()); n > 0 {
			orphans = fmt.Sprintf(", %d orphan sparse ids", n)
		}
		fmt.Fprintf(w, "ok   %s (%s, %d rows%s)\n", r.Path, r.Entry.Table.GetVariant(), r.Entry.Table.RowCount(), orphans)
	}
	if failed := len(res.Failed()); failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(paths))
	}
	return nil
}

// runResave decodes every file and writes it back under outDir. Files which fail to
// decode are reported and skipped.
func runResave(ctx context.Context, ws *wdbx.Workspace, w io.Writer, paths []string, build uint32, outDir string) error {
	if outDir == "" {
		return fmt.Errorf("resave needs an output directory")
	}
	loaded := ws.LoadFiles(ctx, paths, build)
	for _, e := range loaded.Succeeded() {
		e.Table.MarkChanged()
	}
	saved := ws.SaveAll(ctx, outDir)
	for _, r := range append(loaded.Failed(), saved.Failed()...) {
		fmt.Fprintf(w, "FAIL %v\n", r.Err)
	}
	for _, e := range saved.Succeeded() {
		fmt.Fprintf(w, "ok   %s\n", e.Path)
	}
	if failed := len(loaded.Failed()) + len(saved.Failed()); failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(paths))
	}
	return nil
}
