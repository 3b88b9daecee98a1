package wdbx

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-collections/collections/queue"
	"github.com/ryogrid/wdbx/common"
	"github.com/ryogrid/wdbx/storage/format"
	"github.com/ryogrid/wdbx/storage/table"
	"github.com/ryogrid/wdbx/wdbx/wdbx_util"
	"golang.org/x/sync/errgroup"
)

// Entry is one open table file. Build is the build its field definition was chosen for.
type Entry struct {
	Path  string
	Build uint32
	Table *table.TableFile
}

type entryKey struct {
	path  string
	build uint32
}

// Workspace is the registry of open table files, keyed by path and build. The registry
// is safe for concurrent use; a TableFile obtained from it is not, and its owner
// serializes edits.
type Workspace struct {
	wi_         *WdbxInstance
	entries     map[entryKey]*Entry
	order       []entryKey
	latch       common.ReaderWriterLatch
	parallelism int
	saveOpts    table.SaveOptions
}

func NewWorkspace(wi *WdbxInstance) *Workspace {
	return &Workspace{
		wi_:         wi,
		entries:     make(map[entryKey]*Entry),
		order:       make([]entryKey, 0),
		latch:       common.NewRWLatch(),
		parallelism: common.DefaultLoadParallelism,
	}
}

// SetParallelism bounds how many files a batch decodes or encodes at once.
func (w *Workspace) SetParallelism(n int) {
	if n < 1 {
		n = 1
	}
	w.parallelism = n
}

func (w *Workspace) SetSaveOptions(opts table.SaveOptions) {
	w.saveOpts = opts
}

func (w *Workspace) GetInstance() *WdbxInstance {
	return w.wi_
}

func keyOf(path string, build uint32) entryKey {
	return entryKey{filepath.Clean(path), build}
}

// AddEntry registers a table, replacing an entry with the same path and build.
func (w *Workspace) AddEntry(path string, build uint32, tf *table.TableFile) *Entry {
	key := keyOf(path, build)
	entry := &Entry{Path: key.path, Build: build, Table: tf}
	tf.SetPath(key.path)

	w.latch.WLock()
	defer w.latch.WUnlock()
	if _, ok := w.entries[key]; ok {
		common.ShPrintf(common.DEBUG_INFO, "replacing open entry %s (build %d)\n", key.path, build)
	} else {
		w.order = append(w.order, key)
	}
	w.entries[key] = entry
	return entry
}

func (w *Workspace) GetEntry(path string, build uint32) (*Entry, bool) {
	w.latch.RLock()
	defer w.latch.RUnlock()
	entry, ok := w.entries[keyOf(path, build)]
	return entry, ok
}

// RemoveEntry closes an entry without saving it and reports whether it was open.
func (w *Workspace) RemoveEntry(path string, build uint32) bool {
	key := keyOf(path, build)
	w.latch.WLock()
	defer w.latch.WUnlock()
	if _, ok := w.entries[key]; !ok {
		return false
	}
	delete(w.entries, key)
	w.order = wdbx_util.RemoveFromList(w.order, key)
	return true
}

// Entries returns the open entries in the order they were added.
func (w *Workspace) Entries() []*Entry {
	w.latch.RLock()
	defer w.latch.RUnlock()
	ret := make([]*Entry, 0, len(w.order))
	for _, k := range w.order {
		ret = append(ret, w.entries[k])
	}
	return ret
}

// ChangedEntries returns the entries with unsaved edits.
func (w *Workspace) ChangedEntries() []*Entry {
	ret := make([]*Entry, 0)
	for _, e := range w.Entries() {
		if e.Table.IsChanged() {
			ret = append(ret, e)
		}
	}
	return ret
}

func (w *Workspace) Count() int {
	w.latch.RLock()
	defer w.latch.RUnlock()
	return len(w.entries)
}

// decode resolves the field definition for a file and decodes it. A build of 0 means
// the caller does not know it, and the build the header carries is used instead.
func (w *Workspace) decode(name string, data []byte, build uint32) (*table.TableFile, uint32, error) {
	h, err := format.DecodeHeader(data)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", name, err)
	}
	if build == 0 {
		build = h.Build
	}
	tableName := wdbx_util.TableNameFromPath(name)
	descs, err := w.wi_.GetCatalog().GetDescriptors(tableName, build)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", name, err)
	}
	tf, err := table.Load(name, tableName, data, h, descs)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", name, err)
	}
	tf.MarkSaved()
	return tf, build, nil
}

// Load reads and decodes a table file and registers it.
func (w *Workspace) Load(path string, build uint32) (*Entry, error) {
	data, err := w.wi_.GetDiskManager().ReadFile(path)
	if err != nil {
		return nil, err
	}
	return w.LoadBytes(path, data, build)
}

// LoadBytes decodes a table file already in memory, for example a stream extracted from
// an archive. name supplies the table name and the registry key.
func (w *Workspace) LoadBytes(name string, data []byte, build uint32) (*Entry, error) {
	tf, build, err := w.decode(name, data, build)
	if err != nil {
		return nil, err
	}
	return w.AddEntry(name, build, tf), nil
}

// NewTable creates an empty table file of the given variant, laid out by the catalog's
// definition for the table named by path.
func (w *Workspace) NewTable(path string, variant format.Variant, build uint32) (*Entry, error) {
	tableName := wdbx_util.TableNameFromPath(path)
	descs, err := w.wi_.GetCatalog().GetDescriptors(tableName, build)
	if err != nil {
		return nil, err
	}
	tf, err := table.NewTableFile(variant, build, descs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	tf.SetTableName(tableName)
	return w.AddEntry(path, build, tf), nil
}

// LoadFiles decodes files concurrently. Failures are collected per file; a cancelled
// context stops scheduling further files, which then fail with the context's error.
// Entries are registered in the order of paths once every file has been attempted.
func (w *Workspace) LoadFiles(ctx context.Context, paths []string, build uint32) *BatchResult {
	start := time.Now()
	res := newBatchResult(paths)
	tables := make([]*table.TableFile, len(paths))
	builds := make([]uint32, len(paths))

	pending := queue.New()
	for i := range paths {
		pending.Enqueue(i)
	}
	group := new(errgroup.Group)
	group.SetLimit(w.parallelism)
	for pending.Len() > 0 {
		i := pending.Dequeue().(int)
		if err := ctx.Err(); err != nil {
			res.Results[i].Err = fmt.Errorf("%s: %w", paths[i], err)
			continue
		}
		group.Go(func() error {
			data, err := w.wi_.GetDiskManager().ReadFile(paths[i])
			if err != nil {
				res.Results[i].Err = err
				return nil
			}
			tables[i], builds[i], res.Results[i].Err = w.decode(paths[i], data, build)
			return nil
		})
	}
	group.Wait()

	for i := range paths {
		if res.Results[i].Err == nil {
			res.Results[i].Entry = w.AddEntry(paths[i], builds[i], tables[i])
		} else {
			common.ShLog(common.WARN, "load failed", "path", paths[i], "err", res.Results[i].Err)
		}
	}
	common.ShTrace("load files", start, "files", len(paths), "failed", len(res.Failed()))
	return res
}

// Save writes an entry to dest, or back to its own path when dest is empty, and clears
// its changed flag.
func (w *Workspace) Save(path string, build uint32, dest string) error {
	entry, ok := w.GetEntry(path, build)
	if !ok {
		return fmt.Errorf("%s (build %d) is not open", path, build)
	}
	return w.saveEntry(entry, dest)
}

func (w *Workspace) saveEntry(entry *Entry, dest string) error {
	if dest == "" {
		dest = entry.Path
	}
	data, err := table.EncodeWithOptions(entry.Table, w.saveOpts)
	if err != nil {
		return fmt.Errorf("%s: %w", entry.Path, err)
	}
	if err := w.wi_.GetDiskManager().WriteFile(dest, data); err != nil {
		return fmt.Errorf("%s: %w", entry.Path, err)
	}
	entry.Table.MarkSaved()
	common.ShPrintf(common.INFO, "saved %s to %s (%d rows, %d bytes)\n", entry.Path, dest, entry.Table.RowCount(), len(data))
	return nil
}

// SaveAll writes every changed entry. With an empty destDir files are written back in
// place, otherwise under destDir with their base names. Entries which would be written
// to the same file are all reported as failed and none of them is written.
func (w *Workspace) SaveAll(ctx context.Context, destDir string) *BatchResult {
	changed := w.ChangedEntries()
	paths := make([]string, len(changed))
	dests := make([]string, len(changed))
	byDest := make(map[string][]int)
	for i, e := range changed {
		paths[i] = e.Path
		dests[i] = e.Path
		if destDir != "" {
			dests[i] = filepath.Join(destDir, filepath.Base(strings.ReplaceAll(e.Path, "\\", "/")))
		}
		byDest[dests[i]] = append(byDest[dests[i]], i)
	}
	res := newBatchResult(paths)

	group := new(errgroup.Group)
	group.SetLimit(w.parallelism)
	for i, e := range changed {
		if others := byDest[dests[i]]; len(others) > 1 {
			res.Results[i].Err = fmt.Errorf("%s (build %d): %d changed entries would be written to %s",
				e.Path, e.Build, len(others), dests[i])
			continue
		}
		if err := ctx.Err(); err != nil {
			res.Results[i].Err = fmt.Errorf("%s: %w", e.Path, err)
			continue
		}
		i, e := i, e // per-iteration copies (go.mod targets go 1.21)
		group.Go(func() error {
			if err := w.saveEntry(e, dests[i]); err != nil {
				res.Results[i].Err = err
				return nil
			}
			res.Results[i].Entry = e
			return nil
		})
	}
	group.Wait()
	return res
}
