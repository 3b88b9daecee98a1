package wdbx

import (
	"errors"
)

// FileResult is the outcome of one file of a batch.
type FileResult struct {
	Path  string
	Entry *Entry // nil when Err is set
	Err   error
}

// BatchResult collects per-file outcomes in the order the files were requested. One
// failing file never aborts the batch.
type BatchResult struct {
	Results []FileResult
}

func newBatchResult(paths []string) *BatchResult {
	ret := &BatchResult{Results: make([]FileResult, len(paths))}
	for i, p := range paths {
		ret.Results[i].Path = p
	}
	return ret
}

// Succeeded returns the entries of the files which were processed.
func (r *BatchResult) Succeeded() []*Entry {
	ret := make([]*Entry, 0, len(r.Results))
	for _, res := range r.Results {
		if res.Err == nil && res.Entry != nil {
			ret = append(ret, res.Entry)
		}
	}
	return ret
}

func (r *BatchResult) Failed() []FileResult {
	ret := make([]FileResult, 0)
	for _, res := range r.Results {
		if res.Err != nil {
			ret = append(ret, res)
		}
	}
	return ret
}

// Err joins the failures, or returns nil when every file succeeded. Errors already name
// their file.
func (r *BatchResult) Err() error {
	errs := make([]error, 0)
	for _, res := range r.Failed() {
		errs = append(errs, res.Err)
	}
	return errors.Join(errs...)
}
