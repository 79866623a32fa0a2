package converter

import (
	"errors"
	"path/filepath"
	"sync/atomic"

	"github.com/nconklindev/assaysplit/internal/assay"
	"github.com/nconklindev/assaysplit/internal/types"
)

// ErrBusy is returned when Process is called while another run on the
// same Grouper is still in flight.
var ErrBusy = errors.New("a processing run is already in flight")

// Grouper runs one batch at a time over a set of workbooks, bucketing
// classified samples by assay code. Each Process call produces a fresh
// ProcessResult; callers replace their previous result wholesale.
type Grouper struct {
	busy atomic.Bool
}

// Process reads each file in order, classifies its rows, and
// accumulates samples into per-assay buckets across the whole batch.
// A file that cannot be read is recorded in FileErrors and the
// remaining files still process. Progress, when non-nil, receives
// values in [0,1] via non-blocking sends.
func (g *Grouper) Process(paths []string, progress chan<- float64) (*types.ProcessResult, error) {
	if !g.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer g.busy.Store(false)

	result := &types.ProcessResult{
		Buckets: make(map[string][]types.ClassifiedSample),
	}

	for fileIdx, path := range paths {
		rows, err := ReadRows(path)
		if err != nil {
			result.FileErrors = append(result.FileErrors, types.FileError{File: path, Err: err})
			continue
		}

		name := filepath.Base(path)
		for rowIdx, row := range rows {
			reportProgress(progress, fileIdx, rowIdx, len(paths), len(rows))

			if row.SampleNum == "" || row.TestName == "" {
				result.Skipped = append(result.Skipped, types.SkippedRow{
					File:      name,
					Row:       rowIdx + 1,
					SampleNum: row.SampleNum,
					TestName:  row.TestName,
					Reason:    types.SkipMissingField,
				})
				continue
			}

			code, ok := assay.Classify(row.TestName)
			if !ok {
				result.Skipped = append(result.Skipped, types.SkippedRow{
					File:      name,
					Row:       rowIdx + 1,
					SampleNum: row.SampleNum,
					TestName:  row.TestName,
					Reason:    types.SkipNoMatch,
				})
				continue
			}

			if _, exists := result.Buckets[code]; !exists {
				result.Order = append(result.Order, code)
			}
			result.Buckets[code] = append(result.Buckets[code], types.ClassifiedSample{
				SampleID: row.SampleNum,
				Assay:    code,
			})
			result.RowsMatched++
		}

		result.FilesProcessed++
	}

	return result, nil
}

func reportProgress(progress chan<- float64, fileIdx, rowIdx, totalFiles, totalRows int) {
	if progress == nil || totalFiles == 0 {
		return
	}
	frac := float64(fileIdx) / float64(totalFiles)
	if totalRows > 0 {
		frac += float64(rowIdx+1) / float64(totalRows) / float64(totalFiles)
	}

	select {
	case progress <- frac:
	default:
	}
}
