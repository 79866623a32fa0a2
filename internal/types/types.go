package types

// RawRow is one data row from a lab export, keyed by the export's
// header names. Only SampleNum and TestName drive classification; the
// rest are carried through the extractor unused.
type RawRow struct {
	SampleNum      string
	TestName       string
	Print          string
	Run            string
	ProcessGroup   string
	ProcessName    string
	ReceivedDate   string
	ExpirationDate string
}

type ClassifiedSample struct {
	SampleID string
	Assay    string
}

type SkipReason string

const (
	SkipMissingField SkipReason = "missing-field"
	SkipNoMatch      SkipReason = "no-match"
)

// SkippedRow records a data row that produced no sample. Row is the
// 1-based data row number within its file (header excluded).
type SkippedRow struct {
	File      string
	Row       int
	SampleNum string
	TestName  string
	Reason    SkipReason
}

type FileError struct {
	File string
	Err  error
}

// ProcessResult is the outcome of one batch run. Buckets holds the
// classified samples per assay code and Order the codes in first-seen
// order, so exports iterate deterministically.
type ProcessResult struct {
	Buckets        map[string][]ClassifiedSample
	Order          []string
	Skipped        []SkippedRow
	FileErrors     []FileError
	FilesProcessed int
	RowsMatched    int
}

// SkipCounts returns how many rows were skipped for missing fields and
// for unrecognized test names, respectively.
func (r *ProcessResult) SkipCounts() (missing, noMatch int) {
	for _, s := range r.Skipped {
		if s.Reason == SkipMissingField {
			missing++
		} else {
			noMatch++
		}
	}
	return missing, noMatch
}
