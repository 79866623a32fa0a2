package converter

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/nconklindev/assaysplit/internal/types"
)

// CSVHeader is the fixed header of every exported assay file. The four
// trailing fields stay empty as placeholders for manual entry.
var CSVHeader = []string{"Sample Id", "Assay", "Matrix", "Customer", "ProductionLotNumber", "Notes"}

// Serialize renders a bucket as CSV: the fixed header, then one line
// per sample in bucket order, no trailing newline. Fields pass through
// encoding/csv, so a sample id containing commas or quotes is quoted
// rather than corrupting the row.
func Serialize(samples []types.ClassifiedSample) string {
	var b strings.Builder
	w := csv.NewWriter(&b)

	w.Write(CSVHeader)
	for _, s := range samples {
		w.Write([]string{s.SampleID, s.Assay, "", "", "", ""})
	}
	w.Flush()

	return strings.TrimSuffix(b.String(), "\n")
}

// Filename returns the export filename for an assay code, with any
// whitespace replaced by underscores.
func Filename(assayCode string) string {
	safe := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return '_'
		}
		return r
	}, assayCode)
	return safe + ".csv"
}

// Sink receives generated CSV artifacts and makes them available to
// the user.
type Sink interface {
	Write(filename string, data []byte) error
}

// DirSink writes artifacts into a directory.
type DirSink struct {
	Dir string
}

func (s DirSink) Write(filename string, data []byte) error {
	return os.WriteFile(filepath.Join(s.Dir, filename), data, 0o644)
}

// ExportAssay writes one assay's bucket through the sink and returns
// the filename written. Empty or unknown assay codes are an error; an
// assay with no samples is never exported.
func ExportAssay(sink Sink, result *types.ProcessResult, assayCode string) (string, error) {
	samples := result.Buckets[assayCode]
	if len(samples) == 0 {
		return "", fmt.Errorf("no samples for assay %q", assayCode)
	}

	name := Filename(assayCode)
	if err := sink.Write(name, []byte(Serialize(samples))); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return name, nil
}

// ExportAll writes every non-empty bucket in the result's first-seen
// order, returning the filenames written.
func ExportAll(sink Sink, result *types.ProcessResult) ([]string, error) {
	var written []string
	for _, code := range result.Order {
		name, err := ExportAssay(sink, result, code)
		if err != nil {
			return written, err
		}
		written = append(written, name)
	}
	return written, nil
}
