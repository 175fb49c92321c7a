package adapter

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	m "afluent.dev/pkg/afluent/internal/model"
)

// RecordRanger iterates records in order; a FileSpill of records is one.
type RecordRanger interface {
	Range(fn func(index uint64, record m.ExecutionRecord) error) error
}

// WriteAFLuentReport streams records as a per-test JSON report that the
// afluent loader reads back in the same order.
func WriteAFLuentReport(w io.Writer, records RecordRanger) error {
	bw := bufio.NewWriter(w)

	if _, err := bw.WriteString("{"); err != nil {
		return err
	}

	err := records.Range(func(index uint64, record m.ExecutionRecord) error {
		key, err := json.Marshal(record.TestID)
		if err != nil {
			return fmt.Errorf("encode test id: %w", err)
		}

		coverage := record.Coverage
		if coverage == nil {
			coverage = map[m.Path][]int{}
		}

		entry, err := json.MarshalIndent(afluentEntry{
			Result:   string(record.Outcome),
			Coverage: coverage,
		}, "  ", "  ")
		if err != nil {
			return fmt.Errorf("encode test %q: %w", record.TestID, err)
		}

		sep := ",\n  "
		if index == 0 {
			sep = "\n  "
		}

		_, err = fmt.Fprintf(bw, "%s%s: %s", sep, key, entry)

		return err
	})
	if err != nil {
		return err
	}

	if _, err := bw.WriteString("\n}\n"); err != nil {
		return err
	}

	return bw.Flush()
}
