package tabular

import (
	"encoding/csv"
	"io"
)

func writeCSV(w io.Writer, src Source, comma rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = comma
	if err := cw.Write(src.Columns()); err != nil {
		return err
	}
	for i := range src.Len() {
		if err := cw.Write(rowStrings(src, i)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
