package tabular

import (
	"fmt"
	"html"
	"io"
)

func writeHTML(w io.Writer, src Source) error {
	if _, err := fmt.Fprintln(w, `<table border="1">`); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, "<thead>"); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, "<tr>"); err != nil {
		return err
	}
	for _, col := range src.Columns() {
		if _, err := fmt.Fprintf(w, "<th>%s</th>\n", html.EscapeString(col)); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, "</tr>"); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, "</thead>"); err != nil {
		return err
	}

	if _, err := fmt.Fprintln(w, "<tbody>"); err != nil {
		return err
	}
	for i := range src.Len() {
		if _, err := io.WriteString(w, "<tr>"); err != nil {
			return err
		}
		for _, cell := range rowStrings(src, i) {
			if _, err := fmt.Fprintf(w, "<td>%s</td>", html.EscapeString(cell)); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w, "</tr>"); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, "</tbody>"); err != nil {
		return err
	}

	_, err := fmt.Fprintln(w, "</table>")
	return err
}
