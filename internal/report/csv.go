package report

import (
	"bytes"
	"strings"
)

// CSVEncoder writes RFC 4180 style CSV with CRLF line endings. Only fields
// containing a comma, a double quote or a line break are quoted.
type CSVEncoder struct{}

func (CSVEncoder) ContentType() string { return "text/csv; charset=utf-8" }
func (CSVEncoder) Extension() string   { return "csv" }

func (CSVEncoder) Encode(t Table) ([]byte, error) {
	var buf bytes.Buffer
	for _, record := range t.Records() {
		for i, field := range record {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeCSVField(&buf, field)
		}
		buf.WriteString("\r\n")
	}
	return buf.Bytes(), nil
}

func writeCSVField(buf *bytes.Buffer, field string) {
	if !strings.ContainsAny(field, ",\"\r\n") {
		buf.WriteString(field)
		return
	}
	buf.WriteByte('"')
	buf.WriteString(strings.ReplaceAll(field, `"`, `""`))
	buf.WriteByte('"')
}
