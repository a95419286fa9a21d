package report

import (
	"strings"
	"time"
)

type Format string

const (
	FormatCSV  Format = "CSV"
	FormatXLSX Format = "XLSX"
	FormatPDF  Format = "PDF"
)

var Formats = []Format{FormatCSV, FormatXLSX, FormatPDF}

func ParseFormat(s string) (Format, bool) {
	f := Format(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Formats {
		if known == f {
			return f, true
		}
	}
	return "", false
}

// Encoder renders a table into a self-contained document.
type Encoder interface {
	Encode(t Table) ([]byte, error)
	ContentType() string
	Extension() string
}

// Encoders maps each output format to its encoder.
type Encoders map[Format]Encoder

// NewEncoders returns the default encoder set. now stamps PDF documents and
// may be nil for time.Now.
func NewEncoders(now func() time.Time, loc *time.Location) Encoders {
	return Encoders{
		FormatCSV:  CSVEncoder{},
		FormatXLSX: XLSXEncoder{},
		FormatPDF:  PDFEncoder{Now: now, Location: loc},
	}
}
