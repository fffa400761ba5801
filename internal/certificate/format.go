package certificate

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/a3tai/mcp-covid-qr/internal/record"
)

// Output formats understood by Write.
const (
	FormatText = "text"
	FormatJSON = "json"
)

type jsonRecord struct {
	*record.VaccinationRecord
	FirstSurnameInitial string `json:"first_surname_initial"`
}

type jsonResult struct {
	Status    string     `json:"status"`
	Input     InputType  `json:"input"`
	Expired   bool       `json:"expired"`
	Plaintext string     `json:"plaintext"`
	Record    jsonRecord `json:"record"`
}

// Write renders res in the named format.
func Write(w io.Writer, format string, res *Result) error {
	switch strings.ToLower(format) {
	case "", FormatText:
		return WriteText(w, res)
	case FormatJSON:
		return WriteJSON(w, res)
	default:
		return fmt.Errorf("unknown output format %q (must be one of: text, json)", format)
	}
}

// WriteText prints the status line followed by one "Name: value" line per
// record field in wire order.
func WriteText(w io.Writer, res *Result) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s vaccination certificate\n", res.Status())
	for _, f := range record.Fields {
		fmt.Fprintf(&b, "  %-22s %s\n", f.String()+":", res.Record.Value(f))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteJSON prints res as an indented JSON document.
func WriteJSON(w io.Writer, res *Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonResult{
		Status:    res.Status(),
		Input:     res.Input,
		Expired:   res.Expired,
		Plaintext: res.Plaintext,
		Record: jsonRecord{
			VaccinationRecord:   res.Record,
			FirstSurnameInitial: string(res.Record.FirstSurnameInitial),
		},
	})
}

// Text renders res with WriteText.
func (r *Result) Text() string {
	var b strings.Builder
	_ = WriteText(&b, r)
	return b.String()
}
