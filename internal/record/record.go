// Package record parses the semicolon-delimited plaintext recovered from a
// certificate signature into a VaccinationRecord.
package record

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/a3tai/mcp-covid-qr/internal/errors"
)

const (
	// SchemaVersion is the only record layout this parser understands.
	SchemaVersion = 1

	// SentinelYear stands in for the birth year the certificate never carries.
	// Year 0 is a leap year, so 29 February stays representable.
	SentinelYear = 0

	// Years take exactly four digits.
	dateLayout      = "2-1-2006"
	shortDateLayout = "2-1"
	separator       = ";"
)

// ShortDate is a day and month with no year.
type ShortDate struct {
	Day   int
	Month time.Month
}

// Time projects the date onto SentinelYear.
func (d ShortDate) Time() time.Time {
	return time.Date(SentinelYear, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// String formats the date as DD-MM.
func (d ShortDate) String() string {
	return fmt.Sprintf("%02d-%02d", d.Day, int(d.Month))
}

// MarshalText implements encoding.TextMarshaler.
func (d ShortDate) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// VaccinationRecord is a fully validated certificate record.
type VaccinationRecord struct {
	ID                    uint64    `json:"id"`
	Version               uint8     `json:"version"`
	IssueDate             time.Time `json:"issue_date"`
	Names                 string    `json:"names"`
	FirstSurnameInitial   rune      `json:"-"`
	ShortBirthdate        ShortDate `json:"short_birthdate"`
	CertificateExpiration time.Time `json:"certificate_expiration"`
	VaccineType           string    `json:"vaccine_type"`
}

// Expired reports whether now's calendar date is past the expiration date.
func (r *VaccinationRecord) Expired(now time.Time) bool {
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return today.After(r.CertificateExpiration)
}

// Value returns the field formatted the way it appears on the wire.
func (r *VaccinationRecord) Value(f FieldName) string {
	switch f {
	case FieldID:
		return strconv.FormatUint(r.ID, 10)
	case FieldVersion:
		return strconv.Itoa(int(r.Version))
	case FieldIssueDate:
		return r.IssueDate.Format("02-01-2006")
	case FieldNames:
		return r.Names
	case FieldFirstSurnameInitial:
		return string(r.FirstSurnameInitial)
	case FieldShortBirthdate:
		return r.ShortBirthdate.String()
	case FieldCertificateExpiration:
		return r.CertificateExpiration.Format("02-01-2006")
	case FieldVaccineType:
		return r.VaccineType
	default:
		return ""
	}
}

type fieldParser struct {
	name  FieldName
	parse func(token string, r *VaccinationRecord) error
}

// parseUint reads a decimal unsigned integer that may carry one leading plus
// sign.
func parseUint(s string, bitSize int) (uint64, error) {
	return strconv.ParseUint(strings.TrimPrefix(s, "+"), 10, bitSize)
}

var parsers = []fieldParser{
	{FieldID, func(s string, r *VaccinationRecord) (err error) {
		r.ID, err = parseUint(s, 64)
		return err
	}},
	{FieldVersion, func(s string, r *VaccinationRecord) error {
		v, err := parseUint(s, 8)
		if err != nil {
			return err
		}
		if v != SchemaVersion {
			return fmt.Errorf("unsupported record version %d", v)
		}
		r.Version = uint8(v)
		return nil
	}},
	{FieldIssueDate, func(s string, r *VaccinationRecord) (err error) {
		r.IssueDate, err = time.Parse(dateLayout, s)
		return err
	}},
	{FieldNames, func(s string, r *VaccinationRecord) error {
		r.Names = s
		return nil
	}},
	{FieldFirstSurnameInitial, func(s string, r *VaccinationRecord) error {
		c, size := utf8.DecodeRuneInString(s)
		if size == 0 {
			return fmt.Errorf("empty initial")
		}
		if c == utf8.RuneError && size == 1 {
			return fmt.Errorf("invalid UTF-8 initial")
		}
		r.FirstSurnameInitial = c
		return nil
	}},
	{FieldShortBirthdate, func(s string, r *VaccinationRecord) error {
		t, err := time.Parse(shortDateLayout, s)
		if err != nil {
			return err
		}
		r.ShortBirthdate = ShortDate{Day: t.Day(), Month: t.Month()}
		return nil
	}},
	{FieldCertificateExpiration, func(s string, r *VaccinationRecord) (err error) {
		r.CertificateExpiration, err = time.Parse(dateLayout, s)
		return err
	}},
	{FieldVaccineType, func(s string, r *VaccinationRecord) error {
		r.VaccineType = s
		return nil
	}},
}

// Parse splits line on semicolons and resolves the fields in order. The first
// absent token fails with errors.KindRecordMissingField and the first token
// that does not parse fails with errors.KindRecordMalformedField; later fields
// are not looked at. Tokens past the eighth are ignored.
func Parse(line string) (*VaccinationRecord, error) {
	tokens := strings.Split(line, separator)

	var r VaccinationRecord
	for i, p := range parsers {
		if i >= len(tokens) {
			return nil, errors.MissingField(p.name.String())
		}
		if err := p.parse(tokens[i], &r); err != nil {
			return nil, errors.MalformedField(p.name.String(), err)
		}
	}
	return &r, nil
}
