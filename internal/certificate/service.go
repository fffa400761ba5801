// Package certificate composes the decode pipeline: every container form is
// reduced to a ciphertext, verified against the issuer key and parsed into a
// record.
package certificate

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/a3tai/mcp-covid-qr/internal/envelope"
	"github.com/a3tai/mcp-covid-qr/internal/errors"
	"github.com/a3tai/mcp-covid-qr/internal/pdf"
	"github.com/a3tai/mcp-covid-qr/internal/qr"
	"github.com/a3tai/mcp-covid-qr/internal/raster"
	"github.com/a3tai/mcp-covid-qr/internal/record"
)

// DefaultMaxFileSize bounds the files the service will open.
const DefaultMaxFileSize = 100 * 1024 * 1024 // 100MB

// Verifier recovers signed plaintext from a ciphertext.
type Verifier interface {
	Decrypt(ciphertext []byte) (string, error)
}

// Result is a verified record and where it came from.
type Result struct {
	Input     InputType                 `json:"input"`
	Record    *record.VaccinationRecord `json:"record"`
	Plaintext string                    `json:"plaintext"`
	Expired   bool                      `json:"expired"`
}

// Status returns "Expired" or "Valid".
func (r *Result) Status() string {
	if r.Expired {
		return "Expired"
	}
	return "Valid"
}

// Service runs the pipeline for every supported input form.
type Service struct {
	verifier  Verifier
	reader    *qr.Reader
	backend   pdf.Backend
	validator *pdf.Validator
	now       func() time.Time
	logf      pdf.Logf
}

// Option configures a Service.
type Option func(*Service)

// WithPDFBackend selects the library used to read PDFs.
func WithPDFBackend(b pdf.Backend) Option {
	return func(s *Service) { s.backend = b }
}

// WithMaxFileSize rejects input files larger than n bytes.
func WithMaxFileSize(n int64) Option {
	return func(s *Service) { s.validator = pdf.NewValidator(n) }
}

// WithQRReader replaces the default QR reader.
func WithQRReader(r *qr.Reader) Option {
	return func(s *Service) { s.reader = r }
}

// WithClock sets the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogf routes debug messages about skipped images to logf.
func WithLogf(logf pdf.Logf) Option {
	return func(s *Service) { s.logf = logf }
}

// NewService creates a pipeline that verifies signatures with verifier.
func NewService(verifier Verifier, opts ...Option) *Service {
	s := &Service{
		verifier:  verifier,
		reader:    qr.NewReader(),
		backend:   pdf.DefaultBackend,
		validator: pdf.NewValidator(DefaultMaxFileSize),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FromPDF scans the images of a PDF in page order and uses the first one
// whose QR payload decodes to a ciphertext. Images that fail to decode are
// skipped. A PDF with no usable image fails with errors.KindQRNotFound.
func (s *Service) FromPDF(path string) (*Result, error) {
	if err := s.validator.ValidateFile(path); err != nil {
		return nil, err
	}

	extractor, err := pdf.Open(path, pdf.WithBackend(s.backend), pdf.WithLogf(s.logf))
	if err != nil {
		return nil, err
	}
	defer extractor.Close()

	var lastErr error
	index := 0
	for img, err := range extractor.Images() {
		index++
		if err != nil {
			s.debugf("skipping image %d of %s: %v", index, path, err)
			lastErr = err
			continue
		}

		ciphertext, err := s.reader.Ciphertext(img)
		if err != nil {
			s.debugf("no certificate payload in image %d (%s) of %s: %v", index, img, path, err)
			lastErr = err
			continue
		}

		return s.result(InputPDF, ciphertext)
	}

	return nil, &errors.Error{
		Kind:    errors.KindQRNotFound,
		Path:    path,
		Message: "no decodable QR code in PDF",
		Err:     lastErr,
	}
}

// FromImage decodes the QR code in an image file.
func (s *Service) FromImage(path string) (*Result, error) {
	if err := s.validator.ValidateFile(path); err != nil {
		return nil, err
	}

	img, err := raster.Open(path)
	if err != nil {
		return nil, err
	}
	return s.FromRaster(img)
}

// FromRaster decodes the QR code in an already loaded raster.
func (s *Service) FromRaster(img *raster.Image) (*Result, error) {
	ciphertext, err := s.reader.Ciphertext(img)
	if err != nil {
		return nil, err
	}
	return s.result(InputImage, ciphertext)
}

// FromBase64 decodes QR text of the form "1;<base64>".
func (s *Service) FromBase64(text string) (*Result, error) {
	ciphertext, err := envelope.Decode(strings.TrimSpace(text))
	if err != nil {
		return nil, err
	}
	return s.result(InputBase64, ciphertext)
}

// FromCiphertext verifies a raw signed block.
func (s *Service) FromCiphertext(ciphertext []byte) (*Result, error) {
	return s.result(InputCiphertext, ciphertext)
}

// FromRecordLine parses an already verified plaintext record. A trailing
// line break is ignored.
func (s *Service) FromRecordLine(line string) (*Result, error) {
	line = strings.TrimRight(line, "\r\n")
	rec, err := record.Parse(line)
	if err != nil {
		return nil, err
	}
	return s.wrap(InputPlaintext, line, rec), nil
}

// Verify recovers the plaintext signed into ciphertext and parses it.
func (s *Service) Verify(ciphertext []byte) (*record.VaccinationRecord, string, error) {
	plaintext, err := s.verifier.Decrypt(ciphertext)
	if err != nil {
		return nil, "", err
	}
	rec, err := record.Parse(plaintext)
	if err != nil {
		return nil, plaintext, err
	}
	return rec, plaintext, nil
}

// DecodeFile reads path as the given input type. InputAuto runs Detect first.
func (s *Service) DecodeFile(path string, input InputType) (*Result, error) {
	if input == InputAuto || input == "" {
		detected, err := Detect(path)
		if err != nil {
			return nil, err
		}
		s.debugf("detected %s as %s", path, detected)
		input = detected
	}

	switch input {
	case InputPDF:
		return s.FromPDF(path)
	case InputImage:
		return s.FromImage(path)
	}

	if err := s.validator.ValidateFile(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapPath(err, errors.KindRasterIO, path, "read input")
	}

	switch input {
	case InputBase64:
		return s.FromBase64(string(data))
	case InputCiphertext:
		return s.FromCiphertext(data)
	case InputPlaintext:
		return s.FromRecordLine(string(data))
	default:
		return nil, errors.Newf(errors.KindUnsupportedInput, "unknown input type %q", input)
	}
}

func (s *Service) result(input InputType, ciphertext []byte) (*Result, error) {
	rec, plaintext, err := s.Verify(ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%s input: %w", input, err)
	}
	return s.wrap(input, plaintext, rec), nil
}

func (s *Service) wrap(input InputType, plaintext string, rec *record.VaccinationRecord) *Result {
	return &Result{
		Input:     input,
		Record:    rec,
		Plaintext: plaintext,
		Expired:   rec.Expired(s.now()),
	}
}

func (s *Service) debugf(format string, args ...any) {
	if s.logf != nil {
		s.logf(format, args...)
	}
}
