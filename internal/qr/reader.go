// Package qr locates and decodes the QR symbol carried by a certificate
// raster.
package qr

import (
	"bytes"
	stderrors "errors"
	"strings"
	"unicode/utf8"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode/decoder"
	"github.com/makiuchi-d/gozxing/qrcode/detector"

	"github.com/a3tai/mcp-covid-qr/internal/envelope"
	"github.com/a3tai/mcp-covid-qr/internal/errors"
	"github.com/a3tai/mcp-covid-qr/internal/raster"
)

// Reader decodes QR payloads from grayscale rasters.
type Reader struct {
	decoder *decoder.Decoder
	hints   map[gozxing.DecodeHintType]interface{}
}

// Option configures a Reader.
type Option func(*Reader)

// WithTryHarder trades speed for accuracy on noisy scans.
func WithTryHarder() Option {
	return func(r *Reader) {
		r.hints[gozxing.DecodeHintType_TRY_HARDER] = true
	}
}

// NewReader creates a QR reader.
func NewReader(opts ...Option) *Reader {
	r := &Reader{
		decoder: decoder.NewDecoder(),
		hints: map[gozxing.DecodeHintType]interface{}{
			gozxing.DecodeHintType_CHARACTER_SET: "UTF-8",
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Payload returns the text of the first QR symbol found in img.
//
// Detection and decoding run as two steps so their failures stay distinct: no
// symbol is errors.KindQRNotFound, a located symbol whose grid cannot be
// sampled is errors.KindQRExtract, and format or checksum failures are
// errors.KindQRDecode. Byte-mode data that is not UTF-8 fails with
// errors.KindQRInvalidUTF8.
func (r *Reader) Payload(img *raster.Image) (string, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img.Gray())
	if err != nil {
		return "", errors.Wrap(err, errors.KindQRNotFound, "binarize image")
	}

	matrix, err := bmp.GetBlackMatrix()
	if err != nil {
		return "", errors.Wrap(err, errors.KindQRNotFound, "binarize image")
	}

	located, err := detector.NewDetector(matrix).Detect(r.hints)
	if err != nil {
		var notFound gozxing.NotFoundException
		if stderrors.As(err, &notFound) {
			return "", errors.Wrap(err, errors.KindQRNotFound, "no QR code found")
		}
		return "", errors.Wrap(err, errors.KindQRExtract, "sample QR grid")
	}

	decoded, err := r.decoder.Decode(located.GetBits(), r.hints)
	if err != nil {
		return "", errors.Wrap(err, errors.KindQRDecode, "decode QR symbol")
	}

	segments := decoded.GetByteSegments()
	for _, segment := range segments {
		if !utf8.Valid(segment) {
			return "", errors.New(errors.KindQRInvalidUTF8, "QR payload is not valid UTF-8")
		}
	}

	text := payloadText(decoded.GetText(), segments)
	if !utf8.ValidString(text) {
		return "", errors.New(errors.KindQRInvalidUTF8, "QR payload is not valid UTF-8")
	}
	return text, nil
}

// payloadText prefers the raw byte segments over the decoder's text when the
// two disagree, so the result is exactly the bytes that were checked.
// Numeric and alphanumeric segments add characters the byte segments do not
// carry; when every byte segment appears verbatim in text, or text holds more
// characters than the segments hold bytes, the decoded text is kept.
func payloadText(text string, segments [][]byte) string {
	raw := bytes.Join(segments, nil)
	if len(raw) == 0 || string(raw) == text {
		return text
	}

	verbatim := true
	for _, segment := range segments {
		if !strings.Contains(text, string(segment)) {
			verbatim = false
			break
		}
	}
	if verbatim || utf8.RuneCountInString(text) > len(raw) {
		return text
	}
	return string(raw)
}

// PayloadFromFile decodes the QR symbol in an image file.
func (r *Reader) PayloadFromFile(path string) (string, error) {
	img, err := raster.Open(path)
	if err != nil {
		return "", err
	}
	return r.Payload(img)
}

// Ciphertext decodes the QR payload of img and unwraps its envelope.
func (r *Reader) Ciphertext(img *raster.Image) ([]byte, error) {
	text, err := r.Payload(img)
	if err != nil {
		return nil, err
	}
	return envelope.Decode(text)
}
