// Package testutil builds in-memory fixtures (QR rasters, signed payloads and
// minimal PDF files) for package tests.
package testutil

import (
	"bytes"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-covid-qr/internal/raster"
)

// QRImage renders text as a QR code of roughly size×size pixels, black
// modules on white.
func QRImage(t testing.TB, text string, size int) *raster.Image {
	t.Helper()
	return QRImageCharset(t, text, size, "")
}

// QRImageCharset is QRImage with an explicit byte-mode character set such
// as "UTF-8" or "ISO-8859-1".
func QRImageCharset(t testing.TB, text string, size int, charset string) *raster.Image {
	t.Helper()

	hints := map[gozxing.EncodeHintType]interface{}{
		gozxing.EncodeHintType_MARGIN: 4,
	}
	if charset != "" {
		hints[gozxing.EncodeHintType_CHARACTER_SET] = charset
	}
	matrix, err := qrcode.NewQRCodeWriter().Encode(text, gozxing.BarcodeFormat_QR_CODE, size, size, hints)
	require.NoError(t, err)

	w, h := matrix.GetWidth(), matrix.GetHeight()
	pix := make([]byte, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !matrix.Get(x, y) {
				pix[y*w+x] = 0xff
			}
		}
	}

	img, err := raster.New(w, h, pix)
	require.NoError(t, err)
	return img
}

// BlankImage returns a white raster with no symbol on it.
func BlankImage(t testing.TB, width, height int) *raster.Image {
	t.Helper()
	img, err := raster.New(width, height, bytes.Repeat([]byte{0xff}, width*height))
	require.NoError(t, err)
	return img
}

// PackLuma1 packs a 0/255 raster into 1-bit rows, MSB first, set bit for
// white, each row padded to a whole byte.
func PackLuma1(img *raster.Image) []byte {
	stride := (img.Width + 7) / 8
	out := make([]byte, stride*img.Height)
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			if img.Pix[y*img.Width+x] >= 0x80 {
				out[y*stride+x/8] |= 0x80 >> (x % 8)
			}
		}
	}
	return out
}

// WritePNG stores img as a PNG file in dir and returns its path.
func WritePNG(t testing.TB, dir, name string, img *raster.Image) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img.Gray()))
	return WriteFile(t, dir, name, buf.Bytes())
}

// WriteFile stores data in dir and returns its path.
func WriteFile(t testing.TB, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

var (
	keyOnce sync.Once
	key     *rsa.PrivateKey
	keyErr  error
)

// SigningKey returns a process-wide 2048-bit test key.
func SigningKey(t testing.TB) *rsa.PrivateKey {
	t.Helper()
	keyOnce.Do(func() {
		key, keyErr = rsa.GenerateKey(rand.Reader, 2048)
	})
	require.NoError(t, keyErr)
	return key
}

// Sign produces the raw PKCS#1 v1.5 type 1 block an issuer would embed in a
// certificate for plaintext.
func Sign(t testing.TB, priv *rsa.PrivateKey, plaintext string) []byte {
	t.Helper()
	sig, err := rsa.SignPKCS1v15(nil, priv, crypto.Hash(0), []byte(plaintext))
	require.NoError(t, err)
	return sig
}
