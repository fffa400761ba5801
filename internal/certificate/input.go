package certificate

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/a3tai/mcp-covid-qr/internal/errors"
)

// InputType names the container form of a certificate.
type InputType string

const (
	InputAuto       InputType = "auto"
	InputPDF        InputType = "pdf"
	InputImage      InputType = "image"
	InputBase64     InputType = "base64"
	InputCiphertext InputType = "encrypted"
	InputPlaintext  InputType = "plaintext"
)

// CiphertextSize is the length of a signed certificate block, used to tell
// raw ciphertext files apart from text.
const CiphertextSize = 256

// sniffLen is how much of a file content sniffing looks at.
const sniffLen = 512

// InputTypes lists every concrete input type.
func InputTypes() []InputType {
	return []InputType{InputPDF, InputImage, InputBase64, InputCiphertext, InputPlaintext}
}

// ParseInputType resolves a type name; an empty name means InputAuto.
func ParseInputType(name string) (InputType, error) {
	switch t := InputType(strings.ToLower(strings.TrimSpace(name))); t {
	case "":
		return InputAuto, nil
	case InputAuto, InputPDF, InputImage, InputBase64, InputCiphertext, InputPlaintext:
		return t, nil
	default:
		return "", fmt.Errorf("unknown input type %q", name)
	}
}

// Detect guesses the input type of the file at path from its content.
//
// PDFs and images are recognised by content sniffing. Anything else that
// sniffs as text or opaque bytes is a raw ciphertext when it is exactly
// CiphertextSize bytes long. Otherwise the file must be text containing a
// semicolon: a second semicolon after the first means a plaintext record,
// none means a base64 envelope.
func Detect(path string) (InputType, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.WrapPath(err, errors.KindRasterIO, path, "open input")
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", errors.WrapPath(err, errors.KindRasterIO, path, "stat input")
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", errors.WrapPath(err, errors.KindRasterIO, path, "read input")
	}
	head = head[:n]

	mime := http.DetectContentType(head)
	switch {
	case mime == "application/pdf":
		return InputPDF, nil
	case strings.HasPrefix(mime, "image/"):
		return InputImage, nil
	case !strings.HasPrefix(mime, "text/plain") && mime != "application/octet-stream":
		return "", &errors.Error{Kind: errors.KindUnsupportedInput, Path: path,
			Message: fmt.Sprintf("unable to process file type %s", mime)}
	}

	if info.Size() == CiphertextSize {
		return InputCiphertext, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.WrapPath(err, errors.KindRasterIO, path, "read input")
	}
	return detectText(path, data)
}

func detectText(path string, data []byte) (InputType, error) {
	if !utf8.Valid(data) {
		return "", &errors.Error{Kind: errors.KindUnsupportedInput, Path: path,
			Message: "binary file is not a certificate ciphertext"}
	}

	_, rest, found := bytes.Cut(data, []byte(";"))
	if !found {
		return "", &errors.Error{Kind: errors.KindUnsupportedInput, Path: path,
			Message: "text file holds neither a payload nor a record"}
	}
	if bytes.Contains(rest, []byte(";")) {
		return InputPlaintext, nil
	}
	return InputBase64, nil
}
