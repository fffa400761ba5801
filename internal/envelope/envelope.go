// Package envelope parses the "<version>;<data>" text carried by a
// certificate QR code.
package envelope

import (
	"encoding/base64"
	"strconv"
	"strings"

	"github.com/a3tai/mcp-covid-qr/internal/errors"
)

// Version is the only envelope version that can be decoded.
const Version = "1"

const separator = ";"

// Decode splits text on its first semicolon and base64-decodes the data of a
// version 1 envelope. A version token that is a valid unsigned byte other than
// "1" is reported with errors.KindEnvelopeUnknownVersion; anything else that
// does not fit the shape is errors.KindEnvelopeMalformed. The byte may carry
// one leading plus sign, so "+1" is an unknown version rather than version 1.
func Decode(text string) ([]byte, error) {
	version, data, found := strings.Cut(text, separator)
	if !found {
		return nil, errors.New(errors.KindEnvelopeMalformed, "missing version separator")
	}

	if version == Version {
		out, err := base64.StdEncoding.DecodeString(data)
		if err != nil {
			return nil, errors.Wrap(err, errors.KindEnvelopeBase64, "decode payload")
		}
		return out, nil
	}

	if n, err := strconv.ParseUint(strings.TrimPrefix(version, "+"), 10, 8); err == nil {
		return nil, errors.UnknownVersion(uint8(n))
	}

	return nil, errors.Newf(errors.KindEnvelopeMalformed, "invalid version token %q", version)
}

// Encode wraps data in a version 1 envelope.
func Encode(data []byte) string {
	return Version + separator + base64.StdEncoding.EncodeToString(data)
}
