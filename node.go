package protectedconfig

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// EncryptedData is the protected form of a configuration fragment:
// <EncryptedData>Base64 envelope</EncryptedData>.
type EncryptedData struct {
	XMLName     xml.Name `xml:"EncryptedData"`
	CipherValue string   `xml:",chardata"`
}

// String returns the XML form of the element.
func (d *EncryptedData) String() string {
	if d == nil {
		return ""
	}
	out, err := xml.Marshal(d)
	if err != nil {
		// chardata of a Base64 string always marshals
		return ""
	}
	return string(out)
}

// ParseEncryptedData parses an <EncryptedData> element written by a host.
func ParseEncryptedData(s string) (*EncryptedData, error) {
	var d EncryptedData
	if err := xml.Unmarshal([]byte(s), &d); err != nil {
		return nil, fmt.Errorf("%w: not an EncryptedData element: %w", ErrInvalidFormat, err)
	}
	return &d, nil
}

// checkFragment verifies that s is a well-formed XML document with exactly
// one root element.
func checkFragment(s string) error {
	dec := xml.NewDecoder(strings.NewReader(s))

	depth, roots := 0, 0
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("%w: fragment is not well-formed: %w", ErrInvalidFormat, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if depth == 0 {
				roots++
				if roots > 1 {
					return fmt.Errorf("%w: fragment has more than one root element", ErrInvalidFormat)
				}
			}
			depth++
		case xml.EndElement:
			depth--
		case xml.CharData:
			if depth == 0 && len(strings.TrimSpace(string(t))) > 0 {
				return fmt.Errorf("%w: text outside the root element", ErrInvalidFormat)
			}
		}
	}

	if roots == 0 {
		return fmt.Errorf("%w: fragment has no root element", ErrInvalidFormat)
	}
	return nil
}
