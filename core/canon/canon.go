// Package canon is the single path to hashed bytes in this repository.
// It wraps RFC 8785 (JCS) canonicalization — the same library
// davidahmann-gait's core/jcs package uses — with an additional pass that
// rejects floating-point numbers anywhere in the value, since spec §4.1
// forbids them in any region that will be hashed and JCS alone does not
// enforce that.
package canon

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"
)

// EncodingError is returned when a value cannot be canonicalized: it is not
// JSON-representable, or it contains a float in a region that will be
// hashed. It is always a producer-side bug, never a runtime condition to
// retry.
type EncodingError struct {
	Path string
	Msg  string
}

func (e *EncodingError) Error() string {
	if e.Path == "" {
		return "canon: " + e.Msg
	}
	return fmt.Sprintf("canon: at %s: %s", e.Path, e.Msg)
}

// Marshal encodes v to JSON and returns its canonical byte form: object
// keys sorted by Unicode code point at every level, no insignificant
// whitespace, integers without decimal point or exponent, no BOM, no
// trailing newline. A number anywhere in v whose JSON encoding carries a
// fraction or an exponent produces an *EncodingError; a Go float64 with an
// integral value encodes as an integer and is accepted.
func Marshal(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, &EncodingError{Msg: err.Error()}
	}
	return CanonicalizeJSON(raw)
}

// CanonicalizeJSON canonicalizes already-encoded JSON bytes. It decodes the
// input to check for forbidden floats before handing the bytes to the JCS
// transform, so the failure is reported at the producer rather than
// silently rounding a fractional quantity.
func CanonicalizeJSON(input []byte) ([]byte, error) {
	var decoded any
	dec := json.NewDecoder(bytes.NewReader(input))
	dec.UseNumber()
	if err := dec.Decode(&decoded); err != nil {
		return nil, &EncodingError{Msg: "input is not well-formed JSON: " + err.Error()}
	}
	if err := rejectFloats("$", decoded); err != nil {
		return nil, err
	}
	out, err := jcs.Transform(input)
	if err != nil {
		return nil, &EncodingError{Msg: err.Error()}
	}
	return out, nil
}

// Digest returns the lowercase-hex SHA-256 digest of v's canonical bytes.
func Digest(v any) (string, error) {
	canonical, err := Marshal(v)
	if err != nil {
		return "", err
	}
	return DigestBytes(canonical), nil
}

// DigestJSON canonicalizes raw JSON bytes and returns the hex digest of the
// canonical form.
func DigestJSON(raw []byte) (string, error) {
	canonical, err := CanonicalizeJSON(raw)
	if err != nil {
		return "", err
	}
	return DigestBytes(canonical), nil
}

// DigestBytes returns the lowercase-hex SHA-256 of an arbitrary byte string.
// Used for the "prefix:part:part" domain-separated preimages of core/ids.
func DigestBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func rejectFloats(path string, v any) error {
	switch typed := v.(type) {
	case json.Number:
		s := typed.String()
		for _, c := range s {
			if c == '.' || c == 'e' || c == 'E' {
				return &EncodingError{Path: path, Msg: "floating-point value forbidden in a hashed region: " + s}
			}
		}
		return nil
	case map[string]any:
		for key, nested := range typed {
			if err := rejectFloats(path+"."+key, nested); err != nil {
				return err
			}
		}
		return nil
	case []any:
		for i, nested := range typed {
			if err := rejectFloats(fmt.Sprintf("%s[%d]", path, i), nested); err != nil {
				return err
			}
		}
		return nil
	default:
		return nil
	}
}
