package movies

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidPayload is wrapped by every error returned from Decode,
// DecodeFields and FromFields.
var ErrInvalidPayload = errors.New("invalid movie payload")

// Decode parses a request body into a Movie. The body must be a JSON object
// holding "year", "title" and "id". Year may be an integral number or a
// string holding one; title and id may be strings, numbers or booleans and
// are stored in their string form.
func Decode(body []byte) (Movie, error) {
	fields, err := DecodeFields(body)
	if err != nil {
		return Movie{}, err
	}
	return FromFields(fields)
}

// DecodeFields parses body as exactly one JSON object. Numbers are kept as
// json.Number.
func DecodeFields(body []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, payloadErrorf("decode body: %s", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, payloadErrorf("decode body: extra data after object")
	}

	return fields, nil
}

// FromFields builds a Movie from a decoded payload.
func FromFields(fields map[string]any) (Movie, error) {
	year, err := yearField(fields, "year")
	if err != nil {
		return Movie{}, err
	}

	title, err := stringField(fields, "title")
	if err != nil {
		return Movie{}, err
	}

	id, err := stringField(fields, "id")
	if err != nil {
		return Movie{}, err
	}

	return Movie{
		ID:    id,
		Title: title,
		Year:  year,
	}, nil
}

func payloadErrorf(format string, a ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidPayload, fmt.Sprintf(format, a...))
}

func lookup(fields map[string]any, key string) (any, error) {
	v, ok := fields[key]
	if !ok || v == nil {
		return nil, payloadErrorf("missing field %q", key)
	}
	return v, nil
}

func yearField(fields map[string]any, key string) (int, error) {
	v, err := lookup(fields, key)
	if err != nil {
		return 0, err
	}

	var s string
	switch v := v.(type) {
	case json.Number:
		s = v.String()
	case string:
		s = strings.TrimSpace(v)
	default:
		return 0, payloadErrorf("field %q: unsupported type %T", key, v)
	}

	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}

	// 1999.0 and 1e3 are integers too. Bounds match what Atoi accepts.
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || f < math.MinInt || f >= -math.MinInt {
		return 0, payloadErrorf("field %q: %q is not an integer", key, s)
	}
	return int(f), nil
}

func stringField(fields map[string]any, key string) (string, error) {
	v, err := lookup(fields, key)
	if err != nil {
		return "", err
	}

	switch v := v.(type) {
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case bool:
		if v {
			return "True", nil
		}
		return "False", nil
	default:
		return "", payloadErrorf("field %q: unsupported type %T", key, v)
	}
}
