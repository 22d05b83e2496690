package base32url

import (
	"fmt"
	"strconv"
	"strings"
)

// Options control the shape of an encoded string. The zero value produces
// the bare encoding.
type Options struct {
	// Length is the minimum number of characters, hyphens excluded. Shorter
	// encodings are padded with leading zeros.
	Length int
	// Split inserts a hyphen every Split characters, counting from the right.
	Split int
	// Checksum appends two decimal check digits (ISO 7064 mod 97-10).
	Checksum bool
}

// DefaultOptions are used by ID.String, ID.MarshalText and ID.UnmarshalText.
var DefaultOptions Options

func (o Options) validate() error {
	if o.Length < 0 {
		return fmt.Errorf("%w: negative length %d", ErrInvalidOptions, o.Length)
	}
	if o.Split < 0 {
		return fmt.Errorf("%w: negative split %d", ErrInvalidOptions, o.Split)
	}
	return nil
}

// String returns the options in the form accepted by ParseOptions. Unset
// fields are omitted.
func (o Options) String() string {
	var parts []string
	if o.Length > 0 {
		parts = append(parts, "length="+strconv.Itoa(o.Length))
	}
	if o.Split > 0 {
		parts = append(parts, "split="+strconv.Itoa(o.Split))
	}
	if o.Checksum {
		parts = append(parts, "checksum=true")
	}
	return strings.Join(parts, ",")
}

// ParseOptions parses a comma separated list of key=value pairs such as
// "length=8,split=4,checksum=true". The recognized keys are length, split and
// checksum; a bare "checksum" means true. Any other key is rejected with
// ErrInvalidOptions.
func ParseOptions(s string) (Options, error) {
	var o Options
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		key, value, hasValue := strings.Cut(field, "=")
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)

		var err error
		switch key {
		case "length":
			o.Length, err = strconv.Atoi(value)
		case "split":
			o.Split, err = strconv.Atoi(value)
		case "checksum":
			o.Checksum = true
			if hasValue {
				o.Checksum, err = strconv.ParseBool(value)
			}
		default:
			return Options{}, fmt.Errorf("%w: unknown key %q", ErrInvalidOptions, key)
		}
		if err != nil {
			return Options{}, fmt.Errorf("%w: %s: %v", ErrInvalidOptions, key, err)
		}
	}
	if err := o.validate(); err != nil {
		return Options{}, err
	}
	return o, nil
}
