package base32url

import (
	"database/sql"
	"database/sql/driver"
	"encoding"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/google/uuid"
)

// Compile-time interface checks for ID
var (
	_ fmt.Stringer               = ID{}
	_ driver.Valuer              = ID{}
	_ sql.Scanner                = (*ID)(nil)
	_ encoding.TextMarshaler     = ID{}
	_ encoding.TextUnmarshaler   = (*ID)(nil)
	_ encoding.BinaryMarshaler   = ID{}
	_ encoding.BinaryUnmarshaler = (*ID)(nil)
	_ json.Marshaler             = ID{}
	_ json.Unmarshaler           = (*ID)(nil)
	_ gob.GobEncoder             = ID{}
	_ gob.GobDecoder             = (*ID)(nil)
)

// ID is a non-negative integer of any size whose text form is its base32url
// encoding. The zero value is 0. An ID never changes once built.
type ID struct {
	n *big.Int
}

var Zero ID

func (id ID) big() *big.Int {
	if id.n == nil {
		return new(big.Int)
	}
	return id.n
}

// Int returns a copy of the ID's value.
func (id ID) Int() *big.Int {
	return new(big.Int).Set(id.big())
}

// Uint64 returns the value as a uint64 and whether it fits.
func (id ID) Uint64() (uint64, bool) {
	n := id.big()
	return n.Uint64(), n.IsUint64()
}

func (id ID) IsZero() bool {
	return id.n == nil || id.n.Sign() == 0
}

// Cmp compares id and other and returns -1, 0 or +1.
func (id ID) Cmp(other ID) int {
	return id.big().Cmp(other.big())
}

// Bytes returns the value as a minimal big-endian slice. Zero is empty.
func (id ID) Bytes() []byte {
	return id.big().Bytes()
}

// UUID returns the value as a UUID. It fails if the value needs more than
// 128 bits.
func (id ID) UUID() (uuid.UUID, error) {
	n := id.big()
	if n.BitLen() > 128 {
		return uuid.Nil, fmt.Errorf("base32url: %d bits do not fit a UUID", n.BitLen())
	}
	var u uuid.UUID
	n.FillBytes(u[:])
	return u, nil
}

func (id ID) String() string {
	return id.Format(DefaultOptions)
}

// Format encodes the ID with the given options. Invalid options yield an
// empty string.
func (id ID) Format(opts Options) string {
	s, err := Encode(id.big(), opts)
	if err != nil {
		return ""
	}
	return s
}

// MarshalText implements encoding.TextMarshaler
func (id ID) MarshalText() ([]byte, error) {
	s, err := Encode(id.big(), DefaultOptions)
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (id *ID) UnmarshalText(b []byte) error {
	parsed, err := ParseID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// MarshalJSON implements json.Marshaler
func (id ID) MarshalJSON() ([]byte, error) {
	b, err := id.MarshalText()
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(b))
}

// UnmarshalJSON implements json.Unmarshaler
func (id *ID) UnmarshalJSON(b []byte) error {
	// Handle null
	if string(b) == "null" {
		*id = Zero
		return nil
	}
	// Handle numeric value
	if len(b) > 0 && b[0] != '"' {
		parsed, err := parseDecimal(string(b))
		if err != nil {
			return errors.New("base32url: invalid JSON value")
		}
		*id = parsed
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return errors.New("base32url: invalid JSON string")
	}
	return id.UnmarshalText([]byte(s))
}

// Value implements driver.Valuer. The value is stored as decimal text so it
// fits NUMERIC columns of any precision.
func (id ID) Value() (driver.Value, error) {
	return id.big().String(), nil
}

// Scan implements sql.Scanner. Strings and byte slices are read as decimal
// numbers, as returned for NUMERIC columns.
func (id *ID) Scan(src interface{}) error {
	if src == nil {
		*id = Zero
		return nil
	}
	switch v := src.(type) {
	case ID:
		*id = v
		return nil
	case int64:
		if v < 0 {
			return ErrNegative
		}
		*id = FromUint64(uint64(v))
		return nil
	case []byte:
		return id.scanDecimal(string(v))
	case string:
		return id.scanDecimal(v)
	default:
		return fmt.Errorf("base32url: cannot scan %T", src)
	}
}

func (id *ID) scanDecimal(s string) error {
	parsed, err := parseDecimal(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (id ID) MarshalBinary() ([]byte, error) {
	return id.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (id *ID) UnmarshalBinary(data []byte) error {
	*id = FromBytes(data)
	return nil
}

// GobEncode implements gob.GobEncoder.
func (id ID) GobEncode() ([]byte, error) {
	return id.MarshalBinary()
}

// GobDecode implements gob.GobDecoder.
func (id *ID) GobDecode(data []byte) error {
	return id.UnmarshalBinary(data)
}

// ParseID decodes s using DefaultOptions.
func ParseID(s string) (ID, error) {
	if len(s) == 0 {
		return Zero, errors.New("base32url: empty string")
	}
	n, err := Parse(s, DefaultOptions)
	if err != nil {
		return Zero, err
	}
	return ID{n: n}, nil
}

// FromString returns an ID parsed from the input string.
// Alias for ParseID.
func FromString(s string) (ID, error) {
	return ParseID(s)
}

// FromStringOrNil returns an ID parsed from the input string.
// Returns Zero on error.
func FromStringOrNil(s string) ID {
	id, err := ParseID(s)
	if err != nil {
		return Zero
	}
	return id
}

func parseDecimal(s string) (ID, error) {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Zero, fmt.Errorf("base32url: invalid decimal %q", s)
	}
	return FromBigInt(n)
}

// FromUint64 returns an ID from a uint64.
func FromUint64(n uint64) ID {
	return ID{n: new(big.Int).SetUint64(n)}
}

// FromBigInt returns an ID holding a copy of n.
func FromBigInt(n *big.Int) (ID, error) {
	if n == nil || n.Sign() < 0 {
		return Zero, ErrNegative
	}
	return ID{n: new(big.Int).Set(n)}, nil
}

// FromBytes returns an ID from a big-endian slice of any length.
func FromBytes(b []byte) ID {
	return ID{n: new(big.Int).SetBytes(b)}
}

// FromUUID returns the 128-bit value of u as an ID.
func FromUUID(u uuid.UUID) ID {
	return FromBytes(u[:])
}

// Must panics if err is not nil
func Must(id ID, err error) ID {
	if err != nil {
		panic(err)
	}
	return id
}
