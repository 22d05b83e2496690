package base32url

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"errors"
	"math/big"
	"testing"

	"github.com/google/uuid"
)

// codecTestID is a sample ID for codec testing
var codecTestID = FromUint64(1234567890123456789)
var codecTestBytes = codecTestID.Bytes()

func assertID(t *testing.T, what string, got, want ID) {
	t.Helper()
	if got.Cmp(want) != 0 {
		t.Errorf("%s: got %v, want %v", what, got.Int(), want.Int())
	}
}

func TestID(t *testing.T) {
	t.Run("IsZero", testIDIsZero)
	t.Run("Uint64", testIDUint64)
	t.Run("String", testIDString)
	t.Run("Format", testIDFormat)
	t.Run("UUID", testIDUUID)
	t.Run("Int", testIDIntIsCopy)
}

func testIDIsZero(t *testing.T) {
	var id ID
	if !id.IsZero() {
		t.Errorf("zero ID.IsZero() = false, want true")
	}
	if !FromUint64(0).IsZero() {
		t.Errorf("FromUint64(0).IsZero() = false, want true")
	}
	if codecTestID.IsZero() {
		t.Errorf("codecTestID.IsZero() = true, want false")
	}
	if s := id.String(); s != "0" {
		t.Errorf("zero ID.String() = %q, want %q", s, "0")
	}
}

func testIDUint64(t *testing.T) {
	got, ok := codecTestID.Uint64()
	if !ok || got != 1234567890123456789 {
		t.Errorf("Uint64() = %d, %v", got, ok)
	}
	wide := FromBytes(bytes.Repeat([]byte{0xff}, 9))
	if _, ok := wide.Uint64(); ok {
		t.Error("Uint64() on a 72-bit value reported ok")
	}
}

func testIDString(t *testing.T) {
	s := codecTestID.String()
	if s == "" {
		t.Error("String() returned empty string")
	}
	parsed, err := FromString(s)
	if err != nil {
		t.Errorf("FromString(%q) failed: %v", s, err)
	}
	assertID(t, "roundtrip", parsed, codecTestID)
}

func testIDFormat(t *testing.T) {
	id := FromUint64(1234)
	tests := []struct {
		opts Options
		want string
	}{
		{Options{}, "16j"},
		{Options{Length: 5, Split: 2}, "0-01-6j"},
		{Options{Checksum: true}, "16j82"},
		{Options{Length: -1}, ""},
	}
	for _, tt := range tests {
		if got := id.Format(tt.opts); got != tt.want {
			t.Errorf("Format(%+v) = %q, want %q", tt.opts, got, tt.want)
		}
	}
}

func testIDUUID(t *testing.T) {
	u := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	id := FromUUID(u)
	if s := id.String(); s != "3bmyw117dd278r1d00r17x8c68" {
		t.Errorf("FromUUID(%s).String() = %q", u, s)
	}
	got, err := id.UUID()
	if err != nil {
		t.Fatal(err)
	}
	if got != u {
		t.Errorf("UUID() = %s, want %s", got, u)
	}

	small, err := FromUint64(1).UUID()
	if err != nil {
		t.Fatal(err)
	}
	if want := uuid.MustParse("00000000-0000-0000-0000-000000000001"); small != want {
		t.Errorf("UUID() = %s, want %s", small, want)
	}

	tooBig := FromBytes(bytes.Repeat([]byte{1}, 17))
	if _, err := tooBig.UUID(); err == nil {
		t.Error("UUID() on a 129+ bit value: want err != nil")
	}
}

func testIDIntIsCopy(t *testing.T) {
	id := FromUint64(42)
	n := id.Int()
	n.SetInt64(7)
	if v, _ := id.Uint64(); v != 42 {
		t.Errorf("mutating Int() changed the ID to %d", v)
	}
}

func TestFromBigInt(t *testing.T) {
	n := new(big.Int).Lsh(big.NewInt(1), 100)
	id, err := FromBigInt(n)
	if err != nil {
		t.Fatal(err)
	}
	n.SetInt64(0)
	if id.IsZero() {
		t.Error("FromBigInt kept a reference to its argument")
	}
	if _, err := FromBigInt(big.NewInt(-1)); !errors.Is(err, ErrNegative) {
		t.Errorf("FromBigInt(-1): err = %v, want ErrNegative", err)
	}
	if _, err := FromBigInt(nil); !errors.Is(err, ErrNegative) {
		t.Errorf("FromBigInt(nil): err = %v, want ErrNegative", err)
	}
}

func TestFromBytes(t *testing.T) {
	assertID(t, "FromBytes", FromBytes(codecTestBytes), codecTestID)
	assertID(t, "FromBytes(empty)", FromBytes(nil), Zero)
	assertID(t, "FromBytes(leading zeros)", FromBytes([]byte{0, 0, 4, 0xd2}), FromUint64(1234))
}

func TestParseID(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		got, err := ParseID("16J")
		if err != nil {
			t.Fatal(err)
		}
		assertID(t, "ParseID(16J)", got, FromUint64(1234))
	})
	t.Run("Empty", func(t *testing.T) {
		if _, err := ParseID(""); err == nil {
			t.Error("ParseID(empty): want err != nil")
		}
	})
	t.Run("Invalid", func(t *testing.T) {
		if _, err := ParseID("invalid!!!"); !errors.Is(err, ErrInvalidEncoding) {
			t.Errorf("ParseID(invalid): err = %v, want ErrInvalidEncoding", err)
		}
	})
	t.Run("DefaultOptions", func(t *testing.T) {
		DefaultOptions = Options{Length: 8, Split: 4, Checksum: true}
		defer func() { DefaultOptions = Options{} }()

		id := FromUint64(1234)
		s := id.String()
		if s != "0001-6j82" {
			t.Errorf("String() = %q, want %q", s, "0001-6j82")
		}
		got, err := ParseID(s)
		if err != nil {
			t.Fatal(err)
		}
		assertID(t, "ParseID", got, id)
		if _, err := ParseID("0001-6j83"); err == nil {
			t.Error("ParseID with a bad checksum: want err != nil")
		}
	})
}

func TestFromStringOrNil(t *testing.T) {
	t.Run("Invalid", func(t *testing.T) {
		got := FromStringOrNil("invalid!!!")
		if !got.IsZero() {
			t.Errorf("FromStringOrNil(invalid): got %v, want Zero", got)
		}
	})
	t.Run("Valid", func(t *testing.T) {
		s := codecTestID.String()
		assertID(t, "FromStringOrNil", FromStringOrNil(s), codecTestID)
	})
}

func TestMarshalBinary(t *testing.T) {
	got, err := codecTestID.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, codecTestBytes) {
		t.Fatalf("MarshalBinary() = %x, want %x", got, codecTestBytes)
	}
	var back ID
	if err := back.UnmarshalBinary(got); err != nil {
		t.Fatal(err)
	}
	assertID(t, "UnmarshalBinary", back, codecTestID)
}

func TestGobEncode(t *testing.T) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(codecTestID); err != nil {
		t.Fatal(err)
	}
	var got ID
	if err := gob.NewDecoder(&buf).Decode(&got); err != nil {
		t.Fatal(err)
	}
	assertID(t, "Gob roundtrip", got, codecTestID)
}

func TestMarshalText(t *testing.T) {
	got, err := codecTestID.MarshalText()
	if err != nil {
		t.Fatal(err)
	}
	if want := codecTestID.String(); string(got) != want {
		t.Errorf("MarshalText(): got %s, want %s", got, want)
	}
	var back ID
	if err := back.UnmarshalText(got); err != nil {
		t.Fatal(err)
	}
	assertID(t, "UnmarshalText", back, codecTestID)
}

func TestMarshalTextInvalidDefaults(t *testing.T) {
	DefaultOptions = Options{Split: -1}
	defer func() { DefaultOptions = Options{} }()

	if _, err := codecTestID.MarshalText(); !errors.Is(err, ErrInvalidOptions) {
		t.Errorf("MarshalText(): err = %v, want ErrInvalidOptions", err)
	}
}

func TestMarshalJSON(t *testing.T) {
	got, err := json.Marshal(codecTestID)
	if err != nil {
		t.Fatal(err)
	}
	want := `"` + codecTestID.String() + `"`
	if string(got) != want {
		t.Errorf("MarshalJSON: got %s, want %s", got, want)
	}
}

func TestUnmarshalJSON(t *testing.T) {
	t.Run("String", func(t *testing.T) {
		var got ID
		if err := json.Unmarshal([]byte(`"`+codecTestID.String()+`"`), &got); err != nil {
			t.Fatal(err)
		}
		assertID(t, "UnmarshalJSON(string)", got, codecTestID)
	})
	t.Run("Numeric", func(t *testing.T) {
		var got ID
		if err := json.Unmarshal([]byte("1234567890123456789"), &got); err != nil {
			t.Fatal(err)
		}
		assertID(t, "UnmarshalJSON(numeric)", got, codecTestID)
	})
	t.Run("HugeNumeric", func(t *testing.T) {
		var got ID
		if err := json.Unmarshal([]byte("340282366920938463463374607431768211456"), &got); err != nil {
			t.Fatal(err)
		}
		want := FromBytes(append([]byte{1}, make([]byte, 16)...))
		assertID(t, "UnmarshalJSON(2^128)", got, want)
	})
	t.Run("Null", func(t *testing.T) {
		got := codecTestID
		if err := got.UnmarshalJSON([]byte("null")); err != nil {
			t.Fatal(err)
		}
		if !got.IsZero() {
			t.Errorf("UnmarshalJSON(null): got %v, want Zero", got)
		}
	})
	t.Run("Invalid", func(t *testing.T) {
		for _, in := range []string{"not-json", "-5", "1.5", `"bu"`} {
			var got ID
			if err := got.UnmarshalJSON([]byte(in)); err == nil {
				t.Errorf("UnmarshalJSON(%s): want err, got %v", in, got)
			}
		}
	})
}

func TestMust(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		got := Must(FromString(codecTestID.String()))
		assertID(t, "Must", got, codecTestID)
	})
	t.Run("Panic", func(t *testing.T) {
		defer func() {
			if r := recover(); r == nil {
				t.Error("Must did not panic on error")
			}
		}()
		Must(FromString("invalid!!!"))
	})
}

func BenchmarkFromString(b *testing.B) {
	s := codecTestID.String()
	for i := 0; i < b.N; i++ {
		FromString(s)
	}
}

func BenchmarkMarshalText(b *testing.B) {
	for i := 0; i < b.N; i++ {
		codecTestID.MarshalText()
	}
}
