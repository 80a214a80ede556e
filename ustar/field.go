package ustar

// Field is a named, fixed-width region of a header record.
//
// Decoded values are computed on first use and cached. A Field is owned by exactly one Header so there is no locking.
type Field struct {
	name string
	raw  []byte

	str        *string
	octal      *int64
	octalError error
}

// newField copies width bytes of buf starting at offset into a new Field.
//
// Bytes past the end of buf are left as NUL.
func newField(name string, width int, buf []byte, offset int) *Field {
	f := &Field{name: name, raw: make([]byte, width)}
	if offset < len(buf) {
		copy(f.raw, buf[offset:])
	}

	return f
}

// Name returns the name of the field, for example "size".
func (f *Field) Name() string {
	return f.name
}

// Raw returns the raw bytes of the field. The returned slice must not be modified.
func (f *Field) Raw() []byte {
	return f.raw
}

// Byte returns the first raw byte of the field.
func (f *Field) Byte() byte {
	return f.raw[0]
}

// String returns the bytes up to the first NUL, one rune per byte (Latin-1).
func (f *Field) String() string {
	if f.str != nil {
		return *f.str
	}

	var s string
	if f.raw[0] != 0 {
		rs := make([]rune, 0, len(f.raw))
		for _, b := range f.raw {
			if b == 0 {
				break
			}
			rs = append(rs, rune(b))
		}
		s = string(rs)
	}

	f.str = &s
	return s
}

// Int is the int variant of Int64.
func (f *Field) Int() (int, error) {
	v, err := f.Int64()
	return int(v), err
}

// Int64 parses the field as base-8 text.
//
// Leading spaces and '0's are padding. A NUL ends the number, as does a space once a significant digit has been seen.
// Every other byte must be '0' through '7'. A field that is all padding is 0.
func (f *Field) Int64() (int64, error) {
	if f.octal != nil || f.octalError != nil {
		if f.octalError != nil {
			return 0, f.octalError
		}
		return *f.octal, nil
	}

	var (
		v       int64
		padding = true
	)

loop:
	for _, b := range f.raw {
		switch {
		case padding && (b == ' ' || b == '0'):
			continue
		case b == 0:
			break loop
		case !padding && b == ' ':
			break loop
		case b < '0' || '7' < b:
			f.octalError = &FieldError{Field: f.name, Raw: append([]byte(nil), f.raw...), Reason: "not octal"}
			return 0, f.octalError
		}

		padding = false
		v = v<<3 + int64(b-'0')
	}

	f.octal = &v
	return v, nil
}
