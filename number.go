package oci

import (
	"encoding/binary"
	"fmt"
	"math"
	"unsafe"

	"github.com/shopspring/decimal"
	"golang.org/x/exp/constraints"

	"github.com/slingdata-io/goci/native"
)

// Capacities of the two NUMBER wire formats. NUM carries no length byte, VNU does.
const (
	numCapacity = native.NumberSize - 1
	vnuCapacity = native.NumberSize
)

// numCodec is what the number calls need: the library and an error handle
type numCodec struct {
	lib  native.Native
	errh native.Handle
}

// Number is an Oracle NUMBER in its 22-byte native form: a length byte followed by
// the exponent and base-100 mantissa.
type Number struct {
	raw native.Number
	nc  numCodec
}

// Bytes returns the encoded value without the length byte
func (n Number) Bytes() []byte {
	l := int(n.raw[0])
	if l > numCapacity {
		l = numCapacity
	}
	return n.raw[1 : 1+l]
}

// Native returns the 22-byte representation
func (n Number) Native() native.Number {
	return n.raw
}

func (n Number) codec() (numCodec, error) {
	if n.nc.lib == nil {
		return numCodec{}, fmt.Errorf("oci: number is not bound to a connection")
	}
	return n.nc, nil
}

// Decimal converts the number to a decimal through its text form
func (n Number) Decimal() (decimal.Decimal, error) {
	nc, err := n.codec()
	if err != nil {
		return decimal.Decimal{}, err
	}
	text, err := nc.text(&n.raw)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return decimal.NewFromString(text)
}

// Int64 converts the number to an int64, failing if it does not fit
func (n Number) Int64() (int64, error) {
	nc, err := n.codec()
	if err != nil {
		return 0, err
	}
	return numberToInt[int64](nc, &n.raw)
}

// Float64 converts the number to the nearest float64
func (n Number) Float64() (float64, error) {
	nc, err := n.codec()
	if err != nil {
		return 0, err
	}
	return numberToReal[float64](nc, &n.raw)
}

// String returns the decimal text of the number, or its raw bytes if it cannot be converted
func (n Number) String() string {
	d, err := n.Decimal()
	if err != nil {
		return fmt.Sprintf("Number(%x)", n.Bytes())
	}
	return d.String()
}

// numberFromWire copies a NUM or VNU payload into a Number
func numberFromWire(ty Type, raw []byte) (native.Number, error) {
	var num native.Number
	switch ty {
	case native.SQLT_NUM:
		if len(raw) > numCapacity {
			return num, &OverflowError{Extracted: len(raw), Capacity: numCapacity}
		}
		num[0] = byte(len(raw))
		copy(num[1:], raw)
	case native.SQLT_VNU:
		if len(raw) > vnuCapacity {
			return num, &OverflowError{Extracted: len(raw), Capacity: vnuCapacity}
		}
		copy(num[:], raw)
	default:
		return num, &ConversionError{Type: ty, Target: "number"}
	}
	return num, nil
}

func anyBytes[T any](v *T) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), unsafe.Sizeof(*v))
}

func isSigned[I constraints.Integer]() bool {
	return ^I(0) < 0
}

func numberToInt[I constraints.Integer](nc numCodec, num *native.Number) (I, error) {
	var v I
	st := nc.lib.NumberToInt(nc.errh, num, anyBytes(&v), isSigned[I]())
	return v, decode(nc.lib, st, nc.errh)
}

func numberToReal[F constraints.Float](nc numCodec, num *native.Number) (F, error) {
	var v F
	st := nc.lib.NumberToReal(nc.errh, num, anyBytes(&v))
	return v, decode(nc.lib, st, nc.errh)
}

// numberTextFormat asks for the shortest text form without padding
const numberTextFormat = "TM9"

func (nc numCodec) text(num *native.Number) (string, error) {
	buf := make([]byte, 64)
	n, st := nc.lib.NumberToText(nc.errh, num, numberTextFormat, buf)
	if err := decode(nc.lib, st, nc.errh); err != nil {
		return "", err
	}
	return string(buf[:n]), nil
}

// decodeInteger converts an integer wire value. INT and UIN are reinterpreted when the
// byte width matches the destination; NUM and VNU go through OCINumberToInt.
func decodeInteger[I constraints.Integer](nc numCodec, ty Type, raw []byte) (I, error) {
	var v I
	width := int(unsafe.Sizeof(v))
	signed := isSigned[I]()

	switch {
	case ty == native.SQLT_INT && signed, ty == native.SQLT_UIN && !signed:
		if len(raw) != width {
			return v, &ConversionError{Type: ty, Target: fmt.Sprintf("%d-byte integer", width)}
		}
		copy(anyBytes(&v), raw)
		return v, nil
	case ty == native.SQLT_NUM, ty == native.SQLT_VNU:
		num, err := numberFromWire(ty, raw)
		if err != nil {
			return v, err
		}
		return numberToInt[I](nc, &num)
	default:
		return v, &ConversionError{Type: ty, Target: fmt.Sprintf("%T", v)}
	}
}

func decodeSigned[I constraints.Signed](nc numCodec, ty Type, raw []byte) (I, error) {
	return decodeInteger[I](nc, ty, raw)
}

func decodeUnsigned[I constraints.Unsigned](nc numCodec, ty Type, raw []byte) (I, error) {
	return decodeInteger[I](nc, ty, raw)
}

// decodeFloat converts a floating point wire value
func decodeFloat[F constraints.Float](nc numCodec, ty Type, raw []byte) (F, error) {
	switch ty {
	case native.SQLT_FLT, native.SQLT_BFLOAT, native.SQLT_BDOUBLE, native.SQLT_IBFLOAT, native.SQLT_IBDOUBLE:
		switch {
		case len(raw) == 4 && ty != native.SQLT_BDOUBLE && ty != native.SQLT_IBDOUBLE:
			return F(math.Float32frombits(binary.NativeEndian.Uint32(raw))), nil
		case len(raw) == 8 && ty != native.SQLT_BFLOAT && ty != native.SQLT_IBFLOAT:
			return F(math.Float64frombits(binary.NativeEndian.Uint64(raw))), nil
		}
		return 0, &ConversionError{Type: ty, Target: fmt.Sprintf("%d-byte float", len(raw))}
	case native.SQLT_NUM, native.SQLT_VNU:
		num, err := numberFromWire(ty, raw)
		if err != nil {
			return 0, err
		}
		return numberToReal[F](nc, &num)
	default:
		var v F
		return 0, &ConversionError{Type: ty, Target: fmt.Sprintf("%T", v)}
	}
}

// encodeNumber converts an integer to a Number through OCINumberFromInt
func encodeNumber[I constraints.Integer](nc numCodec, v I) (Number, error) {
	n := Number{nc: nc}
	st := nc.lib.NumberFromInt(nc.errh, anyBytes(&v), isSigned[I](), &n.raw)
	if err := decode(nc.lib, st, nc.errh); err != nil {
		return Number{}, err
	}
	return n, nil
}

// NewNumber converts an integer to a Number that can be bound as VARNUM
func NewNumber[I constraints.Integer](conn *Connection, v I) (Number, error) {
	if conn.closed() {
		return Number{}, ErrClosed
	}
	return encodeNumber(conn.numCodec(), v)
}
