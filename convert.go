package oci

import (
	"database/sql/driver"
	"encoding/binary"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"time"
	"unicode/utf8"
	"unsafe"

	"github.com/golang-sql/civil"
	"github.com/shopspring/decimal"

	"github.com/slingdata-io/goci/native"
)

// FromDB is implemented by types that decode themselves from a fetched column value.
// raw is only valid for the duration of the call.
type FromDB interface {
	FromDB(ty Type, raw []byte, conn *Connection) error
}

// ToDB is implemented by types that encode themselves for binding.
// A nil data slice binds NULL.
type ToDB interface {
	ToDB(conn *Connection) (ty Type, data []byte, err error)
}

// bindValue is a value ready to hand to OCIBindByPos or OCIBindByName
type bindValue struct {
	ty   Type
	data []byte
	null bool
}

// fromDB converts a fetched column value into the variable dest points to
func fromDB(ty Type, raw []byte, conn *Connection, dest any) error {
	nc := conn.numCodec()

	var err error
	switch d := dest.(type) {
	case FromDB:
		return d.FromDB(ty, raw, conn)
	case *string:
		*d, err = decodeString(ty, raw)
	case *[]byte:
		var b []byte
		if b, err = decodeBinary(ty, raw); err == nil {
			*d = append((*d)[:0], b...)
		}
	case *int:
		*d, err = decodeSigned[int](nc, ty, raw)
	case *int8:
		*d, err = decodeSigned[int8](nc, ty, raw)
	case *int16:
		*d, err = decodeSigned[int16](nc, ty, raw)
	case *int32:
		*d, err = decodeSigned[int32](nc, ty, raw)
	case *int64:
		*d, err = decodeSigned[int64](nc, ty, raw)
	case *uint:
		*d, err = decodeUnsigned[uint](nc, ty, raw)
	case *uint8:
		*d, err = decodeUnsigned[uint8](nc, ty, raw)
	case *uint16:
		*d, err = decodeUnsigned[uint16](nc, ty, raw)
	case *uint32:
		*d, err = decodeUnsigned[uint32](nc, ty, raw)
	case *uint64:
		*d, err = decodeUnsigned[uint64](nc, ty, raw)
	case *bool:
		*d, err = decodeBool(nc, ty, raw)
	case *float32:
		*d, err = decodeFloat[float32](nc, ty, raw)
	case *float64:
		*d, err = decodeFloat[float64](nc, ty, raw)
	case *time.Duration:
		*d, err = decodeDuration(ty, raw, conn)
	case *IntervalDS:
		*d, err = decodeIntervalDS(ty, raw, conn)
	case *IntervalYM:
		*d, err = decodeIntervalYM(ty, raw, conn)
	case *time.Time:
		*d, err = decodeTime(ty, raw, conn)
	case *civil.DateTime:
		var dt dateTime
		if dt, err = decodeDateTime(ty, raw, conn); err == nil {
			*d = dt.civil()
		}
	case *civil.Date:
		var dt dateTime
		if dt, err = decodeDateTime(ty, raw, conn); err == nil {
			*d = dt.civil().Date
		}
	case *civil.Time:
		var dt dateTime
		if dt, err = decodeDateTime(ty, raw, conn); err == nil {
			*d = dt.civil().Time
		}
	case *decimal.Decimal:
		if ty == native.SQLT_INTERVAL_DS || ty == native.SQLT_INTERVAL_YM {
			*d, err = decodeIntervalNumber(ty, raw, conn)
		} else {
			*d, err = decodeDecimal(nc, ty, raw)
		}
	case *Number:
		var num native.Number
		if num, err = numberFromWire(ty, raw); err == nil {
			*d = Number{raw: num, nc: nc}
		}
	case *Blob:
		var loc *lobLocator
		if loc, err = decodeLocator(ty, raw, conn, native.SQLT_BLOB); err == nil {
			*d = Blob{loc: loc}
		}
	case *Clob:
		var loc *lobLocator
		if loc, err = decodeLocator(ty, raw, conn, native.SQLT_CLOB); err == nil {
			loc.csid = uint16(CharsetAL32UTF8)
			*d = Clob{loc: loc}
		}
	case *BFile:
		var loc *lobLocator
		if loc, err = decodeLocator(ty, raw, conn, native.SQLT_BFILEE, native.SQLT_CFILEE); err == nil {
			*d = BFile{loc: loc}
		}
	case *any:
		*d, err = defaultValue(ty, raw, conn)
	default:
		return fromDBReflect(ty, raw, dest)
	}
	return err
}

// fromDBReflect handles destinations that need reflection: fixed-size byte arrays
func fromDBReflect(ty Type, raw []byte, dest any) error {
	rv := reflect.ValueOf(dest)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("oci: destination must be a non-nil pointer, got %T", dest)
	}
	elem := rv.Elem()
	if elem.Kind() == reflect.Array && elem.Type().Elem().Kind() == reflect.Uint8 {
		b, err := decodeBinary(ty, raw)
		if err != nil {
			return err
		}
		// Copies min(N, len(raw)) bytes and zeroes the rest
		elem.SetZero()
		reflect.Copy(elem, reflect.ValueOf(b))
		return nil
	}
	return &ConversionError{Type: ty, Target: elem.Type().String()}
}

// varPayload strips the length prefix or terminator of the variable-length wire formats
func varPayload(ty Type, raw []byte) ([]byte, error) {
	switch ty {
	case native.SQLT_VCS, native.SQLT_VBI:
		if len(raw) < 2 {
			return nil, &ConversionError{Type: ty}
		}
		n := int(binary.NativeEndian.Uint16(raw))
		if n > len(raw)-2 {
			return nil, &OverflowError{Extracted: n, Capacity: len(raw) - 2}
		}
		return raw[2 : 2+n], nil
	case native.SQLT_LVC, native.SQLT_LVB:
		if len(raw) < 4 {
			return nil, &ConversionError{Type: ty}
		}
		n := int(binary.NativeEndian.Uint32(raw))
		if n > len(raw)-4 {
			return nil, &OverflowError{Extracted: n, Capacity: len(raw) - 4}
		}
		return raw[4 : 4+n], nil
	case native.SQLT_AVC, native.SQLT_STR:
		for i, c := range raw {
			if c == 0 {
				return raw[:i], nil
			}
		}
		return raw, nil
	default:
		return raw, nil
	}
}

func decodeString(ty Type, raw []byte) (string, error) {
	switch ty {
	case native.SQLT_CHR, native.SQLT_AFC, native.SQLT_VCS, native.SQLT_AVC, native.SQLT_LVC, native.SQLT_STR:
		b, err := varPayload(ty, raw)
		if err != nil {
			return "", err
		}
		if !utf8.Valid(b) {
			return "", &ConversionError{Type: ty, Target: "UTF-8 string"}
		}
		return string(b), nil
	default:
		return "", &ConversionError{Type: ty, Target: "string"}
	}
}

func decodeBinary(ty Type, raw []byte) ([]byte, error) {
	switch ty {
	case native.SQLT_BIN, native.SQLT_LBI, native.SQLT_VBI, native.SQLT_LVB:
		return varPayload(ty, raw)
	default:
		return nil, &ConversionError{Type: ty, Target: "[]byte"}
	}
}

func decodeBool(nc numCodec, ty Type, raw []byte) (bool, error) {
	switch ty {
	case native.SQLT_INT:
		var v int64
		switch len(raw) {
		case 1:
			v = int64(int8(raw[0]))
		case 2:
			v = int64(binary.NativeEndian.Uint16(raw))
		case 4:
			v = int64(binary.NativeEndian.Uint32(raw))
		case 8:
			v = int64(binary.NativeEndian.Uint64(raw))
		default:
			return false, &ConversionError{Type: ty, Target: "bool"}
		}
		return v != 0, nil
	case native.SQLT_UIN:
		for _, b := range raw {
			if b != 0 {
				return true, nil
			}
		}
		return false, nil
	case native.SQLT_NUM, native.SQLT_VNU:
		v, err := decodeSigned[int64](nc, ty, raw)
		return v != 0, err
	default:
		return false, &ConversionError{Type: ty, Target: "bool"}
	}
}

func decodeDecimal(nc numCodec, ty Type, raw []byte) (decimal.Decimal, error) {
	num, err := numberFromWire(ty, raw)
	if err != nil {
		return decimal.Decimal{}, err
	}
	text, err := nc.text(&num)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return decimal.NewFromString(text)
}

// descriptorRef reads the descriptor reference stored in a define slot
func descriptorRef(ty Type, raw []byte) (native.Handle, error) {
	if len(raw) != native.PointerSize {
		return 0, &ConversionError{Type: ty, Target: "descriptor reference"}
	}
	if native.PointerSize == 8 {
		return native.Handle(binary.NativeEndian.Uint64(raw)), nil
	}
	return native.Handle(binary.NativeEndian.Uint32(raw)), nil
}

func decodeLocator(ty Type, raw []byte, conn *Connection, accepted ...Type) (*lobLocator, error) {
	for _, a := range accepted {
		if ty != a {
			continue
		}
		ref, err := descriptorRef(ty, raw)
		if err != nil {
			return nil, err
		}
		return borrowLocator(conn, ref, native.SQLCS_IMPLICIT), nil
	}
	return nil, &ConversionError{Type: ty, Target: "LOB locator"}
}

// defaultValue converts a column value to the natural Go type of its wire type
func defaultValue(ty Type, raw []byte, conn *Connection) (any, error) {
	nc := conn.numCodec()
	switch ty {
	case native.SQLT_CHR, native.SQLT_AFC, native.SQLT_VCS, native.SQLT_AVC, native.SQLT_LVC, native.SQLT_STR:
		return decodeString(ty, raw)
	case native.SQLT_BIN, native.SQLT_LBI, native.SQLT_VBI, native.SQLT_LVB:
		b, err := decodeBinary(ty, raw)
		return append([]byte(nil), b...), err
	case native.SQLT_INT:
		return decodeSigned[int64](nc, ty, raw)
	case native.SQLT_UIN:
		v, err := decodeUnsigned[uint64](nc, ty, raw)
		if err == nil && v > math.MaxInt64 {
			return decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0), nil
		}
		return int64(v), err
	case native.SQLT_NUM, native.SQLT_VNU:
		d, err := decodeDecimal(nc, ty, raw)
		if err != nil {
			return nil, err
		}
		if d.IsInteger() && d.Abs().LessThanOrEqual(decimal.NewFromInt(math.MaxInt64)) {
			return d.IntPart(), nil
		}
		return d, nil
	case native.SQLT_FLT, native.SQLT_BFLOAT, native.SQLT_BDOUBLE, native.SQLT_IBFLOAT, native.SQLT_IBDOUBLE:
		return decodeFloat[float64](nc, ty, raw)
	case native.SQLT_DAT, native.SQLT_DATE, native.SQLT_TIMESTAMP, native.SQLT_TIMESTAMP_TZ, native.SQLT_TIMESTAMP_LTZ:
		return decodeTime(ty, raw, conn)
	case native.SQLT_INTERVAL_DS:
		return decodeIntervalDS(ty, raw, conn)
	case native.SQLT_INTERVAL_YM:
		return decodeIntervalYM(ty, raw, conn)
	case native.SQLT_BLOB:
		var b Blob
		err := fromDB(ty, raw, conn, &b)
		return &b, err
	case native.SQLT_CLOB:
		var c Clob
		err := fromDB(ty, raw, conn, &c)
		return &c, err
	case native.SQLT_BFILEE, native.SQLT_CFILEE:
		var f BFile
		err := fromDB(ty, raw, conn, &f)
		return &f, err
	default:
		return nil, &ConversionError{Type: ty}
	}
}

// =============================================================================
// Encoding
// =============================================================================

// byteView returns the bytes of a value without copying
func byteView[T any](v T) []byte {
	p := new(T)
	*p = v
	return anyBytes(p)
}

func stringView(s string) []byte {
	return unsafe.Slice(unsafe.StringData(s), len(s))
}

// toDB converts a Go value into wire bytes and a wire type for binding
func toDB(conn *Connection, v any) (bindValue, error) {
	switch x := v.(type) {
	case nil:
		return bindValue{ty: native.SQLT_CHR, null: true}, nil
	case ToDB:
		ty, data, err := x.ToDB(conn)
		return bindValue{ty: ty, data: data, null: data == nil}, err
	case string:
		return bindValue{ty: native.SQLT_CHR, data: stringView(x)}, nil
	case []byte:
		return bindValue{ty: native.SQLT_BIN, data: x, null: x == nil}, nil
	case int:
		return bindValue{ty: native.SQLT_INT, data: byteView(int64(x))}, nil
	case int8:
		return bindValue{ty: native.SQLT_INT, data: byteView(x)}, nil
	case int16:
		return bindValue{ty: native.SQLT_INT, data: byteView(x)}, nil
	case int32:
		return bindValue{ty: native.SQLT_INT, data: byteView(x)}, nil
	case int64:
		return bindValue{ty: native.SQLT_INT, data: byteView(x)}, nil
	case uint:
		return bindValue{ty: native.SQLT_UIN, data: byteView(uint64(x))}, nil
	case uint8:
		return bindValue{ty: native.SQLT_UIN, data: byteView(x)}, nil
	case uint16:
		return bindValue{ty: native.SQLT_UIN, data: byteView(x)}, nil
	case uint32:
		return bindValue{ty: native.SQLT_UIN, data: byteView(x)}, nil
	case uint64:
		return bindValue{ty: native.SQLT_UIN, data: byteView(x)}, nil
	case bool:
		var b int8
		if x {
			b = 1
		}
		return bindValue{ty: native.SQLT_INT, data: byteView(b)}, nil
	case float32:
		return bindValue{ty: native.SQLT_BFLOAT, data: byteView(x)}, nil
	case float64:
		return bindValue{ty: native.SQLT_BDOUBLE, data: byteView(x)}, nil
	case Number:
		n := x.raw
		return bindValue{ty: native.SQLT_VNU, data: anyBytes(&n)}, nil
	case decimal.Decimal:
		return bindValue{ty: native.SQLT_CHR, data: []byte(x.String())}, nil
	case time.Time:
		data, err := encodeDate(civil.DateTimeOf(x))
		return bindValue{ty: native.SQLT_DAT, data: data}, err
	case civil.DateTime:
		data, err := encodeDate(x)
		return bindValue{ty: native.SQLT_DAT, data: data}, err
	case civil.Date:
		data, err := encodeDate(civil.DateTime{Date: x})
		return bindValue{ty: native.SQLT_DAT, data: data}, err
	case *Blob:
		return bindLocator(native.SQLT_BLOB, x.loc)
	case *Clob:
		return bindLocator(native.SQLT_CLOB, x.loc)
	case *BFile:
		return bindLocator(native.SQLT_BFILEE, x.loc)
	case driver.Valuer:
		dv, err := x.Value()
		if err != nil {
			return bindValue{}, err
		}
		return toDB(conn, dv)
	}

	// Pointers bind what they point to, or NULL
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return bindValue{ty: native.SQLT_CHR, null: true}, nil
		}
		return toDB(conn, rv.Elem().Interface())
	}
	// Named types over builtin kinds, e.g. type Status int32
	if dv, err := driver.DefaultParameterConverter.ConvertValue(v); err == nil && reflect.TypeOf(dv) != rv.Type() {
		return toDB(conn, dv)
	}
	return bindValue{}, fmt.Errorf("oci: cannot bind value of type %T", v)
}

func bindLocator(ty Type, loc *lobLocator) (bindValue, error) {
	if loc == nil {
		return bindValue{}, ErrClosed
	}
	if err := loc.ready(); err != nil {
		return bindValue{}, err
	}
	return bindValue{ty: ty, data: anyBytes(&loc.raw)}, nil
}

// TypeName returns the Oracle SQL name of a wire type, as reported to database/sql
func TypeName(ty Type) string {
	switch ty {
	case native.SQLT_CHR, native.SQLT_VCS, native.SQLT_STR, native.SQLT_AVC:
		return "VARCHAR2"
	case native.SQLT_AFC:
		return "CHAR"
	case native.SQLT_NUM, native.SQLT_VNU, native.SQLT_INT, native.SQLT_UIN, native.SQLT_FLT:
		return "NUMBER"
	case native.SQLT_IBFLOAT, native.SQLT_BFLOAT:
		return "BINARY_FLOAT"
	case native.SQLT_IBDOUBLE, native.SQLT_BDOUBLE:
		return "BINARY_DOUBLE"
	case native.SQLT_LNG, native.SQLT_LVC:
		return "LONG"
	case native.SQLT_BIN, native.SQLT_VBI:
		return "RAW"
	case native.SQLT_LBI, native.SQLT_LVB:
		return "LONG RAW"
	case native.SQLT_RID, native.SQLT_RDD:
		return "ROWID"
	case native.SQLT_DAT, native.SQLT_DATE:
		return "DATE"
	case native.SQLT_TIMESTAMP:
		return "TIMESTAMP"
	case native.SQLT_TIMESTAMP_TZ:
		return "TIMESTAMP WITH TIME ZONE"
	case native.SQLT_TIMESTAMP_LTZ:
		return "TIMESTAMP WITH LOCAL TIME ZONE"
	case native.SQLT_INTERVAL_YM:
		return "INTERVAL YEAR TO MONTH"
	case native.SQLT_INTERVAL_DS:
		return "INTERVAL DAY TO SECOND"
	case native.SQLT_CLOB:
		return "CLOB"
	case native.SQLT_BLOB:
		return "BLOB"
	case native.SQLT_BFILEE, native.SQLT_CFILEE:
		return "BFILE"
	case native.SQLT_BOL:
		return "BOOLEAN"
	default:
		return ty.String()
	}
}
