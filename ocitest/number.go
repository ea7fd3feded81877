package ocitest

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/slingdata-io/goci/native"
)

// maxDigits is the number of base-100 mantissa digits a NUMBER holds
const maxDigits = 20

var hundred = big.NewInt(100)

// EncodeNumber returns the 22-byte native form of d: a length byte, the exponent byte
// and up to 20 base-100 digits. Digits past the 20th are truncated.
func EncodeNumber(d decimal.Decimal) native.Number {
	return encodeNumber(d)
}

func encodeNumber(d decimal.Decimal) native.Number {
	var num native.Number
	if d.IsZero() {
		num[0], num[1] = 1, 0x80
		return num
	}

	negative := d.Sign() < 0
	coef := new(big.Int).Abs(d.Coefficient())
	exp := int(d.Exponent())
	if exp%2 != 0 {
		coef.Mul(coef, big.NewInt(10))
		exp--
	}

	// Base-100 digits, least significant first
	var digits []int
	mod := new(big.Int)
	for coef.Sign() > 0 {
		coef.DivMod(coef, hundred, mod)
		digits = append(digits, int(mod.Int64()))
	}
	for len(digits) > 1 && digits[0] == 0 {
		digits = digits[1:]
		exp += 2
	}
	for i, j := 0, len(digits)-1; i < j; i, j = i+1, j-1 {
		digits[i], digits[j] = digits[j], digits[i]
	}
	e := len(digits) - 1 + exp/2
	if len(digits) > maxDigits {
		digits = digits[:maxDigits]
	}
	for len(digits) > 1 && digits[len(digits)-1] == 0 {
		digits = digits[:len(digits)-1]
	}

	out := num[1:1]
	if negative {
		out = append(out, byte(62-e))
		for _, dg := range digits {
			out = append(out, byte(101-dg))
		}
		if len(digits) < maxDigits {
			out = append(out, 102)
		}
	} else {
		out = append(out, byte(193+e))
		for _, dg := range digits {
			out = append(out, byte(dg+1))
		}
	}
	num[0] = byte(len(out))
	return num
}

// DecodeNumber converts the native form back to a decimal
func DecodeNumber(num native.Number) (decimal.Decimal, error) {
	return decodeNumber(&num)
}

func decodeNumber(num *native.Number) (decimal.Decimal, error) {
	n := int(num[0])
	if n < 1 || n > native.NumberSize-1 {
		return decimal.Decimal{}, fmt.Errorf("invalid NUMBER length %d", n)
	}
	b := num[1 : 1+n]
	if b[0] == 0x80 {
		return decimal.Zero, nil
	}

	negative := b[0]&0x80 == 0
	var e int
	if negative {
		e = 62 - int(b[0])
	} else {
		e = int(b[0]) - 193
	}
	coef := new(big.Int)
	count := 0
	for _, c := range b[1:] {
		var dg int
		if negative {
			if c == 102 {
				break
			}
			dg = 101 - int(c)
		} else {
			dg = int(c) - 1
		}
		if dg < 0 || dg > 99 {
			return decimal.Decimal{}, fmt.Errorf("invalid NUMBER digit %d", c)
		}
		coef.Mul(coef, hundred)
		coef.Add(coef, big.NewInt(int64(dg)))
		count++
	}
	if negative {
		coef.Neg(coef)
	}
	return decimal.NewFromBigInt(coef, int32(2*(e-count+1))), nil
}

// intRange returns the bounds of an integer of width bytes
func intRange(width int, signed bool) (lo, hi *big.Int) {
	bits := uint(width * 8)
	if signed {
		hi = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), bits-1), big.NewInt(1))
		lo = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), bits-1))
		return lo, hi
	}
	hi = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), bits), big.NewInt(1))
	return big.NewInt(0), hi
}

func (l *Library) NumberToInt(errh native.Handle, num *native.Number, out []byte, signed bool) native.Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	if st, ok := l.enter("NumberToInt", errh); ok {
		return st
	}
	switch len(out) {
	case 1, 2, 4, 8:
	default:
		return l.fail(errh, 22053, "overflow error")
	}
	d, err := decodeNumber(num)
	if err != nil {
		return l.fail(errh, 22054, "underflow error")
	}
	v := d.Truncate(0).BigInt()
	lo, hi := intRange(len(out), signed)
	if v.Cmp(lo) < 0 || v.Cmp(hi) > 0 {
		return l.fail(errh, 22053, "overflow error")
	}
	if signed {
		putInt(out, v.Int64())
	} else {
		putInt(out, int64(v.Uint64()))
	}
	return native.OCI_SUCCESS
}

func (l *Library) NumberFromInt(errh native.Handle, in []byte, signed bool, num *native.Number) native.Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	if st, ok := l.enter("NumberFromInt", errh); ok {
		return st
	}
	switch len(in) {
	case 1, 2, 4, 8:
	default:
		return l.fail(errh, 22053, "overflow error")
	}
	i, u := getInt(in, signed)
	var d decimal.Decimal
	if signed {
		d = decimal.NewFromInt(i)
	} else {
		d = decimal.NewFromBigInt(new(big.Int).SetUint64(u), 0)
	}
	*num = encodeNumber(d)
	return native.OCI_SUCCESS
}

func (l *Library) NumberToReal(errh native.Handle, num *native.Number, out []byte) native.Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	if st, ok := l.enter("NumberToReal", errh); ok {
		return st
	}
	d, err := decodeNumber(num)
	if err != nil {
		return l.fail(errh, 22054, "underflow error")
	}
	f, _ := d.Float64()
	switch len(out) {
	case 4:
		binary.NativeEndian.PutUint32(out, math.Float32bits(float32(f)))
	case 8:
		binary.NativeEndian.PutUint64(out, math.Float64bits(f))
	default:
		return l.fail(errh, 22053, "overflow error")
	}
	return native.OCI_SUCCESS
}

// NumberToText writes the shortest decimal text regardless of format
func (l *Library) NumberToText(errh native.Handle, num *native.Number, format string, buf []byte) (int, native.Status) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if st, ok := l.enter("NumberToText", errh); ok {
		return 0, st
	}
	d, err := decodeNumber(num)
	if err != nil {
		return 0, l.fail(errh, 22054, "underflow error")
	}
	text := d.String()
	if len(text) > len(buf) {
		return 0, l.fail(errh, 22065, "number to text translation for the given format causes overflow")
	}
	return copy(buf, text), native.OCI_SUCCESS
}
