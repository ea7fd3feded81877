package oci

import (
	"fmt"
	"math"
	"time"

	"github.com/golang-sql/civil"
	"github.com/shopspring/decimal"

	"github.com/slingdata-io/goci/native"
)

// dateTime is a calendar value as read from DAT bytes or a datetime descriptor
type dateTime struct {
	year                 int
	month, day           int
	hour, minute, second int
	nanosecond           int
	hasZone              bool
	tzHour, tzMinute     int
}

func (d dateTime) civil() civil.DateTime {
	return civil.DateTime{
		Date: civil.Date{Year: d.year, Month: time.Month(d.month), Day: d.day},
		Time: civil.Time{Hour: d.hour, Minute: d.minute, Second: d.second, Nanosecond: d.nanosecond},
	}
}

// time returns the value as a time.Time. Values without a zone are UTC.
func (d dateTime) time() time.Time {
	loc := time.UTC
	if d.hasZone {
		offset := d.tzHour*3600 + d.tzMinute*60
		if offset != 0 {
			loc = time.FixedZone(fmt.Sprintf("%+03d:%02d", d.tzHour, abs(d.tzMinute)), offset)
		}
	}
	return time.Date(d.year, time.Month(d.month), d.day, d.hour, d.minute, d.second, d.nanosecond, loc)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// datSize is the byte size of the 7-byte DATE wire format
const datSize = 7

// decodeDat reads century+100, year+100, month, day, hour+1, minute+1 and second+1
func decodeDat(raw []byte) (dateTime, error) {
	if len(raw) != datSize {
		return dateTime{}, &ConversionError{Type: native.SQLT_DAT, Target: "7-byte date"}
	}
	return dateTime{
		year:   (int(raw[0])-100)*100 + int(raw[1]) - 100,
		month:  int(raw[2]),
		day:    int(raw[3]),
		hour:   int(raw[4]) - 1,
		minute: int(raw[5]) - 1,
		second: int(raw[6]) - 1,
	}, nil
}

// encodeDate produces the 7-byte DATE wire format. Fractional seconds are dropped.
func encodeDate(dt civil.DateTime) ([]byte, error) {
	y := dt.Date.Year
	if y < 1 || y > 9999 {
		return nil, fmt.Errorf("oci: year %d is outside the DATE range 1..9999", y)
	}
	return []byte{
		byte(y/100 + 100),
		byte(y%100 + 100),
		byte(dt.Date.Month),
		byte(dt.Date.Day),
		byte(dt.Time.Hour + 1),
		byte(dt.Time.Minute + 1),
		byte(dt.Time.Second + 1),
	}, nil
}

func decodeDateTime(ty Type, raw []byte, conn *Connection) (dateTime, error) {
	if ty == native.SQLT_DAT {
		return decodeDat(raw)
	}
	switch ty {
	case native.SQLT_DATE, native.SQLT_TIMESTAMP, native.SQLT_TIMESTAMP_TZ, native.SQLT_TIMESTAMP_LTZ:
	default:
		return dateTime{}, &ConversionError{Type: ty, Target: "date/time"}
	}
	ref, err := descriptorRef(ty, raw)
	if err != nil {
		return dateTime{}, err
	}
	lib, h, errh := conn.lib, conn.session.raw, conn.errh()

	year, month, day, st := lib.DateTimeGetDate(h, errh, ref)
	if err := check(lib, st, errh, "OCIDateTimeGetDate"); err != nil {
		return dateTime{}, err
	}
	d := dateTime{year: int(year), month: int(month), day: int(day)}
	if ty == native.SQLT_DATE {
		return d, nil
	}

	hour, minute, second, fsec, st := lib.DateTimeGetTime(h, errh, ref)
	if err := check(lib, st, errh, "OCIDateTimeGetTime"); err != nil {
		return dateTime{}, err
	}
	d.hour, d.minute, d.second, d.nanosecond = int(hour), int(minute), int(second), int(fsec)

	if ty == native.SQLT_TIMESTAMP_TZ || ty == native.SQLT_TIMESTAMP_LTZ {
		tzh, tzm, st := lib.DateTimeGetTimeZoneOffset(h, errh, ref)
		if err := check(lib, st, errh, "OCIDateTimeGetTimeZoneOffset"); err != nil {
			return dateTime{}, err
		}
		d.hasZone, d.tzHour, d.tzMinute = true, int(tzh), int(tzm)
	}
	return d, nil
}

func decodeTime(ty Type, raw []byte, conn *Connection) (time.Time, error) {
	d, err := decodeDateTime(ty, raw, conn)
	if err != nil {
		return time.Time{}, err
	}
	return d.time(), nil
}

func decodeIntervalDS(ty Type, raw []byte, conn *Connection) (IntervalDS, error) {
	if ty != native.SQLT_INTERVAL_DS {
		return IntervalDS{}, &ConversionError{Type: ty, Target: "interval day to second"}
	}
	ref, err := descriptorRef(ty, raw)
	if err != nil {
		return IntervalDS{}, err
	}
	lib, errh := conn.lib, conn.errh()
	day, hour, minute, second, fsec, st := lib.IntervalGetDaySecond(conn.session.raw, errh, ref)
	if err := check(lib, st, errh, "OCIIntervalGetDaySecond"); err != nil {
		return IntervalDS{}, err
	}
	return IntervalDS{Days: day, Hours: hour, Minutes: minute, Seconds: second, Nanoseconds: fsec}, nil
}

// maxDurationDays is the number of whole days a time.Duration can hold
const maxDurationDays = math.MaxInt64 / int64(24*time.Hour)

// decodeDuration reads a non-negative INTERVAL DAY TO SECOND. Any negative component
// is a conversion error; use IntervalDS for signed intervals.
func decodeDuration(ty Type, raw []byte, conn *Connection) (time.Duration, error) {
	iv, err := decodeIntervalDS(ty, raw, conn)
	if err != nil {
		return 0, err
	}
	if iv.Negative() {
		return 0, &ConversionError{Type: ty, Target: "non-negative time.Duration"}
	}
	if int64(iv.Days) >= maxDurationDays {
		return 0, &ConversionError{Type: ty, Target: "time.Duration"}
	}
	return iv.Duration(), nil
}

func decodeIntervalYM(ty Type, raw []byte, conn *Connection) (IntervalYM, error) {
	if ty != native.SQLT_INTERVAL_YM {
		return IntervalYM{}, &ConversionError{Type: ty, Target: "interval year to month"}
	}
	ref, err := descriptorRef(ty, raw)
	if err != nil {
		return IntervalYM{}, err
	}
	lib, errh := conn.lib, conn.errh()
	year, month, st := lib.IntervalGetYearMonth(conn.session.raw, errh, ref)
	if err := check(lib, st, errh, "OCIIntervalGetYearMonth"); err != nil {
		return IntervalYM{}, err
	}
	return IntervalYM{Years: year, Months: month}, nil
}

// decodeIntervalNumber converts an interval to a decimal count of days (DAY TO SECOND)
// or years (YEAR TO MONTH)
func decodeIntervalNumber(ty Type, raw []byte, conn *Connection) (decimal.Decimal, error) {
	if ty != native.SQLT_INTERVAL_DS && ty != native.SQLT_INTERVAL_YM {
		return decimal.Decimal{}, &ConversionError{Type: ty, Target: "decimal"}
	}
	ref, err := descriptorRef(ty, raw)
	if err != nil {
		return decimal.Decimal{}, err
	}
	var num native.Number
	lib, errh := conn.lib, conn.errh()
	if err := check(lib, lib.IntervalToNumber(conn.session.raw, errh, ref, &num), errh, "OCIIntervalToNumber"); err != nil {
		return decimal.Decimal{}, err
	}
	text, err := conn.numCodec().text(&num)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return decimal.NewFromString(text)
}
