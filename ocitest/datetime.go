package ocitest

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/slingdata-io/goci/native"
)

// YearMonth is an INTERVAL YEAR TO MONTH row value. Both fields carry the sign.
type YearMonth struct {
	Years  int32
	Months int32
}

func encodeDat(t time.Time) []byte {
	y := t.Year()
	return []byte{
		byte(y/100 + 100),
		byte(y%100 + 100),
		byte(t.Month()),
		byte(t.Day()),
		byte(t.Hour() + 1),
		byte(t.Minute() + 1),
		byte(t.Second() + 1),
	}
}

func decodeDat(b []byte) (time.Time, bool) {
	if len(b) != 7 {
		return time.Time{}, false
	}
	year := (int(b[0])-100)*100 + int(b[1]) - 100
	return time.Date(year, time.Month(b[2]), int(b[3]), int(b[4])-1, int(b[5])-1, int(b[6])-1, 0, time.UTC), true
}

// valueOf returns the value a datetime or interval descriptor holds
func (l *Library) valueOf(errh, dt native.Handle) (any, native.Status) {
	d := l.descriptors[dt]
	if d == nil {
		return nil, native.OCI_INVALID_HANDLE
	}
	if d.value == nil {
		return nil, l.fail(errh, 1891, "Datetime/Interval internal error")
	}
	return d.value, native.OCI_SUCCESS
}

func (l *Library) timeOf(errh, dt native.Handle) (time.Time, native.Status) {
	v, st := l.valueOf(errh, dt)
	if st != native.OCI_SUCCESS {
		return time.Time{}, st
	}
	t, ok := v.(time.Time)
	if !ok {
		return time.Time{}, l.fail(errh, 1867, "the interval is invalid")
	}
	return t, native.OCI_SUCCESS
}

func (l *Library) DateTimeGetDate(h, errh, dt native.Handle) (int16, uint8, uint8, native.Status) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if st, ok := l.enter("DateTimeGetDate", errh); ok {
		return 0, 0, 0, st
	}
	t, st := l.timeOf(errh, dt)
	if st != native.OCI_SUCCESS {
		return 0, 0, 0, st
	}
	return int16(t.Year()), uint8(t.Month()), uint8(t.Day()), native.OCI_SUCCESS
}

func (l *Library) DateTimeGetTime(h, errh, dt native.Handle) (uint8, uint8, uint8, uint32, native.Status) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if st, ok := l.enter("DateTimeGetTime", errh); ok {
		return 0, 0, 0, 0, st
	}
	t, st := l.timeOf(errh, dt)
	if st != native.OCI_SUCCESS {
		return 0, 0, 0, 0, st
	}
	return uint8(t.Hour()), uint8(t.Minute()), uint8(t.Second()), uint32(t.Nanosecond()), native.OCI_SUCCESS
}

// DateTimeGetTimeZoneOffset reports the zone offset of the value; both parts carry the sign
func (l *Library) DateTimeGetTimeZoneOffset(h, errh, dt native.Handle) (int8, int8, native.Status) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if st, ok := l.enter("DateTimeGetTimeZoneOffset", errh); ok {
		return 0, 0, st
	}
	d := l.descriptors[dt]
	if d != nil && d.kind != native.OCI_DTYPE_TIMESTAMP_TZ && d.kind != native.OCI_DTYPE_TIMESTAMP_LTZ {
		return 0, 0, l.fail(errh, 1878, "specified field not found in datetime or interval")
	}
	t, st := l.timeOf(errh, dt)
	if st != native.OCI_SUCCESS {
		return 0, 0, st
	}
	_, offset := t.Zone()
	return int8(offset / 3600), int8(offset % 3600 / 60), native.OCI_SUCCESS
}

func (l *Library) IntervalGetYearMonth(h, errh, iv native.Handle) (int32, int32, native.Status) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if st, ok := l.enter("IntervalGetYearMonth", errh); ok {
		return 0, 0, st
	}
	v, st := l.valueOf(errh, iv)
	if st != native.OCI_SUCCESS {
		return 0, 0, st
	}
	ym, ok := v.(YearMonth)
	if !ok {
		return 0, 0, l.fail(errh, 1867, "the interval is invalid")
	}
	return ym.Years, ym.Months, native.OCI_SUCCESS
}

// IntervalGetDaySecond splits the interval into components that all carry its sign
func (l *Library) IntervalGetDaySecond(h, errh, iv native.Handle) (int32, int32, int32, int32, int32, native.Status) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if st, ok := l.enter("IntervalGetDaySecond", errh); ok {
		return 0, 0, 0, 0, 0, st
	}
	v, st := l.valueOf(errh, iv)
	if st != native.OCI_SUCCESS {
		return 0, 0, 0, 0, 0, st
	}
	d, ok := v.(time.Duration)
	if !ok {
		return 0, 0, 0, 0, 0, l.fail(errh, 1867, "the interval is invalid")
	}
	day := d / (24 * time.Hour)
	d -= day * 24 * time.Hour
	hour := d / time.Hour
	d -= hour * time.Hour
	minute := d / time.Minute
	d -= minute * time.Minute
	second := d / time.Second
	d -= second * time.Second
	return int32(day), int32(hour), int32(minute), int32(second), int32(d), native.OCI_SUCCESS
}

// IntervalToNumber converts to days for DAY TO SECOND and years for YEAR TO MONTH
func (l *Library) IntervalToNumber(h, errh, iv native.Handle, num *native.Number) native.Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	if st, ok := l.enter("IntervalToNumber", errh); ok {
		return st
	}
	v, st := l.valueOf(errh, iv)
	if st != native.OCI_SUCCESS {
		return st
	}
	var d decimal.Decimal
	switch x := v.(type) {
	case time.Duration:
		d = decimal.NewFromInt(int64(x)).Div(decimal.NewFromInt(int64(24 * time.Hour)))
	case YearMonth:
		d = decimal.NewFromInt(int64(x.Years)).Add(decimal.NewFromInt(int64(x.Months)).Div(decimal.NewFromInt(12)))
	default:
		return l.fail(errh, 1867, "the interval is invalid")
	}
	*num = encodeNumber(d)
	return native.OCI_SUCCESS
}
