package oci

import (
	"testing"
	"time"

	"github.com/golang-sql/civil"
	"github.com/shopspring/decimal"

	"github.com/slingdata-io/goci/native"
)

// =============================================================================
// Bind Conversion Benchmarks
// =============================================================================

func BenchmarkToDB_String(b *testing.B) {
	conn := offlineConn()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		toDB(conn, "hello world")
	}
}

func BenchmarkToDB_Int64(b *testing.B) {
	conn := offlineConn()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		toDB(conn, int64(12345))
	}
}

func BenchmarkToDB_Float64(b *testing.B) {
	conn := offlineConn()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		toDB(conn, float64(3.14159265359))
	}
}

func BenchmarkToDB_Decimal(b *testing.B) {
	conn := offlineConn()
	d := decimal.RequireFromString("12345.6789")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		toDB(conn, d)
	}
}

func BenchmarkToDB_Time(b *testing.B) {
	conn := offlineConn()
	t := time.Date(2024, 6, 15, 14, 30, 45, 123456789, time.UTC)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		toDB(conn, t)
	}
}

func BenchmarkToDB_Nil(b *testing.B) {
	conn := offlineConn()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		toDB(conn, nil)
	}
}

func BenchmarkEncodeDate(b *testing.B) {
	dt := civil.DateTime{Date: civil.Date{Year: 2024, Month: time.June, Day: 15}, Time: civil.Time{Hour: 14, Minute: 30, Second: 45}}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		encodeDate(dt)
	}
}

// =============================================================================
// Fetch Conversion Benchmarks
// =============================================================================

func BenchmarkFromDB_String(b *testing.B) {
	conn := offlineConn()
	raw := []byte("hello world")
	var s string
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		fromDB(native.SQLT_CHR, raw, conn, &s)
	}
}

func BenchmarkFromDB_Double(b *testing.B) {
	conn := offlineConn()
	raw := byteView(float64(2.5))
	var f float64
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		fromDB(native.SQLT_BDOUBLE, raw, conn, &f)
	}
}

func BenchmarkFromDB_Date(b *testing.B) {
	conn := offlineConn()
	raw := []byte{120, 124, 6, 15, 15, 31, 46}
	var t time.Time
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		fromDB(native.SQLT_DAT, raw, conn, &t)
	}
}

func BenchmarkFromDB_NumberToInt64(b *testing.B) {
	_, conn := newTestConn(b)
	n, err := NewNumber(conn, int64(987654321))
	if err != nil {
		b.Fatal(err)
	}
	raw := n.Native()
	var v int64
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		fromDB(native.SQLT_VNU, raw[:], conn, &v)
	}
}

// =============================================================================
// Placeholder Parsing Benchmarks
// =============================================================================

func BenchmarkParsePlaceholders_Named(b *testing.B) {
	query := "update emp set sal = :sal, comm = :comm where empno = :empno and deptno = :dept"
	for i := 0; i < b.N; i++ {
		ParsePlaceholders(query)
	}
}

func BenchmarkParsePlaceholders_Literals(b *testing.B) {
	query := "select ':a', q'[:b]' /* :c */ from dual where x = :x -- :y\n and z = :z"
	for i := 0; i < b.N; i++ {
		ParsePlaceholders(query)
	}
}

// =============================================================================
// Error Handling Benchmarks
// =============================================================================

func BenchmarkIsConnectionError(b *testing.B) {
	err := &DbError{Kind: KindFault, Code: 3113, Message: "ORA-03113: end-of-file on communication channel"}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		IsConnectionError(err)
	}
}

func BenchmarkDbError_Error(b *testing.B) {
	err := &DbError{Kind: KindFault, Code: 942, Message: "ORA-00942: table or view does not exist"}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = err.Error()
	}
}
