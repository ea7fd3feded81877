package oci

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slingdata-io/goci/native"
	"github.com/slingdata-io/goci/ocitest"
)

// =============================================================================
// Temporary LOB Tests (lob.go)
// =============================================================================

func newTestBlob(t *testing.T, conn *Connection) *Blob {
	t.Helper()
	b, err := conn.NewBlob()
	require.NoError(t, err)
	t.Cleanup(func() { b.Free() })
	return b
}

func TestBlob_RandomAccess(t *testing.T) {
	lib, conn := newTestConn(t)
	b := newTestBlob(t, conn)
	assert.Equal(t, 1, lib.TemporaryLobs())

	temp, err := b.IsTemporary()
	require.NoError(t, err)
	assert.True(t, temp)

	n, err := b.WriteAt([]byte("hello world"), 0)
	require.NoError(t, err)
	assert.Equal(t, 11, n)

	size, err := b.Len()
	require.NoError(t, err)
	assert.Equal(t, uint64(11), size)

	buf := make([]byte, 5)
	n, err = b.ReadAt(buf, 6)
	require.NoError(t, err)
	assert.Equal(t, "world", string(buf[:n]))

	buf = make([]byte, 10)
	n, err = b.ReadAt(buf, 6)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "world", string(buf[:n]))

	n, err = b.ReadAt(buf, 20)
	assert.ErrorIs(t, err, io.EOF)
	assert.Zero(t, n)

	_, err = b.ReadAt(buf, -1)
	assert.Error(t, err)

	// Writing past the end zero-fills the gap
	_, err = b.WriteAt([]byte("!"), 12)
	require.NoError(t, err)
	buf = make([]byte, 13)
	_, err = b.ReadAt(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello world\x00!"), buf)
}

func TestBlob_TrimErase(t *testing.T) {
	_, conn := newTestConn(t)
	b := newTestBlob(t, conn)
	_, err := b.WriteAt([]byte("0123456789"), 0)
	require.NoError(t, err)

	erased, err := b.Erase(2, 3)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), erased)

	require.NoError(t, b.Trim(6))
	buf := make([]byte, 6)
	_, err = b.ReadAt(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte("01\x00\x00\x005"), buf)

	err = b.Trim(100)
	assert.True(t, IsFault(err, 22926))

	chunk, err := b.ChunkSize()
	require.NoError(t, err)
	assert.Equal(t, uint32(ocitest.ChunkSize), chunk)

	capacity, err := b.Capacity()
	require.NoError(t, err)
	assert.Equal(t, uint64(ocitest.StorageLimit), capacity)
}

func TestBlob_OpenClose(t *testing.T) {
	_, conn := newTestConn(t)
	b := newTestBlob(t, conn)

	require.NoError(t, b.Open(OpenReadWrite))
	open, err := b.IsOpen()
	require.NoError(t, err)
	assert.True(t, open)

	assert.True(t, IsFault(b.Open(OpenReadOnly), 22293))

	require.NoError(t, b.Close())
	open, err = b.IsOpen()
	require.NoError(t, err)
	assert.False(t, open)

	assert.True(t, IsFault(b.Close(), 22289))
}

func TestClob_EraseFillsSpaces(t *testing.T) {
	_, conn := newTestConn(t)
	c, err := conn.NewClob()
	require.NoError(t, err)
	defer c.Free()
	assert.False(t, c.National())

	_, err = c.WriteAt([]byte("abcdef"), 0)
	require.NoError(t, err)
	_, err = c.Erase(1, 2)
	require.NoError(t, err)

	buf := make([]byte, 6)
	_, err = c.ReadAt(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, "a  def", string(buf))
}

func TestLob_FreeAndConnectionClose(t *testing.T) {
	lib, conn := newTestConn(t)
	b, err := conn.NewBlob()
	require.NoError(t, err)
	c, err := conn.NewClob()
	require.NoError(t, err)
	assert.Equal(t, 2, lib.TemporaryLobs())

	require.NoError(t, b.Free())
	assert.Equal(t, 1, lib.TemporaryLobs())
	_, err = b.Len()
	assert.ErrorIs(t, err, ErrClosed)
	require.NoError(t, b.Free())

	// Closing the connection frees the remaining temporary LOBs
	require.NoError(t, conn.Close())
	assert.Zero(t, lib.TemporaryLobs())
	_, err = c.Len()
	assert.ErrorIs(t, err, ErrClosed)
	require.NoError(t, c.Free())
}

func TestLob_NewAfterClose(t *testing.T) {
	_, conn := newTestConn(t)
	require.NoError(t, conn.Close())

	_, err := conn.NewBlob()
	assert.ErrorIs(t, err, ErrClosed)
	_, err = conn.NewClob()
	assert.ErrorIs(t, err, ErrClosed)
	_, err = conn.NewBFile("DIR", "file")
	assert.ErrorIs(t, err, ErrClosed)
}

// =============================================================================
// Streaming Tests (lob.go)
// =============================================================================

func TestLobWriter_Pieces(t *testing.T) {
	tests := []struct {
		name   string
		chunks []string
		writes int
	}{
		{"nothing", nil, 0},
		{"one piece", []string{"hello"}, 1},
		{"first and last", []string{"hello ", "world"}, 2},
		{"many", []string{"a", "b", "c", "d", "e"}, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lib, conn := newTestConn(t)
			b := newTestBlob(t, conn)

			w, err := b.NewWriter()
			require.NoError(t, err)
			for _, c := range tt.chunks {
				n, err := w.Write([]byte(c))
				require.NoError(t, err)
				assert.Equal(t, len(c), n)
			}
			require.NoError(t, w.Close())
			require.NoError(t, w.Close())
			assert.Equal(t, tt.writes, lib.CallCount("LobWrite"))
			assert.Zero(t, lib.CallCount("Break"))

			_, err = w.Write([]byte("late"))
			assert.ErrorIs(t, err, ErrClosed)

			want := strings.Join(tt.chunks, "")
			size, err := b.Len()
			require.NoError(t, err)
			assert.Equal(t, uint64(len(want)), size)

			open, err := b.IsOpen()
			require.NoError(t, err)
			assert.False(t, open)
		})
	}
}

func TestLobReader_Streams(t *testing.T) {
	_, conn := newTestConn(t)
	b := newTestBlob(t, conn)
	data := bytes.Repeat([]byte("0123456789"), 10)
	_, err := b.WriteAt(data, 0)
	require.NoError(t, err)

	for _, size := range []int{1, 7, 100, 512} {
		r, err := b.NewReader()
		require.NoError(t, err)
		assert.Equal(t, data, readChunks(t, r, size), "buffer size %d", size)

		n, err := r.Read(make([]byte, size))
		assert.Zero(t, n)
		assert.ErrorIs(t, err, io.EOF)
		require.NoError(t, r.Close())

		_, err = r.Read(make([]byte, size))
		assert.ErrorIs(t, err, ErrClosed)
	}
}

// readChunks drains r through a buffer of the given size
func readChunks(t *testing.T, r io.Reader, size int) []byte {
	t.Helper()
	var out []byte
	buf := make([]byte, size)
	for {
		n, err := r.Read(buf)
		out = append(out, buf[:n]...)
		if err == io.EOF {
			return out
		}
		require.NoError(t, err)
	}
}

func TestLobReader_SmallBuffer(t *testing.T) {
	lib, conn := newTestConn(t)
	b := newTestBlob(t, conn)
	_, err := b.WriteAt([]byte("abcdefghij"), 0)
	require.NoError(t, err)

	r, err := b.NewReader()
	require.NoError(t, err)

	out := readChunks(t, r, 3)
	require.NoError(t, r.Close())
	assert.Equal(t, "abcdefghij", string(out))
	assert.Equal(t, 4, lib.CallCount("LobRead"))
	assert.Zero(t, lib.CallCount("Reset"))
}

func TestLobReader_EarlyCloseCancels(t *testing.T) {
	lib, conn := newTestConn(t)
	b := newTestBlob(t, conn)
	_, err := b.WriteAt([]byte("abcdefghij"), 0)
	require.NoError(t, err)

	r, err := b.NewReader()
	require.NoError(t, err)
	buf := make([]byte, 4)
	n, err := r.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "abcd", string(buf[:n]))

	require.NoError(t, r.Close())
	assert.Equal(t, 1, lib.CallCount("Break"))
	assert.Equal(t, 1, lib.CallCount("Reset"))

	open, err := b.IsOpen()
	require.NoError(t, err)
	assert.False(t, open)

	// The LOB can be streamed again from the start
	r, err = b.NewReader()
	require.NoError(t, err)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "abcdefghij", string(got))
	require.NoError(t, r.Close())
}

func TestLobReader_Empty(t *testing.T) {
	_, conn := newTestConn(t)
	b := newTestBlob(t, conn)

	r, err := b.NewReader()
	require.NoError(t, err)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Empty(t, got)
	require.NoError(t, r.Close())
}

func TestClob_CopyThroughStreams(t *testing.T) {
	_, conn := newTestConn(t)
	c, err := conn.NewClob()
	require.NoError(t, err)
	defer c.Free()

	text := strings.Repeat("Ünïcödé text ", 100)
	w, err := c.NewWriter()
	require.NoError(t, err)
	_, err = io.CopyBuffer(w, strings.NewReader(text), make([]byte, 64))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r, err := c.NewReader()
	require.NoError(t, err)
	var sb strings.Builder
	_, err = io.CopyBuffer(&sb, r, make([]byte, 100))
	require.NoError(t, err)
	require.NoError(t, r.Close())
	assert.Equal(t, text, sb.String())
}

// =============================================================================
// Fetched LOB Tests
// =============================================================================

func TestLob_FromRow(t *testing.T) {
	lib, conn := newTestConn(t)
	cols := []ocitest.Column{
		{Name: "DOC", Type: native.SQLT_CLOB},
		{Name: "IMG", Type: native.SQLT_BLOB},
	}
	row := firstRow(t, lib, conn, "select doc, img from docs", cols, "stored document", []byte{1, 2, 3})

	doc, err := Get[Clob](row, "DOC")
	require.NoError(t, err)
	size, err := doc.Len()
	require.NoError(t, err)
	assert.Equal(t, uint64(15), size)

	temp, err := doc.IsTemporary()
	require.NoError(t, err)
	assert.False(t, temp)

	r, err := doc.NewReader()
	require.NoError(t, err)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	assert.Equal(t, "stored document", string(got))

	v, err := row.Value("IMG")
	require.NoError(t, err)
	img, ok := v.(*Blob)
	require.True(t, ok)
	buf := make([]byte, 3)
	_, err = img.ReadAt(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, buf)

	// Borrowed locators do not own a descriptor
	require.NoError(t, img.Free())
	_, err = img.Len()
	assert.ErrorIs(t, err, ErrClosed)

	var wrong Blob
	_, err = row.Get("DOC", &wrong)
	var conv *ConversionError
	assert.ErrorAs(t, err, &conv)
}

func TestLob_FromRowExpires(t *testing.T) {
	lib, conn := newTestConn(t)
	lib.Register("select img from images", ocitest.Result{
		Columns: []ocitest.Column{{Name: "IMG", Type: native.SQLT_BLOB}},
		Rows:    [][]any{{[]byte{1, 2, 3}}, {[]byte{4, 5, 6, 7, 8}}},
	})
	stmt := prepare(t, conn, "select img from images")
	rs, err := stmt.Query()
	require.NoError(t, err)
	t.Cleanup(func() { rs.Close() })

	row, err := rs.Next()
	require.NoError(t, err)
	first, err := Get[Blob](row, "IMG")
	require.NoError(t, err)
	v, err := row.Value("IMG")
	require.NoError(t, err)
	fromValue := v.(*Blob)

	size, err := first.Len()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), size)

	// Moving to the next row reuses the define buffer
	row, err = rs.Next()
	require.NoError(t, err)
	for _, b := range []*Blob{first, fromValue} {
		_, err = b.Len()
		assert.ErrorIs(t, err, ErrClosed)
		_, err = b.ReadAt(make([]byte, 1), 0)
		assert.ErrorIs(t, err, ErrClosed)
		_, err = b.NewReader()
		assert.ErrorIs(t, err, ErrClosed)
	}

	insert := prepare(t, conn, "insert into images (img) values (:img)")
	assert.ErrorIs(t, insert.Bind(":img", first), ErrClosed)

	second, err := Get[Blob](row, "IMG")
	require.NoError(t, err)
	size, err = second.Len()
	require.NoError(t, err)
	assert.Equal(t, uint64(5), size)

	calls := lib.CallCount("LobGetLength")
	require.NoError(t, rs.Close())
	_, err = second.Len()
	assert.ErrorIs(t, err, ErrClosed)
	// The freed descriptor never reaches the library
	assert.Equal(t, calls, lib.CallCount("LobGetLength"))
}

func TestLob_BindLocator(t *testing.T) {
	lib, conn := newTestConn(t)
	b := newTestBlob(t, conn)
	_, err := b.WriteAt([]byte("payload"), 0)
	require.NoError(t, err)

	stmt := prepare(t, conn, "insert into docs (img) values (:img)")
	require.NoError(t, stmt.Bind(":img", b))
	_, err = stmt.Execute()
	require.NoError(t, err)

	execs := lib.Executions()
	require.Len(t, execs, 1)
	lob, ok := execs[0].ByName["img"].(*ocitest.Lob)
	require.True(t, ok)
	assert.Equal(t, []byte("payload"), lob.Data)

	require.NoError(t, b.Free())
	assert.ErrorIs(t, stmt.Bind(":img", b), ErrClosed)
}

// =============================================================================
// BFile Tests (lob.go)
// =============================================================================

func TestBFile_Read(t *testing.T) {
	lib, conn := newTestConn(t)
	f, err := conn.NewBFile("DATA_DIR", "report.txt")
	require.NoError(t, err)
	defer f.Free()

	exists, err := f.Exists()
	require.NoError(t, err)
	assert.False(t, exists)
	_, err = f.Len()
	assert.True(t, IsFault(err, 22288))

	lib.AddFile("DATA_DIR", "report.txt", []byte("quarterly numbers"))
	exists, err = f.Exists()
	require.NoError(t, err)
	assert.True(t, exists)

	size, err := f.Len()
	require.NoError(t, err)
	assert.Equal(t, uint64(17), size)

	buf := make([]byte, 7)
	_, err = f.ReadAt(buf, 10)
	assert.True(t, IsFault(err, 22289))

	require.NoError(t, f.Open())
	assert.True(t, IsFault(f.Open(), 22293))
	open, err := f.IsOpen()
	require.NoError(t, err)
	assert.True(t, open)

	n, err := f.ReadAt(buf, 10)
	require.NoError(t, err)
	assert.Equal(t, "numbers", string(buf[:n]))
	require.NoError(t, f.Close())

	r, err := f.NewReader()
	require.NoError(t, err)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	assert.Equal(t, "quarterly numbers", string(got))
}

func TestBFile_SetFileName(t *testing.T) {
	lib, conn := newTestConn(t)
	lib.AddFile("DIR", "b.bin", []byte{9, 8})

	_, err := conn.NewBFile("", "a.bin")
	assert.True(t, IsFault(err, 22285))

	f, err := conn.NewBFile("DIR", "a.bin")
	require.NoError(t, err)
	defer f.Free()

	require.NoError(t, f.SetFileName("DIR", "b.bin"))
	size, err := f.Len()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), size)
}

func TestBFile_FromRowAndBind(t *testing.T) {
	lib, conn := newTestConn(t)
	lib.AddFile("IMAGES", "logo.png", []byte{0x89, 'P', 'N', 'G'})
	cols := []ocitest.Column{{Name: "F", Type: native.SQLT_BFILEE}}
	row := firstRow(t, lib, conn, "select f from assets", cols, ocitest.File{Dir: "IMAGES", Name: "logo.png"})

	f, err := Get[BFile](row, "F")
	require.NoError(t, err)
	size, err := f.Len()
	require.NoError(t, err)
	assert.Equal(t, uint64(4), size)

	stmt := prepare(t, conn, "insert into assets (f) values (:f)")
	require.NoError(t, stmt.Bind(":f", f))
	_, err = stmt.Execute()
	require.NoError(t, err)
	execs := lib.Executions()
	require.Len(t, execs, 2)
	assert.Equal(t, "insert into assets (f) values (:f)", execs[1].SQL)
	assert.Equal(t, ocitest.File{Dir: "IMAGES", Name: "logo.png"}, execs[1].ByName["f"])
}
