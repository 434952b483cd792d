package storage

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SimonWaldherr/tinyrel/internal/dberr"
)

func TestCommandLogWriteRead(t *testing.T) {
	log := NewCommandLog()
	log.Append(`CREATE t KEY id FIELDS id:Int`)
	log.Append(`INSERT id=1 INTO t`)

	var sb strings.Builder
	n, err := log.WriteTo(&sb)
	require.NoError(t, err)
	assert.Equal(t, int64(sb.Len()), n)
	assert.Equal(t, "CREATE t KEY id FIELDS id:Int\nINSERT id=1 INTO t\n", sb.String())

	got, err := ReadCommands(strings.NewReader(sb.String() + "\r\n\n  \n"))
	require.NoError(t, err)
	assert.Equal(t, log.Entries(), got)
}

func TestCommandLogEntriesIsCopy(t *testing.T) {
	log := NewCommandLog()
	log.Append("a")
	e := log.Entries()
	e[0] = "b"
	assert.Equal(t, []string{"a"}, log.Entries())
	assert.Equal(t, 1, log.Len())
}

func TestSaveAndOpenLocal(t *testing.T) {
	ctx := context.Background()
	log := NewCommandLog()
	log.Append("SELECT * FROM t")

	path := filepath.Join(t.TempDir(), "nested", "dir", "log.txt")
	require.NoError(t, SaveLog(ctx, log, path, RemoteConfig{}))

	rc, err := OpenLog(ctx, "file://"+path, RemoteConfig{})
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM t\n", string(data))
}

func TestOpenLocalMissing(t *testing.T) {
	_, err := OpenLog(context.Background(), filepath.Join(t.TempDir(), "none"), RemoteConfig{})
	assert.ErrorIs(t, err, dberr.ErrIo)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestOpenHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/log.txt" {
			http.NotFound(w, r)
			return
		}
		io.WriteString(w, "CREATE t KEY id FIELDS id:Int\n")
	}))
	defer srv.Close()

	ctx := context.Background()
	rc, err := OpenLog(ctx, srv.URL+"/log.txt", RemoteConfig{})
	require.NoError(t, err)
	cmds, err := ReadCommands(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, []string{"CREATE t KEY id FIELDS id:Int"}, cmds)

	_, err = OpenLog(ctx, srv.URL+"/other", RemoteConfig{})
	assert.ErrorIs(t, err, dberr.ErrIo)

	err = SaveLog(ctx, NewCommandLog(), srv.URL+"/log.txt", RemoteConfig{})
	assert.ErrorIs(t, err, dberr.ErrIo)
}

func TestDetectScheme(t *testing.T) {
	assert.Equal(t, schemeS3, detectScheme("S3://bucket/key"))
	assert.Equal(t, schemeHTTP, detectScheme("https://example.com/x"))
	assert.Equal(t, schemeFile, detectScheme("file:///tmp/x"))
	assert.Equal(t, schemeLocal, detectScheme("out/log.txt"))
}

func TestParseS3URL(t *testing.T) {
	bucket, key, err := parseS3URL("s3://logs/tinyrel/today.txt")
	require.NoError(t, err)
	assert.Equal(t, "logs", bucket)
	assert.Equal(t, "tinyrel/today.txt", key)

	for _, bad := range []string{"s3://", "s3://bucket", "s3://bucket/", "s3:///key"} {
		_, _, err := parseS3URL(bad)
		assert.Error(t, err, bad)
	}
}

type countingCheckpointer struct {
	n    atomic.Int32
	dest atomic.Value
	err  error
}

func (c *countingCheckpointer) Checkpoint(_ context.Context, dest string) error {
	c.n.Add(1)
	c.dest.Store(dest)
	return c.err
}

func TestSchedulerRunNow(t *testing.T) {
	cp := &countingCheckpointer{}
	s, err := NewScheduler("@hourly", "out.log", cp, nil)
	require.NoError(t, err)
	require.NoError(t, s.RunNow())
	assert.Equal(t, int32(1), cp.n.Load())
	assert.Equal(t, "out.log", cp.dest.Load())
	assert.Equal(t, 1, s.Runs())

	cp.err = dberr.IO(errors.New("disk full"))
	assert.ErrorIs(t, s.RunNow(), dberr.ErrIo)
	_, lastErr := s.LastRun()
	assert.ErrorIs(t, lastErr, dberr.ErrIo)
}

func TestSchedulerFires(t *testing.T) {
	cp := &countingCheckpointer{}
	s, err := NewScheduler("@every 1s", "out.log", cp, nil)
	require.NoError(t, err)
	s.Start()
	defer s.Stop()
	assert.Eventually(t, func() bool { return cp.n.Load() >= 1 }, 5*time.Second, 50*time.Millisecond)
}

func TestSchedulerRejectsBadSchedule(t *testing.T) {
	_, err := NewScheduler("not a schedule", "out.log", &countingCheckpointer{}, nil)
	assert.Error(t, err)
	_, err = NewScheduler("@hourly", "", &countingCheckpointer{}, nil)
	assert.Error(t, err)
}
