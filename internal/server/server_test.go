package server

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/SimonWaldherr/tinyrel/internal/engine"
	"github.com/SimonWaldherr/tinyrel/internal/storage"
)

func newTestService() *Service {
	return NewService(engine.NewSession(storage.IntKeyed, nil), nil)
}

func dialBufconn(t *testing.T, svc *Service, auth *Authenticator) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	gs := NewGRPCServer(svc, auth)
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(gs.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestServiceExec(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	resp, err := svc.Exec(ctx, &ExecRequest{Command: "CREATE t KEY id FIELDS id:Int, name:String"})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, SuccessMessage, resp.Message)

	resp, err = svc.Exec(ctx, &ExecRequest{Command: `INSERT id=1, name="a" INTO t`})
	require.NoError(t, err)
	require.True(t, resp.Success)

	resp, err = svc.Exec(ctx, &ExecRequest{Command: "SELECT * FROM t"})
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name"}, resp.Columns)
	assert.Equal(t, [][]any{{int64(1), "a"}}, resp.Rows)
	assert.Equal(t, "id\tname\n1\ta\n", resp.Output)

	resp, err = svc.Exec(ctx, &ExecRequest{Command: "SELECT * FROM missing"})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, "TableNotFound", resp.Code)
	assert.Equal(t, "Error parsing command: Table 'missing' not found in database", resp.Error)

	st := svc.Status()
	assert.Equal(t, []string{"t"}, st.Tables)
	assert.Equal(t, 3, st.Commands)
	assert.Equal(t, "int", st.KeyType)
}

func TestServiceLogsSubject(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	svc := NewService(engine.NewSession(storage.IntKeyed, nil), logger)
	ctx := context.WithValue(context.Background(), subjectKey{}, "alice")

	_, err := svc.Exec(ctx, &ExecRequest{Command: "CREATE t KEY id FIELDS id:Int"})
	require.NoError(t, err)
	_, err = svc.Exec(ctx, &ExecRequest{Command: "SELECT * FROM missing"})
	require.NoError(t, err)

	assert.Equal(t, 2, strings.Count(logs.String(), "subject=alice"))
	assert.Contains(t, logs.String(), "command failed")
	assert.Equal(t, "alice", Subject(ctx))
	assert.Empty(t, Subject(context.Background()))
}

func TestServiceCheckpoint(t *testing.T) {
	svc := newTestService()
	_, err := svc.Exec(context.Background(), &ExecRequest{Command: "CREATE t KEY id FIELDS id:Int"})
	require.NoError(t, err)

	dest := filepath.Join(t.TempDir(), "cp.log")
	sched, err := storage.NewScheduler("@hourly", dest, svc, nil)
	require.NoError(t, err)
	require.NoError(t, sched.RunNow())

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "CREATE t KEY id FIELDS id:Int\n", string(data))
}

func TestGRPCExec(t *testing.T) {
	conn := dialBufconn(t, newTestService(), nil)
	ctx := context.Background()

	resp, err := Exec(ctx, conn, "CREATE t KEY id FIELDS id:Int")
	require.NoError(t, err)
	assert.True(t, resp.Success)

	resp, err = Exec(ctx, conn, "INSERT id=4 INTO t")
	require.NoError(t, err)
	assert.True(t, resp.Success)

	resp, err = Exec(ctx, conn, "SELECT id FROM t WHERE id > 3")
	require.NoError(t, err)
	assert.Equal(t, "id\n4\n", resp.Output)
	require.Len(t, resp.Rows, 1)
	// JSON decoding turns numbers into float64
	assert.Equal(t, float64(4), resp.Rows[0][0])

	resp, err = Exec(ctx, conn, "DROP t")
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, "InvalidCommandFormat", resp.Code)
}

func TestGRPCAuth(t *testing.T) {
	auth := NewAuthenticator("s3cret", "tinyrel")
	conn := dialBufconn(t, newTestService(), auth)

	_, err := Exec(context.Background(), conn, "CREATE t KEY id FIELDS id:Int")
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	bad := metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer nope")
	_, err = Exec(bad, conn, "CREATE t KEY id FIELDS id:Int")
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	tok, err := auth.Issue("alice", time.Minute)
	require.NoError(t, err)
	ctx := metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer "+tok)
	resp, err := Exec(ctx, conn, "CREATE t KEY id FIELDS id:Int")
	require.NoError(t, err)
	assert.True(t, resp.Success)
}

func TestAuthenticatorValidate(t *testing.T) {
	assert.Nil(t, NewAuthenticator("", "x"))

	auth := NewAuthenticator("s3cret", "tinyrel")
	tok, err := auth.Issue("bob", time.Minute)
	require.NoError(t, err)
	sub, err := auth.Validate(tok)
	require.NoError(t, err)
	assert.Equal(t, "bob", sub)

	expired, err := auth.Issue("bob", -time.Minute)
	require.NoError(t, err)
	_, err = auth.Validate(expired)
	assert.Error(t, err)

	other := NewAuthenticator("s3cret", "someone-else")
	foreign, err := other.Issue("bob", time.Minute)
	require.NoError(t, err)
	_, err = auth.Validate(foreign)
	assert.Error(t, err)

	wrongKey := NewAuthenticator("other", "tinyrel")
	forged, err := wrongKey.Issue("bob", time.Minute)
	require.NoError(t, err)
	_, err = auth.Validate(forged)
	assert.Error(t, err)
}

func postExec(t *testing.T, srv *httptest.Server, cmd, token string) *http.Response {
	t.Helper()
	body, err := json.Marshal(ExecRequest{Command: cmd})
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/exec", strings.NewReader(string(body)))
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func TestHTTPExecAndStatus(t *testing.T) {
	srv := httptest.NewServer(NewHTTPHandler(newTestService(), nil))
	defer srv.Close()

	resp := postExec(t, srv, "CREATE t KEY id FIELDS id:Int", "")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out ExecResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.True(t, out.Success)

	st, err := srv.Client().Get(srv.URL + "/api/status")
	require.NoError(t, err)
	defer st.Body.Close()
	var got Status
	require.NoError(t, json.NewDecoder(st.Body).Decode(&got))
	assert.True(t, got.OK)
	assert.Equal(t, []string{"t"}, got.Tables)

	bad, err := srv.Client().Post(srv.URL+"/api/exec", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)

	wrongMethod, err := srv.Client().Get(srv.URL + "/api/exec")
	require.NoError(t, err)
	wrongMethod.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, wrongMethod.StatusCode)
}

func TestHTTPRejectsOversizedBody(t *testing.T) {
	h := NewHTTPHandler(newTestService(), nil)
	body := `{"command":"` + strings.Repeat("a", maxRequestBytes) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/exec", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestHTTPAuth(t *testing.T) {
	auth := NewAuthenticator("s3cret", "")
	srv := httptest.NewServer(NewHTTPHandler(newTestService(), auth))
	defer srv.Close()

	resp := postExec(t, srv, "CREATE t KEY id FIELDS id:Int", "")
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	tok, err := auth.Issue("carol", time.Minute)
	require.NoError(t, err)
	resp = postExec(t, srv, "CREATE t KEY id FIELDS id:Int", tok)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, newTestService(), Options{GRPCAddr: "127.0.0.1:0", HTTPAddr: "127.0.0.1:0"})
	}()
	time.Sleep(100 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}

	assert.Error(t, Serve(context.Background(), newTestService(), Options{}))
}

func TestServeRequiresAuthOffLoopback(t *testing.T) {
	for _, addr := range []string{":0", "0.0.0.0:0", "[::]:0"} {
		err := Serve(context.Background(), newTestService(), Options{HTTPAddr: addr})
		require.Error(t, err, addr)
		assert.Contains(t, err.Error(), "without auth", addr)

		err = Serve(context.Background(), newTestService(), Options{GRPCAddr: addr})
		require.Error(t, err, addr)
		assert.Contains(t, err.Error(), "without auth", addr)
	}
}

func TestIsLoopback(t *testing.T) {
	tests := []struct {
		addr string
		want bool
	}{
		{"127.0.0.1:8080", true},
		{"localhost:9090", true},
		{"[::1]:9090", true},
		{":8080", false},
		{"0.0.0.0:8080", false},
		{"10.0.0.5:8080", false},
		{"example.com:80", false},
		{"no-port", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isLoopback(tt.addr), tt.addr)
	}
}
