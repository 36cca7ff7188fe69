package questdb

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL + "/"})
}

func TestExecReturnsDataset(t *testing.T) {
	var gotQuery string
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/exec", r.URL.Path)
		gotQuery = r.URL.Query().Get("query")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"query":"SELECT symbol, price FROM crypto_prices","columns":[{"name":"symbol","type":"SYMBOL"},{"name":"price","type":"DOUBLE"}],"timestamp":-1,"dataset":[["BTC",65000.1],["ETH",3200.5]],"count":2}`))
	})

	rs, err := client.Exec(context.Background(), "SELECT symbol, price FROM crypto_prices")
	require.NoError(t, err)
	assert.Equal(t, "SELECT symbol, price FROM crypto_prices", gotQuery)
	assert.Equal(t, []string{"symbol", "price"}, rs.ColumnNames())
	assert.Equal(t, 2, rs.Count)
	v, ok := rs.Float(1, "price")
	assert.True(t, ok)
	assert.Equal(t, 3200.5, v)
}

func TestExecDDL(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ddl":"OK"}`))
	})

	rs, err := client.Exec(context.Background(), "CREATE TABLE t (x INT)")
	require.NoError(t, err)
	assert.Equal(t, 0, rs.Len())
	assert.Equal(t, "CREATE TABLE t (x INT)", rs.Query)
}

func TestExecQueryError(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"query":"SELEC 1","error":"unexpected token: SELEC","position":0}`))
	})

	_, err := client.Exec(context.Background(), "SELEC 1")
	require.Error(t, err)

	var qErr *QueryError
	require.True(t, errors.As(err, &qErr))
	assert.Equal(t, "unexpected token: SELEC", qErr.Message)
	assert.Equal(t, http.StatusBadRequest, qErr.StatusCode)
	assert.Contains(t, err.Error(), "unexpected token")
}

func TestExecNonJSONFailure(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway down", http.StatusBadGateway)
	})

	_, err := client.Exec(context.Background(), "SELECT 1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestExecEmptyQuery(t *testing.T) {
	client := New(Config{BaseURL: "http://127.0.0.1:1"})
	_, err := client.Exec(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyQuery)
	_, err = client.Export(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestExport(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/exp", r.URL.Path)
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte("\"symbol\",\"price\"\r\n\"BTC\",65000.1\r\n"))
	})

	body, err := client.Export(context.Background(), "SELECT symbol, price FROM crypto_prices")
	require.NoError(t, err)
	assert.Contains(t, string(body), "BTC")
}

func TestExportError(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"query":"x","error":"table does not exist","position":14}`))
	})

	_, err := client.Export(context.Background(), "SELECT * FROM missing")
	var qErr *QueryError
	require.ErrorAs(t, err, &qErr)
	assert.Equal(t, 14, qErr.Position)
}

func TestBasicAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "admin" || pass != "quest" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"columns":[{"name":"1","type":"INT"}],"dataset":[[1]],"count":1}`))
	}))
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL, User: "admin", Password: "quest"})
	require.NoError(t, client.Ping(context.Background()))

	anon := New(Config{BaseURL: srv.URL})
	assert.Error(t, anon.Ping(context.Background()))
}
