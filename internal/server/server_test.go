package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csantero/MetaWeblogPortable/builder/config"
	"github.com/csantero/MetaWeblogPortable/builder/dispatch"
	"github.com/csantero/MetaWeblogPortable/builder/feed"
	"github.com/csantero/MetaWeblogPortable/builder/media"
	"github.com/csantero/MetaWeblogPortable/builder/metrics"
	"github.com/csantero/MetaWeblogPortable/builder/store"
	"github.com/csantero/MetaWeblogPortable/builder/testutil"
	"github.com/csantero/MetaWeblogPortable/builder/xmlrpc"
)

type testServer struct {
	server  *Server
	handler http.Handler
	posts   *store.Store
	media   *media.Store
	metrics *metrics.RequestMetrics
}

func createTestServer(t *testing.T, mutate func(*config.ServerConfig)) *testServer {
	t.Helper()

	posts, cleanupPosts := testutil.CreateTestStore(t)
	t.Cleanup(cleanupPosts)
	mediaStore, _, cleanupMedia := testutil.CreateTestMediaStore(t)
	t.Cleanup(cleanupMedia)

	cfg := config.Default().Server
	cfg.BaseURL = "https://example.com"
	if mutate != nil {
		mutate(&cfg)
	}

	m := metrics.NewRequestMetrics()
	gen := feed.NewGenerator(feed.Options{Title: "Test Blog", BaseURL: cfg.BaseURL})
	d := dispatch.New(dispatch.Options{
		Posts:   posts,
		Media:   mediaStore,
		Links:   gen,
		Metrics: m,
		BaseURL: cfg.BaseURL,
	})

	srv := New(cfg, Deps{Dispatcher: d, Posts: posts, Media: mediaStore, Feed: gen, Metrics: m})
	return &testServer{server: srv, handler: srv.Handler(), posts: posts, media: mediaStore, metrics: m}
}

func (ts *testServer) do(t *testing.T, method, path string, body []byte, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func TestXMLRPC_UnknownMethod(t *testing.T) {
	ts := createTestServer(t, nil)

	rec := ts.do(t, http.MethodPost, "/xmlrpc", testutil.EncodeTestCall(t, "foo.bar"), nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/xml; charset=utf-8", rec.Header().Get("Content-Type"))
	resp := testutil.DecodeTestResponse(t, rec.Body.Bytes())
	require.NotNil(t, resp.Fault)
	assert.Contains(t, resp.Fault.Message, "foo.bar")
}

func TestXMLRPC_NewPostThenFeed(t *testing.T) {
	ts := createTestServer(t, nil)

	body := testutil.EncodeTestCall(t, "metaWeblog.newPost",
		xmlrpc.String("main"), xmlrpc.String("alice"), xmlrpc.String("pw"),
		testutil.CreatePostStruct("Feed Me", "<p>hello</p>", "go"), xmlrpc.Boolean(true))
	rec := ts.do(t, http.MethodPost, "/metaweblog", body, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := testutil.DecodeTestResponse(t, rec.Body.Bytes())
	require.Nil(t, resp.Fault)

	count, err := ts.posts.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	rec = ts.do(t, http.MethodGet, "/rss.xml", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/rss+xml")
	assert.Contains(t, rec.Body.String(), "<title>Feed Me</title>")
	assert.Contains(t, rec.Body.String(), "https://example.com/Feed-Me")

	rec = ts.do(t, http.MethodGet, "/category/go/rss.xml", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Feed Me")

	rec = ts.do(t, http.MethodGet, "/category/unknown/rss.xml", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestXMLRPC_MethodNotAllowed(t *testing.T) {
	ts := createTestServer(t, nil)
	rec := ts.do(t, http.MethodGet, "/xmlrpc", nil, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestXMLRPC_BodyTooLarge(t *testing.T) {
	ts := createTestServer(t, func(c *config.ServerConfig) { c.MaxRequestBytes = 1024 })

	big := testutil.EncodeTestCall(t, "metaWeblog.newMediaObject",
		xmlrpc.String("main"), xmlrpc.String("u"), xmlrpc.String("p"),
		xmlrpc.NewStruct().Set("bits", xmlrpc.Base64(bytes.Repeat([]byte{1}, 4096))))
	rec := ts.do(t, http.MethodPost, "/xmlrpc", big, nil)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestXMLRPC_LegacyNotFoundStatus(t *testing.T) {
	ts := createTestServer(t, nil)
	legacy := dispatch.New(dispatch.Options{Posts: ts.posts, LegacyNotFoundStatus: true})
	srv := New(config.Default().Server, Deps{Dispatcher: legacy, Posts: ts.posts})

	body := testutil.EncodeTestCall(t, "blogger.deletePost",
		xmlrpc.String("key"), xmlrpc.String("missing"), xmlrpc.String("u"), xmlrpc.String("p"))
	req := httptest.NewRequest(http.MethodPost, "/xmlrpc", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	resp := testutil.DecodeTestResponse(t, rec.Body.Bytes())
	require.NotNil(t, resp.Fault)
	assert.Equal(t, dispatch.FaultNotFound, resp.Fault.Code)
}

func TestMedia(t *testing.T) {
	ts := createTestServer(t, nil)

	data := []byte("GIF89a tiny")
	info, err := ts.media.Save(media.Upload{Name: "dot.gif", Type: "image/gif", Data: data})
	require.NoError(t, err)

	rec := ts.do(t, http.MethodGet, info.URL, nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/gif", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Cache-Control"), "immutable")
	assert.Equal(t, data, rec.Body.Bytes())

	rec = ts.do(t, http.MethodGet, "/media/"+media.HashContent([]byte("other"))+"/x.gif", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodGet, "/media/not-a-hash/x.gif", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	ts := createTestServer(t, nil)

	rec := ts.do(t, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	ts.do(t, http.MethodPost, "/xmlrpc", testutil.EncodeTestCall(t, "metaWeblog.getRecentPosts"), nil)

	rec = ts.do(t, http.MethodGet, "/metrics", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	var snap metrics.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, int64(1), snap.Requests)
	assert.Equal(t, int64(1), snap.Methods["metaWeblog.getRecentPosts"].Calls)
}

func TestGzip(t *testing.T) {
	ts := createTestServer(t, nil)

	rec := ts.do(t, http.MethodGet, "/rss.xml", nil, http.Header{"Accept-Encoding": {"gzip, deflate"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))

	zr, err := gzip.NewReader(rec.Body)
	require.NoError(t, err)
	plain, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(plain), "<rss"), "decompressed feed: %s", plain)

	// XML-RPC responses are never compressed
	rec = ts.do(t, http.MethodPost, "/xmlrpc", testutil.EncodeTestCall(t, "foo.bar"), http.Header{"Accept-Encoding": {"gzip"}})
	assert.Empty(t, rec.Header().Get("Content-Encoding"))
}

func TestServe_GracefulShutdown(t *testing.T) {
	ts := createTestServer(t, func(c *config.ServerConfig) { c.ShutdownTimeout = 2 * time.Second })

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ts.server.Serve(ctx, ln) }()

	resp, err := http.Post("http://"+ln.Addr().String()+"/xmlrpc", "text/xml",
		bytes.NewReader(testutil.EncodeTestCall(t, "foo.bar")))
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
