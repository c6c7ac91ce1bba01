package middleware

import (
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/davidokumbo/cyberdocs/internal/config"
)

func TestPayloadRoundTrip(t *testing.T) {
	hdr := http.Header{
		"Content-Type": []string{"application/json"},
		"X-Custom":     []string{"a", "b"},
	}
	body := []byte(`{"services":[]}`)

	bs, err := encodePayload(http.StatusOK, hdr, body)
	if err != nil {
		t.Fatalf("encodePayload: %v", err)
	}
	status, gotHdr, gotBody, ok := decodePayload(bs)
	if !ok {
		t.Fatal("decodePayload rejected its own encoding")
	}
	if status != http.StatusOK {
		t.Errorf("status = %d", status)
	}
	if !reflect.DeepEqual(gotHdr, hdr) {
		t.Errorf("header = %v, want %v", gotHdr, hdr)
	}
	if string(gotBody) != string(body) {
		t.Errorf("body = %q", gotBody)
	}
}

func TestDecodePayloadRejectsGarbage(t *testing.T) {
	for _, bs := range [][]byte{nil, {}, {1, 2, 3}, {0, 0, 0, 200, 0, 0, 0, 99}} {
		if _, _, _, ok := decodePayload(bs); ok {
			t.Errorf("decodePayload(%v) accepted garbage", bs)
		}
	}
}

func TestCacheKeyStrategies(t *testing.T) {
	cfg := config.CacheConfig{Prefix: "catalog"}
	e := echo.New()
	newCtx := func(query string) echo.Context {
		req := httptest.NewRequest(http.MethodGet, "/api/documents?"+query, nil)
		c := e.NewContext(req, httptest.NewRecorder())
		c.SetPath("/api/documents")
		return c
	}

	cfg.KeyStrategy = "route_query"
	a := cacheKeyFrom(cfg, newCtx("category=contracts"))
	b := cacheKeyFrom(cfg, newCtx("category=reports"))
	if a == b {
		t.Error("route_query strategy ignored the query string")
	}

	cfg.KeyStrategy = "route"
	a = cacheKeyFrom(cfg, newCtx("category=contracts"))
	b = cacheKeyFrom(cfg, newCtx("category=reports"))
	if a != b {
		t.Error("route strategy keyed on the query string")
	}
}

func TestResponseCacheDisabledPassThrough(t *testing.T) {
	mw := ResponseCache(config.CacheConfig{Enabled: false}, nil)
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/services", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := mw(func(c echo.Context) error {
		return c.String(http.StatusOK, "fresh")
	})
	if err := h(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Body.String() != "fresh" {
		t.Errorf("body = %q", rec.Body.String())
	}
	if rec.Header().Get("X-Cache") != "" {
		t.Error("disabled cache set X-Cache")
	}
}

func TestCaptureWriterOversizeBodyNotCacheable(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK, limit: 10}

	if _, err := cw.Write(make([]byte, 8)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if cw.overflowed() {
		t.Error("overflowed before the limit")
	}
	if _, err := cw.Write(make([]byte, 8)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !cw.overflowed() {
		t.Error("16 bytes past a 10-byte limit not flagged as overflow")
	}
	// The client still receives the whole body; only the capture is capped.
	if rec.Body.Len() != 16 {
		t.Errorf("client saw %d bytes, want 16", rec.Body.Len())
	}
	if cw.buf.Len() > 10 {
		t.Errorf("capture buffer holds %d bytes past the limit", cw.buf.Len())
	}
}

func TestCaptureWriterNoLimitNeverOverflows(t *testing.T) {
	cw := &captureWriter{ResponseWriter: httptest.NewRecorder(), status: http.StatusOK}
	if _, err := cw.Write(make([]byte, 1<<16)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if cw.overflowed() {
		t.Error("unlimited capture reported overflow")
	}
	if cw.buf.Len() != 1<<16 {
		t.Errorf("capture buffer = %d bytes", cw.buf.Len())
	}
}
