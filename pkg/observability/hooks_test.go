package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	// Frame hooks
	f := NoopFrameHooks{}
	f.OnFrameBuilt(ctx, 120, 40, time.Millisecond)
	f.OnTierChange(ctx, "node-1", 3, 2)
	f.OnConnectorsDropped(ctx, 12)

	// Loader hooks
	l := NoopLoaderHooks{}
	l.OnFetchStart(ctx, "req-1", 0, 0, 400, 800)
	l.OnFetchComplete(ctx, "req-1", 120, time.Second, nil)
	l.OnResponseDiscarded(ctx, "req-1")
	l.OnEviction(ctx, 50, 3000)

	// Cache hooks
	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "region")
	c.OnCacheMiss(ctx, "image")
	c.OnCacheSet(ctx, "region", 1024)

	// HTTP hooks
	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "GET", "tree.example.com", "/v1/nodes")
	h.OnResponse(ctx, "GET", "tree.example.com", "/v1/nodes", 200, time.Second)
	h.OnError(ctx, "GET", "tree.example.com", "/v1/nodes", nil)
}

func TestGlobalHooksRegistry(t *testing.T) {
	// Reset to known state
	Reset()

	// Verify defaults are noop
	if _, ok := Frame().(NoopFrameHooks); !ok {
		t.Error("Frame() should return NoopFrameHooks by default")
	}
	if _, ok := Loader().(NoopLoaderHooks); !ok {
		t.Error("Loader() should return NoopLoaderHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	// Set custom hooks
	customFrame := &testFrameHooks{}
	SetFrameHooks(customFrame)
	if Frame() != customFrame {
		t.Error("SetFrameHooks should set custom hooks")
	}

	customLoader := &testLoaderHooks{}
	SetLoaderHooks(customLoader)
	if Loader() != customLoader {
		t.Error("SetLoaderHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	// Reset and verify
	Reset()
	if _, ok := Frame().(NoopFrameHooks); !ok {
		t.Error("Reset() should restore NoopFrameHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testFrameHooks{}
	SetFrameHooks(custom)

	// Setting nil should be ignored
	SetFrameHooks(nil)

	if Frame() != custom {
		t.Error("SetFrameHooks(nil) should be ignored")
	}

	Reset()
}

// Test implementations
type testFrameHooks struct{ NoopFrameHooks }
type testLoaderHooks struct{ NoopLoaderHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testHTTPHooks struct{ NoopHTTPHooks }
