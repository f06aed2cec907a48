package observability

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	// Stamper hooks
	s := NoopStamperHooks{}
	s.OnRunStart("intro", 6, 3)
	s.OnTriggerScheduled(1, 3, 2*time.Second)
	s.OnRowStamped(3, 1, true, 4)
	s.OnLaneSkipped(3, 2, "Saw")
	s.OnRunComplete(6, 20, 1)
	s.OnRunAborted(4, errors.New("bad row"))

	// Pipeline hooks
	p := NoopPipelineHooks{}
	p.OnLoadStart(ctx, "levels/intro.toml")
	p.OnLoadComplete(ctx, "levels/intro.toml", 6, time.Second, nil)
	p.OnPlanStart(ctx, "intro", 6)
	p.OnPlanComplete(ctx, "intro", 20, time.Second, nil)
	p.OnRenderStart(ctx, "svg")
	p.OnRenderComplete(ctx, "svg", time.Second, nil)

	// Cache hooks
	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "plan")
	c.OnCacheMiss(ctx, "plan")
	c.OnCacheSet(ctx, "plan", 1024)

	// HTTP hooks
	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "GET", "/levels")
	h.OnResponse(ctx, "GET", "/levels", 200, time.Millisecond)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := Stamper().(NoopStamperHooks); !ok {
		t.Error("Stamper() should return NoopStamperHooks by default")
	}
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Pipeline() should return NoopPipelineHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	customStamper := &testStamperHooks{}
	SetStamperHooks(customStamper)
	if Stamper() != customStamper {
		t.Error("SetStamperHooks should set custom hooks")
	}

	customPipeline := &testPipelineHooks{}
	SetPipelineHooks(customPipeline)
	if Pipeline() != customPipeline {
		t.Error("SetPipelineHooks should set custom hooks")
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

	Reset()
	if _, ok := Stamper().(NoopStamperHooks); !ok {
		t.Error("Reset() should restore NoopStamperHooks")
	}
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Reset() should restore NoopPipelineHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()
	defer Reset()

	custom := &testStamperHooks{}
	SetStamperHooks(custom)
	SetStamperHooks(nil)

	if Stamper() != custom {
		t.Error("SetStamperHooks(nil) should be ignored")
	}
}

// Test implementations
type testStamperHooks struct{ NoopStamperHooks }
type testPipelineHooks struct{ NoopPipelineHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testHTTPHooks struct{ NoopHTTPHooks }
