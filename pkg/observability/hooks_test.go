package observability

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	b := NoopBoardHooks{}
	b.OnConnectionAdded(ctx, "05", "06", 1)
	b.OnConnectionRejected(ctx, "99", "06", errors.New("unknown"))
	b.OnRender(ctx, 24, 1, 4096, time.Millisecond, nil)

	s := NoopSourceHooks{}
	s.OnEventEmitted(ctx, "random")
	s.OnEventDropped(ctx, "random", "full")
	s.OnSourceStopped(ctx, "random", nil)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := Board().(NoopBoardHooks); !ok {
		t.Error("Board() should return NoopBoardHooks by default")
	}
	if _, ok := Source().(NoopSourceHooks); !ok {
		t.Error("Source() should return NoopSourceHooks by default")
	}

	customBoard := &testBoardHooks{}
	SetBoardHooks(customBoard)
	if Board() != customBoard {
		t.Error("SetBoardHooks should set custom hooks")
	}

	customSource := &testSourceHooks{}
	SetSourceHooks(customSource)
	if Source() != customSource {
		t.Error("SetSourceHooks should set custom hooks")
	}

	Reset()
	if _, ok := Board().(NoopBoardHooks); !ok {
		t.Error("Reset() should restore NoopBoardHooks")
	}
	if _, ok := Source().(NoopSourceHooks); !ok {
		t.Error("Reset() should restore NoopSourceHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testBoardHooks{}
	SetBoardHooks(custom)
	SetBoardHooks(nil)

	if Board() != custom {
		t.Error("SetBoardHooks(nil) should be ignored")
	}

	Reset()
}

type testBoardHooks struct{ NoopBoardHooks }
type testSourceHooks struct{ NoopSourceHooks }
