package report_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjaus/report"
)

// recordingLocker records acquisitions and whether a lock is held.
type recordingLocker struct {
	mu       sync.Mutex
	calls    []string
	held     bool
	acquireE error
}

func (l *recordingLocker) RLock(context.Context) (func(), error) { return l.acquire("rlock") }
func (l *recordingLocker) Lock(context.Context) (func(), error)  { return l.acquire("lock") }

func (l *recordingLocker) acquire(kind string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, kind)
	if l.acquireE != nil {
		return nil, l.acquireE
	}
	l.held = true
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.held = false
		l.calls = append(l.calls, "release")
	}, nil
}

func (l *recordingLocker) isHeld() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held
}

func TestGuard(t *testing.T) {
	t.Parallel()
	errBoom := errors.New("boom")
	tests := map[string]struct {
		policy    report.LockPolicy
		fnErr     error
		wantCalls []string
	}{
		"shared":          {policy: report.LockShared, wantCalls: []string{"rlock", "release"}},
		"exclusive":       {policy: report.LockExclusive, wantCalls: []string{"lock", "release"}},
		"none":            {policy: report.LockNone},
		"shared failure":  {policy: report.LockShared, fnErr: errBoom, wantCalls: []string{"rlock", "release"}},
		"exclusive error": {policy: report.LockExclusive, fnErr: errBoom, wantCalls: []string{"lock", "release"}},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			l := &recordingLocker{}
			var heldInside bool
			err := report.Guard(context.Background(), l, tt.policy, func(context.Context) error {
				heldInside = l.isHeld()
				return tt.fnErr
			})
			if tt.fnErr != nil {
				require.ErrorIs(t, err, tt.fnErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.policy != report.LockNone, heldInside)
			assert.Equal(t, tt.wantCalls, l.calls)
			assert.False(t, l.isHeld())
		})
	}
}

func TestGuardReleasesOnPanic(t *testing.T) {
	t.Parallel()
	l := &recordingLocker{}
	assert.Panics(t, func() {
		_ = report.Guard(context.Background(), l, report.LockShared, func(context.Context) error {
			panic("boom")
		})
	})
	assert.False(t, l.isHeld())
}

func TestGuardAcquireFailure(t *testing.T) {
	t.Parallel()
	l := &recordingLocker{acquireE: context.DeadlineExceeded}
	ran := false
	err := report.Guard(context.Background(), l, report.LockExclusive, func(context.Context) error {
		ran = true
		return nil
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, ran)
}

func TestGuardNilLocker(t *testing.T) {
	t.Parallel()
	ran := false
	err := report.Guard(context.Background(), nil, report.LockExclusive, func(context.Context) error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
}

func TestGuardUnknownPolicy(t *testing.T) {
	t.Parallel()
	err := report.Guard(context.Background(), &recordingLocker{}, report.LockPolicy(9), func(context.Context) error {
		return nil
	})
	require.ErrorIs(t, err, report.ErrValidation)
}

func TestParseLockPolicy(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		input   string
		want    report.LockPolicy
		wantErr require.ErrorAssertionFunc
	}{
		"none":      {input: "none", want: report.LockNone, wantErr: require.NoError},
		"shared":    {input: "shared", want: report.LockShared, wantErr: require.NoError},
		"exclusive": {input: "EXCLUSIVE", want: report.LockExclusive, wantErr: require.NoError},
		"unknown":   {input: "global", wantErr: require.Error},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			got, err := report.ParseLockPolicy(tt.input)
			tt.wantErr(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Equal(t, "shared", report.LockPolicy(0).String())
}

func testReaderWriter(t *testing.T, l report.Locker) {
	t.Helper()
	ctx := context.Background()

	r1, err := l.RLock(ctx)
	require.NoError(t, err)
	r2, err := l.RLock(ctx)
	require.NoError(t, err)

	short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(short)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	r1()
	r2()
	w, err := l.Lock(ctx)
	require.NoError(t, err)

	short2, cancel2 := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel2()
	_, err = l.RLock(short2)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	w()

	r3, err := l.RLock(ctx)
	require.NoError(t, err)
	r3()
}

func TestSemaphoreLocker(t *testing.T) {
	t.Parallel()
	testReaderWriter(t, report.NewSemaphoreLocker())
}

func TestRWMutexLocker(t *testing.T) {
	t.Parallel()
	testReaderWriter(t, report.RWMutexLocker{Mu: &sync.RWMutex{}})
}
