package palette

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jpl-au/dock/extension"
	"github.com/jpl-au/dock/internal/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// providerFunc adapts a function to extension.SearchProvider.
type providerFunc func(ctx context.Context, q extension.Query) ([]extension.Result, error)

func (f providerFunc) Search(ctx context.Context, q extension.Query) ([]extension.Result, error) {
	return f(ctx, q)
}

// gate marks docks searchable. Unlisted docks are searchable.
type gate struct {
	mu  sync.Mutex
	off map[string]bool
}

func (g *gate) Searchable(ext string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return !g.off[ext]
}

// activator records activation order into a shared log.
type activator struct {
	mu  sync.Mutex
	log *[]string
	err error
}

func (a *activator) Activate(_ context.Context, ext string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	*a.log = append(*a.log, "activate:"+ext)
	return a.err
}

type fixture struct {
	reg  *Registry
	pool *runner.Pool
	gate *gate
	eng  *Engine
	errs *errorLog
}

type errorLog struct {
	mu   sync.Mutex
	errs map[string][]error
}

func (l *errorLog) record(ext string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errs[ext] = append(l.errs[ext], err)
}

func (l *errorLog) get(ext string) []error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]error(nil), l.errs[ext]...)
}

func newFixture(t *testing.T, act Activator, docks ...string) *fixture {
	t.Helper()
	pool := runner.New(nil)
	t.Cleanup(pool.Shutdown)
	for _, d := range docks {
		pool.Open(d)
	}
	f := &fixture{
		reg:  NewRegistry(),
		pool: pool,
		gate: &gate{off: make(map[string]bool)},
		errs: &errorLog{errs: make(map[string][]error)},
	}
	f.eng = NewEngine(f.reg, pool, f.gate, act, Options{
		Timeout:  50 * time.Millisecond,
		Debounce: 20 * time.Millisecond,
		OnError:  f.errs.record,
	})
	return f
}

func TestDispatch_ClockScenario(t *testing.T) {
	f := newFixture(t, nil, "com.example.clock")
	require.NoError(t, f.reg.RegisterActions("com.example.clock", []extension.Action{
		{ID: "show-time", Title: "Show Time", Category: extension.CategoryUtilities},
	}))
	f.reg.RegisterProvider("com.example.clock", providerFunc(func(context.Context, extension.Query) ([]extension.Result, error) {
		return []extension.Result{
			{ID: "now", Title: "3:04 PM", Category: extension.CategoryUtilities, Priority: 100},
		}, nil
	}))

	s := f.eng.Open()
	defer s.Close()
	res, err := s.Dispatch(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"3:04 PM", "Show Time"}, res.Titles())
	require.Len(t, res.Groups, 1)
	assert.Equal(t, extension.CategoryUtilities, res.Groups[0].Category)
	assert.Equal(t, res, s.Results())
}

func TestDispatch_DynamicWinsDedup(t *testing.T) {
	f := newFixture(t, nil, "a")
	require.NoError(t, f.reg.RegisterActions("a", []extension.Action{
		{ID: "x", Title: "Static X", Category: "C"},
	}))
	require.NoError(t, f.reg.RegisterInline("a", extension.Action{ID: "x", Title: "Inline X", Category: "C"}))
	f.reg.RegisterProvider("a", providerFunc(func(context.Context, extension.Query) ([]extension.Result, error) {
		return []extension.Result{{ID: "x", Title: "Dynamic X", Category: "C"}}, nil
	}))

	res, err := f.eng.Search(context.Background(), "", Target{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Dynamic X"}, res.Titles())
	assert.Equal(t, KindDynamic, res.Items()[0].Kind)

	// Without the provider the inline beats the static.
	f.reg.RegisterProvider("a", nil)
	res, err = f.eng.Search(context.Background(), "", Target{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Inline X"}, res.Titles())
}

func TestDispatch_TimeoutThenRecovery(t *testing.T) {
	f := newFixture(t, nil, "slow", "fast")
	var slow atomic.Bool
	slow.Store(true)
	release := make(chan struct{})

	f.reg.RegisterProvider("slow", providerFunc(func(ctx context.Context, q extension.Query) ([]extension.Result, error) {
		if slow.Load() {
			<-release
		}
		return []extension.Result{{ID: "s", Title: "Slow", Category: "C"}}, nil
	}))
	f.reg.RegisterProvider("fast", providerFunc(func(context.Context, extension.Query) ([]extension.Result, error) {
		return []extension.Result{{ID: "f", Title: "Fast", Category: "C"}}, nil
	}))

	start := time.Now()
	res, err := f.eng.Search(context.Background(), "", Target{})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, []string{"Fast"}, res.Titles())
	assert.Equal(t, []string{"slow"}, res.TimedOut)
	require.Len(t, f.errs.get("slow"), 1)
	assert.ErrorIs(t, f.errs.get("slow")[0], ErrProviderTimeout)

	// The provider answers quickly again once its runner is free.
	slow.Store(false)
	close(release)
	require.NoError(t, f.pool.Do(context.Background(), "slow", func() error { return nil }))

	res, err = f.eng.Search(context.Background(), "", Target{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Fast", "Slow"}, res.Titles())
	assert.Empty(t, res.TimedOut)
}

func TestDispatch_TimeoutHonouringContextRecovers(t *testing.T) {
	f := newFixture(t, nil, "a")
	var calls atomic.Int32
	f.reg.RegisterProvider("a", providerFunc(func(ctx context.Context, q extension.Query) ([]extension.Result, error) {
		if calls.Add(1) == 1 {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return []extension.Result{{ID: "a", Title: "A", Category: "C"}}, nil
	}))

	res, err := f.eng.Search(context.Background(), "", Target{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, res.TimedOut)

	// No draining: the first call returned when its budget ran out.
	res, err = f.eng.Search(context.Background(), "", Target{})
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, res.Titles())
	assert.Empty(t, res.TimedOut)
}

func TestDispatch_ProviderFailureIsolated(t *testing.T) {
	f := newFixture(t, nil, "bad", "panics", "good")
	f.reg.RegisterProvider("bad", providerFunc(func(context.Context, extension.Query) ([]extension.Result, error) {
		return nil, errors.New("boom")
	}))
	f.reg.RegisterProvider("panics", providerFunc(func(context.Context, extension.Query) ([]extension.Result, error) {
		panic("boom")
	}))
	f.reg.RegisterProvider("good", providerFunc(func(context.Context, extension.Query) ([]extension.Result, error) {
		return []extension.Result{{ID: "g", Title: "Good"}}, nil
	}))

	res, err := f.eng.Search(context.Background(), "", Target{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Good"}, res.Titles())
	assert.ElementsMatch(t, []string{"bad", "panics"}, res.Failed)
	assert.ErrorIs(t, f.errs.get("panics")[0], runner.ErrPanic)
	// Results without a category land in Suggested.
	assert.Equal(t, extension.CategorySuggested, res.Groups[0].Category)
}

func TestDispatch_Filtering(t *testing.T) {
	f := newFixture(t, nil, "a")
	require.NoError(t, f.reg.RegisterActions("a", []extension.Action{
		{ID: "1", Title: "Open Settings", Category: "C"},
		{ID: "2", Title: "Quit", Keywords: []string{"exit", "close"}, Category: "C"},
		{ID: "3", Title: "About", Category: "C"},
	}))
	var seen atomic.Value
	f.reg.RegisterProvider("a", providerFunc(func(_ context.Context, q extension.Query) ([]extension.Result, error) {
		seen.Store(q.Text)
		return nil, nil
	}))

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"About", "Open Settings", "Quit"}},
		{"  ", []string{"About", "Open Settings", "Quit"}},
		{"SETT", []string{"Open Settings"}},
		{"exit", []string{"Quit"}},
		{"o", []string{"About", "Open Settings", "Quit"}},
		{"zzz", nil},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			res, err := f.eng.Search(context.Background(), tt.query, Target{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Titles())
		})
	}
	assert.Equal(t, "zzz", seen.Load())
}

func TestDispatch_MaxResults(t *testing.T) {
	f := newFixture(t, nil, "a")
	f.reg.RegisterProvider("a", providerFunc(func(context.Context, extension.Query) ([]extension.Result, error) {
		var out []extension.Result
		for _, id := range []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11", "12"} {
			out = append(out, extension.Result{ID: id, Title: id})
		}
		return out, nil
	}))
	res, err := f.eng.Search(context.Background(), "", Target{})
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxResults, res.Len())
}

func TestDispatch_GateSkipsProvider(t *testing.T) {
	f := newFixture(t, nil, "a")
	require.NoError(t, f.reg.RegisterActions("a", []extension.Action{{ID: "s", Title: "Static"}}))
	var called atomic.Bool
	f.reg.RegisterProvider("a", providerFunc(func(context.Context, extension.Query) ([]extension.Result, error) {
		called.Store(true)
		return []extension.Result{{ID: "d", Title: "Dynamic"}}, nil
	}))
	f.gate.off["a"] = true

	res, err := f.eng.Search(context.Background(), "", Target{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Static"}, res.Titles())
	assert.False(t, called.Load())
}

func TestDispatch_InlineImmediate(t *testing.T) {
	f := newFixture(t, nil, "a")
	require.NoError(t, f.reg.RegisterInline("a", extension.Action{ID: "i", Title: "Inline", InlineResult: "= 4"}))

	res, err := f.eng.Search(context.Background(), "", Target{})
	require.NoError(t, err)
	require.Equal(t, []string{"Inline"}, res.Titles())
	assert.Equal(t, "= 4", res.Items()[0].InlineResult)

	f.reg.RemoveInline("a", "i")
	res, err = f.eng.Search(context.Background(), "", Target{})
	require.NoError(t, err)
	assert.Empty(t, res.Titles())
}

func TestSession_DrillDown(t *testing.T) {
	f := newFixture(t, nil, "a", "b")
	require.NoError(t, f.reg.RegisterActions("a", []extension.Action{
		{ID: "history", Title: "History", HasDrillDown: true},
	}))
	require.NoError(t, f.reg.RegisterActions("b", []extension.Action{{ID: "other", Title: "Other"}}))
	var scope atomic.Value
	f.reg.RegisterProvider("a", providerFunc(func(_ context.Context, q extension.Query) ([]extension.Result, error) {
		scope.Store(q.Scope)
		return []extension.Result{{ID: "h1", Title: "Entry"}}, nil
	}))
	f.reg.RegisterProvider("b", providerFunc(func(context.Context, extension.Query) ([]extension.Result, error) {
		return []extension.Result{{ID: "b1", Title: "B Result"}}, nil
	}))

	s := f.eng.Open()
	defer s.Close()
	res, err := s.Dispatch(context.Background(), "")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"History", "Other", "Entry", "B Result"}, res.Titles())

	var drill Item
	for _, it := range res.Items() {
		if it.ID == "history" {
			drill = it
		}
	}
	surface, err := s.Select(context.Background(), drill)
	require.NoError(t, err)
	assert.Nil(t, surface)
	assert.Equal(t, StateDrilledIn, s.State())
	target, ok := s.Target()
	assert.True(t, ok)
	assert.Equal(t, Target{Extension: "a", Action: "history"}, target)

	res, err = s.Dispatch(context.Background(), "")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"History", "Entry"}, res.Titles())
	assert.Equal(t, "history", scope.Load())
	require.NotNil(t, res.Target)
	assert.Equal(t, "a", res.Target.Extension)

	require.NoError(t, s.Back())
	assert.Equal(t, StateBrowsing, s.State())
	assert.ErrorIs(t, s.Back(), ErrNotDrilledIn)

	res, err = s.Dispatch(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, res.Titles(), 4)
	assert.Equal(t, "", scope.Load())
}

type subViewer struct{}

func (subViewer) SubView(id string) (extension.Surface, error) {
	return extension.Text("sub:" + id), nil
}

func TestSession_DrillDownSubView(t *testing.T) {
	f := newFixture(t, nil, "a")
	require.NoError(t, f.reg.Attach("a", extension.Hooks{SubView: subViewer{}}))

	s := f.eng.Open()
	defer s.Close()
	surface, err := s.DrillDown(context.Background(), Target{Extension: "a", Action: "history"})
	require.NoError(t, err)
	assert.Equal(t, extension.Text("sub:history"), surface)
}

func TestSession_Superseded(t *testing.T) {
	f := newFixture(t, nil, "a", "b")
	entered := make(chan struct{})
	release := make(chan struct{})
	var first atomic.Bool
	first.Store(true)
	f.reg.RegisterProvider("a", providerFunc(func(ctx context.Context, q extension.Query) ([]extension.Result, error) {
		if first.CompareAndSwap(true, false) {
			close(entered)
			select {
			case <-ctx.Done():
			case <-release:
			}
		}
		return []extension.Result{{ID: q.Text, Title: q.Text}}, nil
	}))
	defer close(release)

	s := f.eng.Open()
	defer s.Close()

	errc := make(chan error, 1)
	go func() {
		_, err := s.Dispatch(context.Background(), "old")
		errc <- err
	}()
	<-entered

	res, err := s.Dispatch(context.Background(), "new")
	require.NoError(t, err)
	assert.Equal(t, []string{"new"}, res.Titles())
	assert.ErrorIs(t, <-errc, ErrSuperseded)
	assert.Equal(t, []string{"new"}, s.Results().Titles())
}

func TestSession_Close(t *testing.T) {
	f := newFixture(t, nil, "a")
	s := f.eng.Open()
	s.Close()
	s.Close()
	assert.Equal(t, StateIdle, s.State())

	_, err := s.Dispatch(context.Background(), "x")
	assert.ErrorIs(t, err, ErrSessionClosed)
	_, err = s.Select(context.Background(), Item{Extension: "a", ID: "x"})
	assert.ErrorIs(t, err, ErrSessionClosed)
	assert.ErrorIs(t, s.Back(), ErrSessionClosed)
}

type executor struct {
	mu  sync.Mutex
	log *[]string
}

func (x *executor) ExecuteAction(id string) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	*x.log = append(*x.log, "execute:"+id)
	return nil
}

func TestSelect_ActivatesBeforeRun(t *testing.T) {
	var log []string
	act := &activator{log: &log}
	f := newFixture(t, act, "a")
	x := &executor{log: &log}
	require.NoError(t, f.reg.Attach("a", extension.Hooks{Executor: x}))
	require.NoError(t, f.reg.RegisterActions("a", []extension.Action{
		{ID: "go", Title: "Go", RequiresActivation: true},
		{ID: "plain", Title: "Plain"},
	}))

	s := f.eng.Open()
	defer s.Close()
	res, err := s.Dispatch(context.Background(), "")
	require.NoError(t, err)
	for _, it := range res.Items() {
		_, err := s.Select(context.Background(), it)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"activate:a", "execute:go", "execute:plain"}, log)
}

func TestSelect_ActivationFailureSkipsRun(t *testing.T) {
	var log []string
	act := &activator{log: &log, err: errors.New("incompatible")}
	f := newFixture(t, act, "a")
	x := &executor{log: &log}
	require.NoError(t, f.reg.Attach("a", extension.Hooks{Executor: x}))
	require.NoError(t, f.reg.RegisterActions("a", []extension.Action{{ID: "go", Title: "Go", RequiresActivation: true}}))

	res, err := f.eng.Search(context.Background(), "", Target{})
	require.NoError(t, err)
	err = f.eng.Execute(context.Background(), res.Items()[0])
	assert.Error(t, err)
	assert.Equal(t, []string{"activate:a"}, log)
}

func TestSelect_DynamicRun(t *testing.T) {
	f := newFixture(t, nil, "a")
	var ran atomic.Bool
	f.reg.RegisterProvider("a", providerFunc(func(context.Context, extension.Query) ([]extension.Result, error) {
		return []extension.Result{
			{ID: "r", Title: "Run", Run: func(context.Context) error { ran.Store(true); return nil }},
			{ID: "n", Title: "Nothing"},
		}, nil
	}))
	res, err := f.eng.Search(context.Background(), "", Target{})
	require.NoError(t, err)
	items := res.Items()
	require.Len(t, items, 2)

	require.NoError(t, f.eng.Execute(context.Background(), items[1]))
	assert.True(t, ran.Load())
	assert.ErrorIs(t, f.eng.Execute(context.Background(), items[0]), ErrNotExecutable)
}

func TestSubmit_Debounce(t *testing.T) {
	f := newFixture(t, nil, "a")
	f.eng = NewEngine(f.reg, f.pool, f.gate, nil, Options{Debounce: 100 * time.Millisecond})
	var calls atomic.Int32
	f.reg.RegisterProvider("a", providerFunc(func(_ context.Context, q extension.Query) ([]extension.Result, error) {
		calls.Add(1)
		return []extension.Result{{ID: q.Text, Title: q.Text}}, nil
	}))

	s := f.eng.Open()
	defer s.Close()

	got := make(chan Results, 4)
	for _, q := range []string{"c", "ca", "cal", "calc"} {
		s.Submit(q, func(r Results, err error) {
			assert.NoError(t, err)
			got <- r
		})
	}

	select {
	case r := <-got:
		assert.Equal(t, []string{"calc"}, r.Titles())
	case <-time.After(2 * time.Second):
		t.Fatal("no debounced dispatch")
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestSubmit_DroppedAfterClose(t *testing.T) {
	f := newFixture(t, nil, "a")
	s := f.eng.Open()
	var called atomic.Bool
	s.Submit("x", func(Results, error) { called.Store(true) })
	s.Close()
	time.Sleep(60 * time.Millisecond)
	assert.False(t, called.Load())
}

type observer struct {
	shown, hidden atomic.Int32
}

func (o *observer) PaletteWillShow() { o.shown.Add(1) }
func (o *observer) PaletteDidHide()  { o.hidden.Add(1) }

func TestSession_Observers(t *testing.T) {
	f := newFixture(t, nil, "a")
	o := &observer{}
	require.NoError(t, f.reg.Attach("a", extension.Hooks{Observer: o}))

	s := f.eng.Open()
	s.Close()
	require.NoError(t, f.pool.Do(context.Background(), "a", func() error { return nil }))
	assert.Equal(t, int32(1), o.shown.Load())
	assert.Equal(t, int32(1), o.hidden.Load())
}
