package expenses

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"iexpense/internal/core"
	"iexpense/internal/kv"
	"iexpense/internal/log"
)

func quietLogger() *log.Logger {
	return log.New(log.Config{Output: &bytes.Buffer{}}).WithComponent(log.ComponentStore)
}

func newStore(t *testing.T, backend kv.Store, opts ...Option) *Store {
	t.Helper()
	return New(context.Background(), backend, append([]Option{WithLogger(quietLogger())}, opts...)...)
}

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertSame(t *testing.T, got, want []core.Expense) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d items, want %d", len(got), len(want))
	}
	for i := range want {
		g, w := got[i], want[i]
		if g.ID != w.ID || g.Name != w.Name || g.Category != w.Category || !g.Amount.Equal(w.Amount) {
			t.Fatalf("item %d = %+v, want %+v", i, g, w)
		}
	}
}

type failingKV struct {
	kv.Store
	setErr error
	getErr error
}

func (f failingKV) Get(ctx context.Context, key string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.Store.Get(ctx, key)
}

func (f failingKV) Set(ctx context.Context, key string, value []byte) error {
	if f.setErr != nil {
		return f.setErr
	}
	return f.Store.Set(ctx, key, value)
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemory()

	s := newStore(t, backend)
	coffee := core.NewExpense("Coffee", core.Personal, amount("3.50"))
	flight := core.NewExpense("Flight", core.Business, amount("450.00"))
	if err := s.Append(ctx, coffee); err != nil {
		t.Fatalf("append coffee: %v", err)
	}
	if err := s.Append(ctx, flight); err != nil {
		t.Fatalf("append flight: %v", err)
	}

	reloaded := newStore(t, backend)
	assertSame(t, reloaded.Items(), []core.Expense{coffee, flight})
}

func TestRoundTripFileBackend(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "prefs.json")

	backend, err := kv.NewFile(path)
	if err != nil {
		t.Fatalf("file backend: %v", err)
	}
	s := newStore(t, backend)
	want := []core.Expense{
		core.NewExpense("Lunch", core.Personal, amount("12.40")),
		core.NewExpense("Refund", core.Business, amount("-20")),
		core.NewExpense("", core.Business, amount("0")),
	}
	for _, e := range want {
		if err := s.Append(ctx, e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	again, err := kv.NewFile(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	assertSame(t, newStore(t, again).Items(), want)
}

func TestAppendOrder(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, kv.NewMemory())

	var want []core.Expense
	for i, c := range []core.Category{core.Business, core.Personal, core.Personal, core.Business, core.Personal} {
		e := core.NewExpense(string(rune('a'+i)), c, decimal.NewFromInt(int64(i)))
		want = append(want, e)
		if err := s.Append(ctx, e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	assertSame(t, s.Items(), want)
	if s.Len() != len(want) {
		t.Fatalf("Len() = %d, want %d", s.Len(), len(want))
	}
}

func TestRemovePreservesOrder(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemory()
	s := newStore(t, backend)

	a := core.NewExpense("A", core.Business, amount("1"))
	b := core.NewExpense("B", core.Personal, amount("2"))
	c := core.NewExpense("C", core.Business, amount("3"))
	for _, e := range []core.Expense{a, b, c} {
		if err := s.Append(ctx, e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	if err := s.Remove(ctx, uuid.New()); err != nil {
		t.Fatalf("remove unknown: %v", err)
	}
	assertSame(t, s.Items(), []core.Expense{a, b, c})

	if err := s.Remove(ctx, b.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	assertSame(t, s.Items(), []core.Expense{a, c})
	assertSame(t, newStore(t, backend).Items(), []core.Expense{a, c})

	if err := s.Remove(ctx, a.ID, c.ID); err != nil {
		t.Fatalf("remove rest: %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("expected empty store, got %v", s.Items())
	}
	if got := newStore(t, backend).Items(); len(got) != 0 {
		t.Fatalf("expected empty after reload, got %v", got)
	}
}

func TestItemsReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, kv.NewMemory())
	if err := s.Append(ctx, core.NewExpense("A", core.Business, amount("1"))); err != nil {
		t.Fatalf("append: %v", err)
	}

	items := s.Items()
	items[0].Name = "mutated"
	if s.Items()[0].Name != "A" {
		t.Fatalf("Items() exposed internal slice")
	}
}

func TestFilter(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, kv.NewMemory())
	x := core.NewExpense("x", core.Business, amount("1"))
	y := core.NewExpense("y", core.Personal, amount("2"))
	z := core.NewExpense("z", core.Business, amount("3"))
	for _, e := range []core.Expense{x, y, z} {
		if err := s.Append(ctx, e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	assertSame(t, s.Filter(core.Business), []core.Expense{x, z})
	assertSame(t, s.Filter(core.Personal), []core.Expense{y})
}

func TestLoadFallsBackToEmpty(t *testing.T) {
	cases := []struct {
		name string
		blob string
	}{
		{"not json", "definitely not json"},
		{"object instead of array", `{"id":"x"}`},
		{"null", `null`},
		{"bad id", `[{"id":"nope","name":"a","type":"Business","amount":1}]`},
		{"bad amount", `[{"id":"` + uuid.NewString() + `","name":"a","type":"Business","amount":"lots"}]`},
		{"missing amount", `[{"id":"` + uuid.NewString() + `","name":"a","type":"Business"}]`},
		{"missing id", `[{"name":"a","type":"Business","amount":1}]`},
		{"missing name", `[{"id":"` + uuid.NewString() + `","type":"Business","amount":1}]`},
		{"missing type", `[{"id":"` + uuid.NewString() + `","name":"a","amount":1}]`},
		{"missing name and type", `[{"id":"` + uuid.NewString() + `","amount":1}]`},
		{"null name", `[{"id":"` + uuid.NewString() + `","name":null,"type":"Business","amount":1}]`},
		{"wrong field type", `[{"id":"` + uuid.NewString() + `","name":7,"type":"Business","amount":1}]`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			backend := kv.NewMemory()
			if err := backend.Set(context.Background(), Key, []byte(tc.blob)); err != nil {
				t.Fatalf("seed: %v", err)
			}
			s := newStore(t, backend)
			if got := s.Items(); len(got) != 0 {
				t.Fatalf("expected empty collection, got %v", got)
			}
		})
	}
}

func TestLoadDuplicateIDsIsCorrupt(t *testing.T) {
	id := uuid.NewString()
	blob := `[{"id":"` + id + `","name":"a","type":"Business","amount":1},{"id":"` + id + `","name":"b","type":"Personal","amount":2}]`
	backend := kv.NewMemory()
	if err := backend.Set(context.Background(), Key, []byte(blob)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if got := newStore(t, backend).Len(); got != 0 {
		t.Fatalf("expected empty collection, got %d items", got)
	}
}

func TestLoadReadErrorIsEmpty(t *testing.T) {
	backend := failingKV{Store: kv.NewMemory(), getErr: errors.New("disk on fire")}
	if got := newStore(t, backend).Len(); got != 0 {
		t.Fatalf("expected empty collection, got %d items", got)
	}
}

func TestLoadKeepsUnknownCategory(t *testing.T) {
	id := uuid.New()
	blob := `[{"id":"` + id.String() + `","name":"Train","type":"Travel","amount":12.5}]`
	backend := kv.NewMemory()
	if err := backend.Set(context.Background(), Key, []byte(blob)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	s := newStore(t, backend)
	items := s.Items()
	if len(items) != 1 || items[0].Category != "Travel" || items[0].ID != id {
		t.Fatalf("unexpected items %+v", items)
	}
	if len(s.Filter(core.Personal)) != 1 || len(s.Filter(core.Business)) != 0 {
		t.Fatalf("unknown category should land under Personal")
	}
}

func TestWithKey(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemory()
	s := newStore(t, backend, WithKey("Other"))
	if err := s.Append(ctx, core.NewExpense("A", core.Business, amount("1"))); err != nil {
		t.Fatalf("append: %v", err)
	}

	if _, err := backend.Get(ctx, Key); !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("default key should be untouched, got %v", err)
	}
	if got := newStore(t, backend, WithKey("Other")).Len(); got != 1 {
		t.Fatalf("expected 1 item under custom key, got %d", got)
	}
}

func TestSaveFailureKeepsMemoryState(t *testing.T) {
	ctx := context.Background()
	inner := kv.NewMemory()
	s := newStore(t, failingKV{Store: inner, setErr: errors.New("read-only")})

	e := core.NewExpense("A", core.Business, amount("1"))
	if err := s.Append(ctx, e); err == nil {
		t.Fatalf("expected save error")
	}
	assertSame(t, s.Items(), []core.Expense{e})
	if _, err := inner.Get(ctx, Key); !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("nothing should have been written, got %v", err)
	}
}

func TestSubscribe(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, kv.NewMemory())

	var seen [][]core.Expense
	unsubscribe := s.Subscribe(func(items []core.Expense) {
		seen = append(seen, items)
	})

	a := core.NewExpense("A", core.Business, amount("1"))
	if err := s.Append(ctx, a); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := s.Remove(ctx, a.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}

	if len(seen) != 2 || len(seen[0]) != 1 || len(seen[1]) != 0 {
		t.Fatalf("unexpected notifications %v", seen)
	}

	unsubscribe()
	if err := s.Append(ctx, a); err != nil {
		t.Fatalf("append: %v", err)
	}
	if len(seen) != 2 {
		t.Fatalf("listener called after unsubscribe")
	}
}

func TestEncodeWireFormat(t *testing.T) {
	id := uuid.MustParse("6f1c2a8e-4b7d-4c3e-9a51-2d0f8b7e6c11")
	data, err := Encode([]core.Expense{{ID: id, Name: "Coffee", Category: core.Personal, Amount: amount("3.50")}})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := `[{"id":"6f1c2a8e-4b7d-4c3e-9a51-2d0f8b7e6c11","name":"Coffee","type":"Personal","amount":3.5}]`
	if string(data) != want {
		t.Fatalf("encode = %s\nwant     %s", data, want)
	}

	empty, err := Encode(nil)
	if err != nil || string(empty) != "[]" {
		t.Fatalf("encode empty = %s, %v", empty, err)
	}
}

func TestNewUsesContextLogger(t *testing.T) {
	var buf bytes.Buffer
	ctx := log.NewContext(context.Background(), log.New(log.Config{Output: &buf}))

	New(ctx, failingKV{Store: kv.NewMemory(), getErr: errors.New("disk on fire")})

	if !strings.Contains(buf.String(), "component=store") || !strings.Contains(buf.String(), "disk on fire") {
		t.Fatalf("expected read failure logged through context logger, got %q", buf.String())
	}
}

func TestLoadAcceptsEmptyNameAndType(t *testing.T) {
	id := uuid.New()
	blob := `[{"id":"` + id.String() + `","name":"","type":"","amount":0}]`
	backend := kv.NewMemory()
	if err := backend.Set(context.Background(), Key, []byte(blob)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	items := newStore(t, backend).Items()
	if len(items) != 1 || items[0].ID != id || items[0].Name != "" {
		t.Fatalf("unexpected items %+v", items)
	}
}

func TestAppendDuplicateIDIsIgnored(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemory()
	s := newStore(t, backend)

	keep := core.NewExpense("keep", core.Business, amount("1"))
	dup := core.NewExpense("dup", core.Personal, amount("2"))
	for _, e := range []core.Expense{keep, dup, dup} {
		if err := s.Append(ctx, e); err != nil {
			t.Fatalf("append %s: %v", e.Name, err)
		}
	}
	renamed := dup
	renamed.Name = "dup again"
	if err := s.Append(ctx, renamed); err != nil {
		t.Fatalf("append renamed: %v", err)
	}

	assertSame(t, s.Items(), []core.Expense{keep, dup})
	assertSame(t, newStore(t, backend).Items(), []core.Expense{keep, dup})
}

func TestConcurrentAppendsAllPersist(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemory()
	s := newStore(t, backend)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := s.Append(ctx, core.NewExpense("e", core.Business, decimal.NewFromInt(int64(i)))); err != nil {
				t.Errorf("append: %v", err)
			}
		}(i)
	}
	wg.Wait()

	reloaded := newStore(t, backend)
	assertSame(t, reloaded.Items(), s.Items())
	if reloaded.Len() != n {
		t.Fatalf("expected %d persisted items, got %d", n, reloaded.Len())
	}
}
