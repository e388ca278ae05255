package tree

import (
	"reflect"
	"strings"
	"testing"
)

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindUnset, "unset"},
		{KindRecord, "record"},
		{KindScalar, "scalar"},
		{KindAmbiguous, "ambiguous"},
		{Kind(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestText(t *testing.T) {
	b := Borrowed("foo,bar")
	if b.IsOwned() || b.String() != "foo,bar" || b.Len() != 7 {
		t.Errorf("Borrowed = %+v", b)
	}
	o := Owned("a b")
	if !o.IsOwned() {
		t.Error("Owned text should report owned")
	}
	s := b.Slice(4, 7)
	if s.String() != "bar" || s.IsOwned() {
		t.Errorf("Slice = %+v", s)
	}
	if !o.Slice(0, 1).IsOwned() {
		t.Error("Slice should keep ownership")
	}
}

func TestInsert_Nested(t *testing.T) {
	root := NewRecord()
	inserts := []struct {
		path  []string
		value string
	}{
		{[]string{"keyword"}, "foo"},
		{[]string{"filter", "category"}, "A"},
		{[]string{"filter", "difficulty", "to"}, "800"},
		{[]string{"limit"}, "20"},
	}
	for _, in := range inserts {
		if c := root.Insert(in.path, Borrowed(in.value)); c != nil {
			t.Fatalf("Insert(%v) conflict: %v", in.path, c.Reason)
		}
	}

	if got := root.Record().Keys(); !reflect.DeepEqual(got, []string{"keyword", "filter", "limit"}) {
		t.Errorf("root keys = %v", got)
	}
	filter, ok := root.Record().Lookup("filter")
	if !ok || filter.Kind() != KindRecord {
		t.Fatalf("filter = %v", filter)
	}
	diff, _ := filter.Record().Lookup("difficulty")
	to, _ := diff.Record().Lookup("to")
	if to.Kind() != KindScalar || to.Text().String() != "800" {
		t.Errorf("filter.difficulty.to = %v %q", to.Kind(), to.Text())
	}
}

func TestInsert_Conflicts(t *testing.T) {
	tests := []struct {
		name       string
		first      []string
		second     []string
		poisoned   []string
		reasonPart string
	}{
		{"duplicate scalar", []string{"a"}, []string{"a"}, []string{"a"}, `multiple values for key "a"`},
		{"record over scalar", []string{"a"}, []string{"a", "b"}, []string{"a"}, `key "a" has both a value and nested keys`},
		{"scalar over record", []string{"a", "b"}, []string{"a"}, []string{"a"}, `key "a" has both`},
		{"deep duplicate", []string{"a", "b", "c"}, []string{"a", "b", "c"}, []string{"a", "b", "c"}, `"a.b.c"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := NewRecord()
			root.Insert([]string{"sibling"}, Borrowed("ok"))
			if c := root.Insert(tt.first, Borrowed("1")); c != nil {
				t.Fatalf("first insert conflict: %v", c.Reason)
			}
			c := root.Insert(tt.second, Borrowed("2"))
			if c == nil {
				t.Fatal("expected a conflict")
			}
			if !reflect.DeepEqual(c.Path, tt.poisoned) {
				t.Errorf("conflict path = %v, want %v", c.Path, tt.poisoned)
			}
			if !strings.Contains(c.Reason, tt.reasonPart) {
				t.Errorf("reason = %q, want it to contain %q", c.Reason, tt.reasonPart)
			}

			n := root
			for _, seg := range tt.poisoned {
				n, _ = n.Record().Lookup(seg)
			}
			if n.Kind() != KindAmbiguous {
				t.Errorf("poisoned node kind = %v", n.Kind())
			}

			sib, _ := root.Record().Lookup("sibling")
			if sib.Kind() != KindScalar {
				t.Error("sibling must not be affected")
			}
		})
	}
}

func TestInsert_PoisonIsPermanent(t *testing.T) {
	root := NewRecord()
	root.Insert([]string{"a"}, Borrowed("1"))
	first := root.Insert([]string{"a"}, Borrowed("2"))
	if first == nil {
		t.Fatal("expected conflict")
	}
	for _, path := range [][]string{{"a"}, {"a", "b"}, {"a", "b", "c"}} {
		c := root.Insert(path, Borrowed("3"))
		if c == nil || c.Reason != first.Reason {
			t.Errorf("Insert(%v) = %v, want original poison reason", path, c)
		}
	}
	a, _ := root.Record().Lookup("a")
	if a.Kind() != KindAmbiguous || a.Reason() != first.Reason {
		t.Errorf("a = %v %q", a.Kind(), a.Reason())
	}
}

func TestRecord_TakeAndKeys(t *testing.T) {
	root := NewRecord()
	for _, k := range []string{"c", "a", "b"} {
		root.Insert([]string{k}, Borrowed(k))
	}
	rec := root.Record()

	n, ok := rec.Take("a")
	if !ok || n.Text().String() != "a" {
		t.Fatalf("Take(a) = %v, %v", n, ok)
	}
	if _, ok := rec.Take("a"); ok {
		t.Error("second Take should report absence")
	}
	if got := rec.Keys(); !reflect.DeepEqual(got, []string{"c", "b"}) {
		t.Errorf("Keys = %v", got)
	}
	if rec.Len() != 2 {
		t.Errorf("Len = %d", rec.Len())
	}

	if _, ok := rec.Lookup("a"); ok {
		t.Error("Lookup should not see a taken child")
	}
	if n, ok := rec.Lookup("b"); !ok || n.Kind() != KindScalar {
		t.Errorf("Lookup(b) = %v, %v", n, ok)
	}
	if rec.Len() != 2 {
		t.Error("Lookup must not remove the child")
	}
}

func TestWalk(t *testing.T) {
	root := NewRecord()
	root.Insert([]string{"a", "x"}, Borrowed("1"))
	root.Insert([]string{"b"}, Borrowed("2"))
	root.Insert([]string{"a", "y"}, Borrowed("3"))

	var seen []string
	Walk(root, func(path []string, n *Node) bool {
		seen = append(seen, strings.Join(path, ".")+":"+n.Kind().String())
		return true
	})
	want := []string{":record", "a:record", "a.x:scalar", "a.y:scalar", "b:scalar"}
	if !reflect.DeepEqual(seen, want) {
		t.Errorf("Walk order = %v, want %v", seen, want)
	}

	var count int
	Walk(root, func(path []string, n *Node) bool {
		count++
		return len(path) == 0
	})
	if count != 3 {
		t.Errorf("pruned walk visited %d nodes, want 3", count)
	}
}
