// Package tree defines the intermediate value tree built by the parser and
// consumed by the decoder.
//
// A Node is a closed tagged union: Unset, Record, Scalar or Ambiguous.
// Nodes move from Unset to Record or Scalar on first write. A later
// write of an incompatible shape poisons the node (Ambiguous) and the
// poison is permanent. Conflicts never fail the parse; they only fail the
// read of the poisoned position.
//
// This package is internal to structqs.
package tree

import (
	"fmt"
	"strings"
)

type Kind uint8

const (
	KindUnset Kind = iota
	KindRecord
	KindScalar
	KindAmbiguous
)

var kindNames = [...]string{
	KindUnset:     "unset",
	KindRecord:    "record",
	KindScalar:    "scalar",
	KindAmbiguous: "ambiguous",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Text is scalar content. A borrowed Text is a view into the parsed input;
// an owned Text was produced by percent-decoding.
type Text struct {
	s     string
	owned bool
}

func Borrowed(s string) Text { return Text{s: s} }

func Owned(s string) Text { return Text{s: s, owned: true} }

func (t Text) String() string { return t.s }

func (t Text) IsOwned() bool { return t.owned }

func (t Text) Len() int { return len(t.s) }

// Slice returns t[i:j] with the same ownership.
func (t Text) Slice(i, j int) Text {
	return Text{s: t.s[i:j], owned: t.owned}
}

type Node struct {
	rec    *Record
	text   Text
	reason string
	kind   Kind
}

func NewUnset() *Node { return &Node{} }

func NewScalar(t Text) *Node { return &Node{kind: KindScalar, text: t} }

func NewRecord() *Node { return &Node{kind: KindRecord, rec: newRecord()} }

func NewAmbiguous(reason string) *Node { return &Node{kind: KindAmbiguous, reason: reason} }

func (n *Node) Kind() Kind { return n.kind }

// Text returns the scalar content. It is empty for other kinds.
func (n *Node) Text() Text { return n.text }

// Record returns the children of a record node, or nil.
func (n *Node) Record() *Record { return n.rec }

// Reason returns the poison reason of an ambiguous node.
func (n *Node) Reason() string { return n.reason }

func (n *Node) poison(reason string) {
	n.kind = KindAmbiguous
	n.rec = nil
	n.text = Text{}
	n.reason = reason
}

// Conflict describes a write that poisoned a node.
type Conflict struct {
	Reason string
	Path   []string
}

// Insert writes v under path, creating intermediate records as needed.
// n must be a record or unset. On conflict the deepest affected node is
// poisoned, the rest of the write is dropped and the conflict returned.
func (n *Node) Insert(path []string, v Text) *Conflict {
	cur := n
	for i, seg := range path {
		switch cur.kind {
		case KindUnset:
			cur.kind = KindRecord
			cur.rec = newRecord()
		case KindRecord:
		case KindScalar:
			key := strings.Join(path[:i], ".")
			reason := fmt.Sprintf("key %q has both a value and nested keys", key)
			cur.poison(reason)
			return &Conflict{Path: path[:i], Reason: reason}
		case KindAmbiguous:
			return &Conflict{Path: path[:i], Reason: cur.reason}
		}
		cur = cur.rec.child(seg)
	}

	switch cur.kind {
	case KindUnset:
		cur.kind = KindScalar
		cur.text = v
		return nil
	case KindScalar:
		reason := fmt.Sprintf("multiple values for key %q", strings.Join(path, "."))
		cur.poison(reason)
		return &Conflict{Path: path, Reason: reason}
	case KindRecord:
		reason := fmt.Sprintf("key %q has both a value and nested keys", strings.Join(path, "."))
		cur.poison(reason)
		return &Conflict{Path: path, Reason: reason}
	default:
		return &Conflict{Path: path, Reason: cur.reason}
	}
}

// Record holds the children of a record node in insertion order.
type Record struct {
	children map[string]*Node
	keys     []string
}

func newRecord() *Record {
	return &Record{children: make(map[string]*Node)}
}

func (r *Record) child(name string) *Node {
	if c, ok := r.children[name]; ok {
		return c
	}
	c := NewUnset()
	r.children[name] = c
	r.keys = append(r.keys, name)
	return c
}

// Lookup returns the child named name without removing it.
func (r *Record) Lookup(name string) (*Node, bool) {
	c, ok := r.children[name]
	return c, ok
}

// Take removes and returns the child named name.
func (r *Record) Take(name string) (*Node, bool) {
	c, ok := r.children[name]
	if ok {
		delete(r.children, name)
	}
	return c, ok
}

// Len returns the number of children not yet taken.
func (r *Record) Len() int {
	return len(r.children)
}

// Keys returns the names of children not yet taken, in insertion order.
func (r *Record) Keys() []string {
	if len(r.keys) == len(r.children) {
		return append([]string(nil), r.keys...)
	}
	out := make([]string, 0, len(r.children))
	for _, k := range r.keys {
		if _, ok := r.children[k]; ok {
			out = append(out, k)
		}
	}
	return out
}

// Walk visits n and its descendants depth-first in insertion order.
// Returning false from fn skips the children of that node.
func Walk(n *Node, fn func(path []string, n *Node) bool) {
	walk(nil, n, fn)
}

func walk(path []string, n *Node, fn func([]string, *Node) bool) {
	if !fn(path, n) || n.kind != KindRecord {
		return
	}
	for _, k := range n.rec.Keys() {
		c, _ := n.rec.Lookup(k)
		child := make([]string, len(path)+1)
		copy(child, path)
		child[len(path)] = k
		walk(child, c, fn)
	}
}
