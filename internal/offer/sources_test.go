package offer

import (
	"bytes"
	"strings"
	"testing"
)

func TestSources_SetAdvertisesIdentity(t *testing.T) {
	comp := newFakeComp()
	s := NewSources(comp, nil)
	src, err := s.Set(false, 3, map[string][]byte{
		"text/plain":               []byte("hi"),
		"text/plain;charset=utf-8": []byte("hi"),
	})
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	mimes := comp.sources[src.ID]
	if len(mimes) != 3 || !IsIdentity(mimes[2]) {
		t.Fatalf("expected two types plus identity, got %v", mimes)
	}
	if !strings.HasPrefix(src.Identity, identityPrefix) {
		t.Fatalf("unexpected identity %q", src.Identity)
	}
	if len(comp.selections) != 1 || comp.selections[0] != src.ID {
		t.Fatalf("expected selection set to the new source")
	}
}

func TestSources_SendAndCancel(t *testing.T) {
	comp := newFakeComp()
	s := NewSources(comp, nil)
	first, _ := s.Set(false, 1, map[string][]byte{"text/plain": []byte("one")})
	second, _ := s.Set(false, 2, map[string][]byte{"text/plain": []byte("two")})
	if first.Identity == second.Identity {
		t.Fatalf("identities must be unique")
	}
	if s.IsLocalIdentity(first.Identity) {
		t.Fatalf("replaced source must not count as local")
	}

	var buf bytes.Buffer
	if err := s.Send(first.ID, "text/plain", &buf); err != nil || buf.String() != "one" {
		t.Fatalf("send for replaced source: %q %v", buf.String(), err)
	}
	if err := s.Send(second.ID, "image/png", &buf); err == nil {
		t.Fatalf("expected error for unadvertised type")
	}

	s.Cancelled(first.ID)
	s.Cancelled(first.ID)
	if s.Len() != 1 || len(comp.srcGone) != 1 {
		t.Fatalf("expected one destroy, got %v", comp.srcGone)
	}
	s.Cancelled(second.ID)
	if s.Live(false) != nil {
		t.Fatalf("cancelled live source must be cleared")
	}
}

func TestSources_RejectsEmpty(t *testing.T) {
	s := NewSources(newFakeComp(), nil)
	if _, err := s.Set(true, 1, nil); err == nil {
		t.Fatalf("expected error for empty data")
	}
}
