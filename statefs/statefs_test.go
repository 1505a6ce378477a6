package statefs

import (
	"errors"
	"strings"
	"testing"
)

func TestStore_List(t *testing.T) {
	t.Run("empty store", func(t *testing.T) {
		s := NewStore()
		if got := s.List(); len(got) != 0 {
			t.Fatalf("expected 0 paths, got %d", len(got))
		}
	})

	t.Run("sorted paths", func(t *testing.T) {
		s := NewStore()
		s.Write("b.txt", "two")
		s.Write("a.txt", "one")
		s.Write("c.txt", "three")

		got := s.List()
		want := []string{"a.txt", "b.txt", "c.txt"}
		if len(got) != len(want) {
			t.Fatalf("expected %d paths, got %d", len(want), len(got))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("paths[%d] = %q, want %q", i, got[i], want[i])
			}
		}
	})
}

func TestStore_WriteReadRoundTrip(t *testing.T) {
	s := NewStore()
	s.Write("notes.md", "hello")

	out, err := s.Read("notes.md", 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if out != "1\thello" {
		t.Fatalf("expected %q, got %q", "1\thello", out)
	}

	// Overwrite wins.
	s.Write("notes.md", "goodbye")
	out, err = s.Read("notes.md", 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if out != "1\tgoodbye" {
		t.Fatalf("expected %q, got %q", "1\tgoodbye", out)
	}
}

func TestStore_Read(t *testing.T) {
	s := NewStore()
	s.Write("multi.txt", "alpha\nbeta\ngamma\ndelta")

	t.Run("full read numbers lines from 1", func(t *testing.T) {
		out, err := s.Read("multi.txt", 0, 0)
		if err != nil {
			t.Fatal(err)
		}
		want := "1\talpha\n2\tbeta\n3\tgamma\n4\tdelta"
		if out != want {
			t.Fatalf("expected %q, got %q", want, out)
		}
	})

	t.Run("offset window", func(t *testing.T) {
		out, err := s.Read("multi.txt", 1, 2)
		if err != nil {
			t.Fatal(err)
		}
		want := "2\tbeta\n3\tgamma"
		if out != want {
			t.Fatalf("expected %q, got %q", want, out)
		}
	})

	t.Run("offset past end is empty, not an error", func(t *testing.T) {
		out, err := s.Read("multi.txt", 100, 10)
		if err != nil {
			t.Fatal(err)
		}
		if out != "" {
			t.Fatalf("expected empty result, got %q", out)
		}
	})

	t.Run("negative offset rejected", func(t *testing.T) {
		if _, err := s.Read("multi.txt", -1, 0); err == nil {
			t.Fatal("expected error for negative offset")
		}
	})

	t.Run("missing path", func(t *testing.T) {
		_, err := s.Read("absent.txt", 0, 0)
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("empty file", func(t *testing.T) {
		s.Write("empty.txt", "")
		out, err := s.Read("empty.txt", 0, 0)
		if err != nil {
			t.Fatal(err)
		}
		if out != "" {
			t.Fatalf("expected empty result, got %q", out)
		}
	})

	t.Run("long lines truncated", func(t *testing.T) {
		s.Write("long.txt", strings.Repeat("x", 5000))
		out, err := s.Read("long.txt", 0, 0)
		if err != nil {
			t.Fatal(err)
		}
		if len(out) != len("1\t")+maxLineChars {
			t.Fatalf("expected line truncated to %d chars, got %d", maxLineChars, len(out))
		}
	})
}

func TestStore_Edit(t *testing.T) {
	t.Run("single match replaced, rest untouched", func(t *testing.T) {
		s := NewStore()
		s.Write("f.txt", "one hello two")

		n, err := s.Edit("f.txt", "hello", "HELLO", false)
		if err != nil {
			t.Fatal(err)
		}
		if n != 1 {
			t.Fatalf("expected 1 replacement, got %d", n)
		}
		content, _ := s.Get("f.txt")
		if content != "one HELLO two" {
			t.Fatalf("got %q", content)
		}
	})

	t.Run("second identical edit is NoMatch", func(t *testing.T) {
		s := NewStore()
		s.Write("notes.md", "hello")

		if _, err := s.Edit("notes.md", "hello", "HELLO", false); err != nil {
			t.Fatal(err)
		}
		content, _ := s.Get("notes.md")
		if content != "HELLO" {
			t.Fatalf("got %q", content)
		}

		_, err := s.Edit("notes.md", "hello", "HELLO", false)
		if !errors.Is(err, ErrNoMatch) {
			t.Fatalf("expected ErrNoMatch, got %v", err)
		}
	})

	t.Run("ambiguous match leaves file unchanged", func(t *testing.T) {
		s := NewStore()
		s.Write("f.txt", "aaa bbb aaa")

		_, err := s.Edit("f.txt", "aaa", "ccc", false)
		if !errors.Is(err, ErrAmbiguous) {
			t.Fatalf("expected ErrAmbiguous, got %v", err)
		}
		content, _ := s.Get("f.txt")
		if content != "aaa bbb aaa" {
			t.Fatalf("file changed on failed edit: %q", content)
		}
	})

	t.Run("replace_all replaces every occurrence", func(t *testing.T) {
		s := NewStore()
		s.Write("f.txt", "aaa bbb aaa")

		n, err := s.Edit("f.txt", "aaa", "ccc", true)
		if err != nil {
			t.Fatal(err)
		}
		if n != 2 {
			t.Fatalf("expected 2 replacements, got %d", n)
		}
		content, _ := s.Get("f.txt")
		if content != "ccc bbb ccc" {
			t.Fatalf("got %q", content)
		}
	})

	t.Run("missing path", func(t *testing.T) {
		s := NewStore()
		_, err := s.Edit("absent.txt", "a", "b", false)
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("empty old_string rejected", func(t *testing.T) {
		s := NewStore()
		s.Write("f.txt", "content")
		if _, err := s.Edit("f.txt", "", "x", false); err == nil {
			t.Fatal("expected error for empty old_string")
		}
	})
}

func TestStore_ConcurrentWrites(t *testing.T) {
	s := NewStore()
	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func(i int) {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				s.Write("shared.txt", "content")
				s.Read("shared.txt", 0, 0)
				s.List()
			}
		}(i)
	}
	for i := 0; i < 8; i++ {
		<-done
	}
	if content, err := s.Get("shared.txt"); err != nil || content != "content" {
		t.Fatalf("expected %q, got %q (err=%v)", "content", content, err)
	}
}
