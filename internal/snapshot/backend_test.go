package snapshot

import (
	"testing"

	"github.com/thoreinstein/webstash/internal/errors"
)

func TestParseBackend(t *testing.T) {
	tests := []struct {
		in      string
		want    Backend
		wantErr bool
	}{
		{in: "localStorage", want: LocalStorage},
		{in: "LOCALSTORAGE", want: LocalStorage},
		{in: "local", want: LocalStorage},
		{in: " session ", want: SessionStorage},
		{in: "cookie", want: Cookies},
		{in: "cookies", want: Cookies},
		{in: "idb", want: IndexedDB},
		{in: "indexeddb", want: IndexedDB},
		{in: "cache", want: CacheStorage},
		{in: "sw", want: ServiceWorkers},
		{in: "webSQL", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseBackend(tt.in)
			if tt.wantErr {
				if !errors.Is(err, errors.ErrInvalidBackend) {
					t.Errorf("ParseBackend(%q) error = %v, want ErrInvalidBackend", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseBackend(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseBackend(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseBackends(t *testing.T) {
	all, err := ParseBackends(nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != len(AllBackends()) {
		t.Errorf("empty list selected %d backends, want %d", len(all), len(AllBackends()))
	}

	got, err := ParseBackends([]string{"cookie", "local", "cookies"})
	if err != nil {
		t.Fatal(err)
	}
	want := []Backend{Cookies, LocalStorage}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if _, err := ParseBackends([]string{"local", "bogus"}); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestBackend_Valid(t *testing.T) {
	for _, b := range AllBackends() {
		if !b.Valid() {
			t.Errorf("%q should be valid", b)
		}
	}
	if Backend("nope").Valid() {
		t.Error("unknown backend reported valid")
	}
}
