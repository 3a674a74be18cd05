package stash

import (
	"context"
	"strings"

	"golang.org/x/net/idna"
)

// Confirmer decides whether a snapshot from another host may be applied.
type Confirmer interface {
	ConfirmOrigin(ctx context.Context, snapshotHost, currentHost string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, snapshotHost, currentHost string) (bool, error)

func (f ConfirmFunc) ConfirmOrigin(ctx context.Context, snapshotHost, currentHost string) (bool, error) {
	return f(ctx, snapshotHost, currentHost)
}

// AlwaysConfirm accepts every origin mismatch.
var AlwaysConfirm = ConfirmFunc(func(context.Context, string, string) (bool, error) {
	return true, nil
})

// NormalizeHost lower-cases a host and converts internationalised names
// to their ASCII form, so "BÜCHER.example." and "xn--bcher-kva.example"
// compare equal.
func NormalizeHost(host string) string {
	h := strings.TrimSuffix(strings.TrimSpace(host), ".")
	if ascii, err := idna.Lookup.ToASCII(h); err == nil {
		h = ascii
	}
	return strings.ToLower(h)
}

// SameHost compares two hosts after normalisation.
func SameHost(a, b string) bool {
	return NormalizeHost(a) == NormalizeHost(b)
}
