// Package stash is the entry point for exporting an environment into an
// artifact and importing an artifact back.
//
// Import runs in four steps: decode (format sniffing, decryption), origin
// check, dispatch to each adapter, and report. When the snapshot was
// captured on another host the caller's [Confirmer] is asked before
// anything is written; declining leaves the environment untouched.
//
//	out, err := stash.Import(ctx, env, data, stash.ImportOptions{
//	    Hint:      codec.FormatFromName(path),
//	    Password:  pw,
//	    Confirmer: prompt.NewConfirmer(),
//	})
//	if errors.Is(err, stash.ErrCancelled) {
//	    // user declined
//	}
package stash
