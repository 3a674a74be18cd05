package stash

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/thoreinstein/webstash/internal/adapter"
	"github.com/thoreinstein/webstash/internal/codec"
	"github.com/thoreinstein/webstash/internal/errors"
	"github.com/thoreinstein/webstash/internal/logging"
	"github.com/thoreinstein/webstash/internal/snapshot"
	"github.com/thoreinstein/webstash/internal/storage"
)

// DefaultAgent is recorded in snapshots when ExportOptions.Agent is empty.
const DefaultAgent = "webstash"

// ErrCancelled indicates the origin mismatch was not confirmed.
var ErrCancelled = errors.New("import cancelled")

// ExportOptions controls Export.
type ExportOptions struct {
	// Backends to capture; empty means all.
	Backends []snapshot.Backend

	Compress bool
	Encrypt  bool
	Password string

	// Agent names the capturing program.
	Agent string

	// Compressor overrides the codec default.
	Compressor codec.Compressor

	// Now overrides the capture clock.
	Now func() time.Time
}

// Artifact is an encoded export ready to be written somewhere.
type Artifact struct {
	Data     []byte
	Format   codec.Format
	Suffix   string
	Size     codec.SizeInfo
	Meta     snapshot.Meta
	Captured []adapter.Result
}

// Export captures env and encodes the snapshot.
func Export(ctx context.Context, env storage.Environment, opts ExportOptions) (*Artifact, error) {
	if opts.Encrypt && opts.Password == "" {
		return nil, codec.ErrPasswordRequired
	}

	origin, err := env.Origin(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "resolving origin")
	}

	backends := opts.Backends
	if len(backends) == 0 {
		backends = snapshot.AllBackends()
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	agent := opts.Agent
	if agent == "" {
		agent = DefaultAgent
	}

	meta := snapshot.Meta{
		Host:       origin.Host,
		Path:       origin.Path,
		ExportedAt: now().UTC(),
		Version:    snapshot.Version,
		Agent:      agent,
		UserAgent:  origin.UserAgent,
		ID:         uuid.NewString(),
		Backends:   backends,
	}

	s, captured := adapter.Capture(ctx, meta, adapter.For(env, backends...))

	c, err := codec.Encode(s, codec.EncodeOptions{
		Compress:   opts.Compress,
		Encrypt:    opts.Encrypt,
		Password:   opts.Password,
		Compressor: opts.Compressor,
	})
	if err != nil {
		return nil, errors.Wrap(err, "encoding snapshot")
	}

	logger := logging.FromContext(ctx)
	if c.Size.CompressionFallback {
		logger.Warn("compression failed, artifact stored uncompressed", slog.String("host", meta.Host))
	}
	logger.Info("snapshot exported",
		slog.String("host", meta.Host),
		slog.String("id", meta.ID),
		slog.String("format", c.Format.String()),
		slog.Int("items", adapter.Total(captured)),
		slog.Int("bytes", c.Size.Final),
	)

	return &Artifact{
		Data:     c.Data,
		Format:   c.Format,
		Suffix:   c.Format.Suffix(),
		Size:     c.Size,
		Meta:     meta,
		Captured: captured,
	}, nil
}

// Status is the terminal state of an import.
type Status int

// Import states.
const (
	StatusSucceeded Status = iota + 1
	StatusCancelled
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusSucceeded:
		return "succeeded"
	case StatusCancelled:
		return "cancelled"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ImportOptions controls Import.
type ImportOptions struct {
	// Hint is the format suggested by the caller, usually from a file name.
	Hint codec.Format

	Password string

	// Backends to restore; empty means all.
	Backends []snapshot.Backend

	// Confirmer is asked on origin mismatch. Nil declines.
	Confirmer Confirmer
}

// Outcome reports an import.
type Outcome struct {
	Status    Status
	Total     int
	Breakdown []adapter.Result
	Meta      snapshot.Meta
	Format    codec.Format
	Err       error
}

// Import decodes data and restores it into env.
//
// Decode failures return StatusFailed with an error wrapping
// codec.ErrDecryption, codec.ErrFormat or codec.ErrPasswordRequired. A
// declined origin check returns StatusCancelled and ErrCancelled.
// Individual item failures never fail the import; they are listed in the
// breakdown.
func Import(ctx context.Context, env storage.Environment, data []byte, opts ImportOptions) (*Outcome, error) {
	logger := logging.FromContext(ctx)

	dec, err := codec.Decode(data, codec.DecodeOptions{Hint: opts.Hint, Password: opts.Password})
	if err != nil {
		err = errors.Wrap(err, "decoding artifact")
		return &Outcome{Status: StatusFailed, Err: err}, err
	}

	out := &Outcome{Meta: dec.Snapshot.Meta, Format: dec.Format}

	if host := dec.Snapshot.Meta.Host; host != "" {
		origin, err := env.Origin(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "resolving origin")
		}
		if !SameHost(host, origin.Host) {
			ok, err := confirm(ctx, opts.Confirmer, host, origin.Host)
			if err != nil || !ok {
				if err == nil {
					err = errors.Wrapf(ErrCancelled, "snapshot from %s, current host %s", host, origin.Host)
				} else {
					err = errors.Mark(errors.Wrap(err, "confirming origin"), ErrCancelled)
				}
				out.Status = StatusCancelled
				out.Err = err
				logger.Info("import cancelled", slog.String("host", host), slog.String("current", origin.Host))
				return out, err
			}
		}
	}

	backends := opts.Backends
	if len(backends) == 0 {
		backends = snapshot.AllBackends()
	}
	for _, a := range adapter.For(env, backends...) {
		res := a.Restore(ctx, dec.Snapshot)
		out.Breakdown = append(out.Breakdown, res)
		out.Total += res.Written
		if len(res.Skipped) > 0 {
			logger.Warn("some items were not restored",
				slog.String("backend", string(res.Backend)),
				slog.Int("skipped", len(res.Skipped)),
			)
		}
	}

	out.Status = StatusSucceeded
	logger.Info("snapshot imported",
		slog.String("host", out.Meta.Host),
		slog.String("format", out.Format.String()),
		slog.Int("items", out.Total),
	)
	return out, nil
}

func confirm(ctx context.Context, c Confirmer, snapshotHost, currentHost string) (bool, error) {
	if c == nil {
		return false, nil
	}
	return c.ConfirmOrigin(ctx, snapshotHost, currentHost)
}

// Count is the number of items one backend currently holds.
type Count struct {
	Backend snapshot.Backend
	Items   int
	Err     error
}

// Summary counts items per backend in env. Empty backends means all.
func Summary(ctx context.Context, env storage.Environment, backends []snapshot.Backend) []Count {
	adapters := adapter.For(env, backends...)
	out := make([]Count, 0, len(adapters))
	for _, a := range adapters {
		n, err := a.Count(ctx)
		out = append(out, Count{Backend: a.Backend(), Items: n, Err: err})
	}
	return out
}

// Clear empties the given backends of env. Empty backends means all.
func Clear(ctx context.Context, env storage.Environment, backends []snapshot.Backend) []adapter.Result {
	adapters := adapter.For(env, backends...)
	out := make([]adapter.Result, 0, len(adapters))
	for _, a := range adapters {
		out = append(out, a.Clear(ctx))
	}
	return out
}
