package streamer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/grafana/dskit/backoff"
	"github.com/grafana/dskit/services"
	pkgerrors "github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/zachfi/sourcecast/pkg/source"
)

var module = "streamer"

var (
	metricSentBytes = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "sourcecast",
		Subsystem: module,
		Name:      "sent_bytes_total",
		Help:      "Encoded bytes delivered to the relay server.",
	})
	metricReconnects = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "sourcecast",
		Subsystem: module,
		Name:      "reconnects_total",
		Help:      "Connection attempts after a dropped session.",
	})
	metricMetadataUpdates = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "sourcecast",
		Subsystem: module,
		Name:      "metadata_updates_total",
		Help:      "Successful metadata updates pushed to the relay server.",
	})
)

// Streamer pushes already-encoded audio from a file or FIFO to a relay
// server. The library never reconnects or paces; this module owns both.
type Streamer struct {
	services.Service
	cfg    *Config
	logger *slog.Logger

	conn    *source.Conn
	connCfg source.ConnectionConfig

	in *os.File // current input, closed on stopping to unblock reads

	lastMeta      string
	lastMetaCheck time.Time
}

// New creates and returns a new.
func New(cfg Config, logger slog.Logger) (*Streamer, error) {
	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = defaultChunkSize
	}
	if cfg.MetadataInterval == 0 {
		cfg.MetadataInterval = defaultMetadataInterval
	}
	s := &Streamer{
		cfg:    &cfg,
		logger: logger.With("module", module),
	}

	s.Service = services.NewBasicService(s.starting, s.running, s.stopping)

	return s, nil
}

func (s *Streamer) starting(ctx context.Context) error {
	if s.cfg.Path == "" {
		return pkgerrors.New("streamer path is required")
	}

	connCfg, err := s.cfg.connectionConfig()
	if err != nil {
		s.logger.Error("invalid streamer config", "err", err)
		return err
	}
	s.connCfg = connCfg
	s.conn = source.NewConn()

	return nil
}

func (s *Streamer) running(ctx context.Context) error {
	b := backoff.New(ctx, backoff.Config{
		MinBackoff: s.cfg.ReconnectBackoff,
		MaxBackoff: s.cfg.ReconnectBackoffMax,
	})

	for b.Ongoing() {
		err := s.streamOnce(ctx)
		if err == nil || ctx.Err() != nil {
			// input exhausted or shutdown
			return nil
		}

		s.logger.Error("stream interrupted, reconnecting", "err", err, "retries", b.NumRetries())
		metricReconnects.Inc()
		b.Wait()
	}

	return b.Err()
}

// streamOnce opens the input and drives one full connection: connect,
// stream until the input ends or the session drops, close.
func (s *Streamer) streamOnce(ctx context.Context) error {
	in, err := os.Open(s.cfg.Path)
	if err != nil {
		return pkgerrors.Wrap(err, "open input")
	}
	s.in = in
	defer in.Close()

	if err := s.conn.Connect(s.connCfg); err != nil {
		return pkgerrors.Wrap(err, "connect")
	}
	defer func() {
		if s.conn.Status() == source.Connected {
			_ = s.conn.Close()
		}
	}()

	s.logger.Info("connected",
		"host", s.connCfg.Host,
		"port", s.connCfg.Port,
		"mount", s.connCfg.Mount,
		"protocol", s.connCfg.Protocol.String(),
		"icy_capable", s.conn.ICYCapable(),
	)

	pace := newPacer(s.cfg)
	buf := make([]byte, s.cfg.ChunkSize)

	for {
		if ctx.Err() != nil {
			return nil
		}

		s.maybeUpdateMetadata()

		n, rerr := in.Read(buf)
		if n > 0 {
			if _, werr := s.conn.Write(buf[:n]); werr != nil {
				return pkgerrors.Wrap(werr, "send")
			}
			metricSentBytes.Add(float64(n))
			pace.wait(n)
		}
		if rerr == io.EOF {
			s.logger.Info("input exhausted")
			return nil
		}
		if rerr != nil {
			if ctx.Err() != nil {
				return nil
			}
			return pkgerrors.Wrap(rerr, "read input")
		}
	}
}

// maybeUpdateMetadata polls the sidecar title file and pushes its first line
// when it changed since the last push. Skipped entirely for servers that
// rejected metadata capability during the handshake.
func (s *Streamer) maybeUpdateMetadata() {
	if s.cfg.MetadataPath == "" {
		return
	}
	if time.Since(s.lastMetaCheck) < s.cfg.MetadataInterval {
		return
	}
	s.lastMetaCheck = time.Now()

	b, err := os.ReadFile(s.cfg.MetadataPath)
	if err != nil {
		s.logger.Debug("metadata file unreadable", "err", err)
		return
	}
	song := strings.TrimSpace(strings.SplitN(string(b), "\n", 2)[0])
	if song == "" || song == s.lastMeta {
		return
	}
	if !s.conn.ICYCapable() {
		return
	}

	if err := s.conn.UpdateMetadata(source.Metadata{"song": song}, nil); err != nil {
		s.logger.Error("metadata update failed", "err", err)
		return
	}

	s.lastMeta = song
	metricMetadataUpdates.Inc()
	s.logger.Info("metadata updated", "song", song)
}

func (s *Streamer) stopping(_ error) error {
	s.logger.Info("stopping")

	var errs []error
	if s.in != nil {
		if err := s.in.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			errs = append(errs, err)
		}
	}
	if s.conn != nil && s.conn.Status() == source.Connected {
		if err := s.conn.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// pacer spaces writes so a regular-file input approximates the configured
// bitrate on the wire. FIFO inputs arrive pre-paced and run with a nil pacer.
type pacer struct {
	bytesPerSec float64
	next        time.Time
}

func newPacer(cfg *Config) *pacer {
	if !cfg.Pace || cfg.Bitrate <= 0 {
		return nil
	}
	return &pacer{bytesPerSec: float64(cfg.Bitrate) * 1000 / 8}
}

func (p *pacer) wait(n int) {
	if p == nil {
		return
	}
	now := time.Now()
	if p.next.IsZero() {
		p.next = now
	}
	p.next = p.next.Add(time.Duration(float64(n) / p.bytesPerSec * float64(time.Second)))
	if d := p.next.Sub(now); d > 0 {
		time.Sleep(d)
	}
}
