package streamer

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/zachfi/zkit/pkg/util"

	"github.com/zachfi/sourcecast/pkg/source"
)

const (
	defaultChunkSize        = 4096
	defaultReconnectInitial = 5 * time.Second
	defaultReconnectMax     = 60 * time.Second
	defaultMetadataInterval = 10 * time.Second
)

type Config struct {
	Host        string `yaml:"host,omitempty"`
	Port        int    `yaml:"port,omitempty"`
	Mount       string `yaml:"mount,omitempty"`
	User        string `yaml:"user,omitempty"`
	Password    string `yaml:"password,omitempty"`
	Protocol    string `yaml:"protocol,omitempty"`     // http or icy
	ContentType string `yaml:"content-type,omitempty"` // MIME type of the input

	Path string `yaml:"path,omitempty"` // file or FIFO of already-encoded audio

	Name        string `yaml:"name,omitempty"`
	Genre       string `yaml:"genre,omitempty"`
	URL         string `yaml:"url,omitempty"`
	Description string `yaml:"description,omitempty"`
	Public      bool   `yaml:"public,omitempty"`
	Bitrate     int    `yaml:"bitrate,omitempty"` // kbit/s, announced and used for pacing
	SampleRate  int    `yaml:"sample-rate,omitempty"`
	Channels    int    `yaml:"channels,omitempty"`

	ChunkSize           int           `yaml:"chunk-size,omitempty"`
	Pace                bool          `yaml:"pace,omitempty"`                  // space writes to match the bitrate
	ReconnectBackoff    time.Duration `yaml:"reconnect-backoff,omitempty"`     // initial delay before reconnecting
	ReconnectBackoffMax time.Duration `yaml:"reconnect-backoff-max,omitempty"` // cap on reconnect delay

	MetadataPath     string        `yaml:"metadata-path,omitempty"`     // sidecar file holding the current title
	MetadataInterval time.Duration `yaml:"metadata-interval,omitempty"` // how often to poll metadata-path
}

func (cfg *Config) RegisterFlagsAndApplyDefaults(prefix string, f *flag.FlagSet) {
	f.StringVar(&cfg.Host, util.PrefixConfig(prefix, "host"), source.DefaultHost, "The relay server host")
	f.IntVar(&cfg.Port, util.PrefixConfig(prefix, "port"), source.DefaultPort, "The relay server port")
	f.StringVar(&cfg.Mount, util.PrefixConfig(prefix, "mount"), "", "The mount point to stream to")
	f.StringVar(&cfg.User, util.PrefixConfig(prefix, "user"), source.DefaultUser, "The source user")
	f.StringVar(&cfg.Password, util.PrefixConfig(prefix, "password"), source.DefaultPassword, "The source password")
	f.StringVar(&cfg.Protocol, util.PrefixConfig(prefix, "protocol"), "http", "The source protocol, http (icecast2) or icy (shoutcast)")
	f.StringVar(&cfg.ContentType, util.PrefixConfig(prefix, "content-type"), string(source.Mpeg), "MIME type of the input data")
	f.StringVar(&cfg.Path, util.PrefixConfig(prefix, "path"), "", "The file or FIFO to read encoded audio from")
	f.StringVar(&cfg.Name, util.PrefixConfig(prefix, "name"), "", "Stream name announced to the server")
	f.StringVar(&cfg.Genre, util.PrefixConfig(prefix, "genre"), "", "Stream genre announced to the server")
	f.StringVar(&cfg.URL, util.PrefixConfig(prefix, "url"), "", "Stream homepage announced to the server")
	f.StringVar(&cfg.Description, util.PrefixConfig(prefix, "description"), "", "Stream description announced to the server")
	f.BoolVar(&cfg.Public, util.PrefixConfig(prefix, "public"), false, "Whether the server should list the stream in directories")
	f.IntVar(&cfg.Bitrate, util.PrefixConfig(prefix, "bitrate"), 0, "Stream bitrate in kbit/s, announced and used for pacing")
	f.IntVar(&cfg.SampleRate, util.PrefixConfig(prefix, "sample-rate"), 0, "Stream sample rate announced to the server")
	f.IntVar(&cfg.Channels, util.PrefixConfig(prefix, "channels"), 0, "Stream channel count announced to the server")
	f.IntVar(&cfg.ChunkSize, util.PrefixConfig(prefix, "chunk-size"), defaultChunkSize, "Bytes to read and send per write")
	f.BoolVar(&cfg.Pace, util.PrefixConfig(prefix, "pace"), false, "Space writes to match the configured bitrate (for file input; FIFOs pace themselves)")
	f.DurationVar(&cfg.ReconnectBackoff, util.PrefixConfig(prefix, "reconnect-backoff"), defaultReconnectInitial,
		"Initial delay before reconnecting after a dropped connection. Exponential backoff is used up to reconnect-backoff-max.")
	f.DurationVar(&cfg.ReconnectBackoffMax, util.PrefixConfig(prefix, "reconnect-backoff-max"), defaultReconnectMax,
		"Maximum delay between reconnection attempts.")
	f.StringVar(&cfg.MetadataPath, util.PrefixConfig(prefix, "metadata-path"), "", "File holding the current track title; first line is pushed as song metadata when it changes")
	f.DurationVar(&cfg.MetadataInterval, util.PrefixConfig(prefix, "metadata-interval"), defaultMetadataInterval, "How often to poll metadata-path for changes")
}

// connectionConfig renders the module config into the library's form.
func (cfg *Config) connectionConfig() (source.ConnectionConfig, error) {
	var proto source.Protocol
	switch strings.ToLower(cfg.Protocol) {
	case "", "http":
		proto = source.HTTP
	case "icy":
		proto = source.ICY
	default:
		return source.ConnectionConfig{}, fmt.Errorf("unknown protocol %q", cfg.Protocol)
	}

	desc := source.StreamDescription{
		Name:        cfg.Name,
		Genre:       cfg.Genre,
		URL:         cfg.URL,
		Public:      cfg.Public,
		Description: cfg.Description,
	}
	if cfg.Bitrate > 0 || cfg.SampleRate > 0 || cfg.Channels > 0 {
		desc.AudioInfo = &source.AudioInfo{
			SampleRate: cfg.SampleRate,
			Channels:   cfg.Channels,
			Bitrate:    cfg.Bitrate,
		}
	}

	ct := cfg.ContentType
	if ct == "" {
		ct = string(source.Mpeg)
	}

	return source.ConnectionConfig{
		Mount:       cfg.Mount,
		User:        cfg.User,
		Password:    cfg.Password,
		Host:        cfg.Host,
		Port:        cfg.Port,
		ContentType: source.ContentTypeOfString(ct),
		Protocol:    proto,
		Headers:     desc.Headers(proto),
	}, nil
}
