package streamer

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zachfi/sourcecast/pkg/source"
)

func TestRegisterFlagsAndApplyDefaults(t *testing.T) {
	cfg := Config{}
	fs := flag.NewFlagSet("test", flag.PanicOnError)
	cfg.RegisterFlagsAndApplyDefaults("streamer", fs)
	require.NoError(t, fs.Parse(nil))

	assert.Equal(t, source.DefaultHost, cfg.Host)
	assert.Equal(t, source.DefaultPort, cfg.Port)
	assert.Equal(t, "http", cfg.Protocol)
	assert.Equal(t, string(source.Mpeg), cfg.ContentType)
	assert.Equal(t, defaultChunkSize, cfg.ChunkSize)
	assert.Equal(t, defaultReconnectInitial, cfg.ReconnectBackoff)
	assert.Equal(t, defaultReconnectMax, cfg.ReconnectBackoffMax)
	assert.Equal(t, defaultMetadataInterval, cfg.MetadataInterval)
}

func TestConnectionConfig(t *testing.T) {
	cfg := Config{
		Host:        "relay.example.com",
		Port:        8010,
		Mount:       "/live",
		User:        "source",
		Password:    "pw",
		Protocol:    "icy",
		ContentType: "audio/aacp",
		Name:        "night radio",
		Bitrate:     96,
	}

	cc, err := cfg.connectionConfig()
	require.NoError(t, err)
	assert.Equal(t, source.ICY, cc.Protocol)
	assert.Equal(t, "relay.example.com", cc.Host)
	assert.Equal(t, source.AACPlus, cc.ContentType)

	v, ok := cc.Headers.Get("icy-name")
	require.True(t, ok)
	assert.Equal(t, "night radio", v)
	v, _ = cc.Headers.Get("icy-br")
	assert.Equal(t, "96", v)
}

func TestConnectionConfigUnknownProtocol(t *testing.T) {
	cfg := Config{Protocol: "rtmp"}
	_, err := cfg.connectionConfig()
	require.Error(t, err)
}

func TestConnectionConfigDefaultsContentType(t *testing.T) {
	cfg := Config{Mount: "/live"}
	cc, err := cfg.connectionConfig()
	require.NoError(t, err)
	assert.Equal(t, source.Mpeg, cc.ContentType)
	assert.Equal(t, source.HTTP, cc.Protocol)
}
