// FILE: lixenwraith/blockconf/decode_test.go
package blockconf

import (
	"net"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type networkConf struct {
	Servers []string      `conf:"server"`
	Timeout time.Duration `conf:"timeout"`
	Bind    net.IP        `conf:"bind"`
	Allow   *net.IPNet    `conf:"allow"`
}

type userConf struct {
	Nick     string                 `conf:"nick"`
	Admin    bool                   `conf:"admin"`
	MaxConns int                    `conf:"max_conns"`
	Networks map[string]networkConf `conf:"network"`
}

type appConf struct {
	Listen  []string            `conf:"listen"`
	Modules []string            `conf:"loadmodule"`
	Webhook *url.URL            `conf:"webhook"`
	Users   map[string]userConf `conf:"user"`
}

func TestDecode(t *testing.T) {
	root, err := ParseString(`
Listen = 0.0.0.0:6697
LoadModule = webadmin
LoadModule = log
Webhook = https://example.com/hook?x=1
<User alice>
	Nick = alice
	Admin = true
	Max_Conns = 12
	<Network libera>
		Server = irc.libera.chat +6697
		Server = irc.eu.libera.chat +6697
		Timeout = 30s
		Bind = 192.0.2.10
		Allow = 10.0.0.0/8
	</Network>
</User>
`)
	require.NoError(t, err)

	var cfg appConf
	require.NoError(t, root.Decode(&cfg))

	assert.Equal(t, []string{"0.0.0.0:6697"}, cfg.Listen)
	assert.Equal(t, []string{"webadmin", "log"}, cfg.Modules)
	require.NotNil(t, cfg.Webhook)
	assert.Equal(t, "example.com", cfg.Webhook.Host)

	require.Contains(t, cfg.Users, "alice")
	alice := cfg.Users["alice"]
	assert.Equal(t, "alice", alice.Nick)
	assert.True(t, alice.Admin)
	assert.Equal(t, 12, alice.MaxConns)

	require.Contains(t, alice.Networks, "libera")
	libera := alice.Networks["libera"]
	assert.Equal(t, []string{"irc.libera.chat +6697", "irc.eu.libera.chat +6697"}, libera.Servers)
	assert.Equal(t, 30*time.Second, libera.Timeout)
	assert.Equal(t, "192.0.2.10", libera.Bind.String())
	require.NotNil(t, libera.Allow)
	assert.Equal(t, "10.0.0.0/8", libera.Allow.String())
}

func TestDecodeErrors(t *testing.T) {
	t.Run("NonPointerTarget", func(t *testing.T) {
		var cfg appConf
		err := NewScope().Decode(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "non-nil pointer")
	})

	t.Run("InvalidIP", func(t *testing.T) {
		root, err := ParseString("bind = not-an-ip\n")
		require.NoError(t, err)
		var target networkConf
		assert.Error(t, root.Decode(&target))
	})

	t.Run("InvalidDuration", func(t *testing.T) {
		root, err := ParseString("timeout = soon\n")
		require.NoError(t, err)
		var target networkConf
		assert.Error(t, root.Decode(&target))
	})
}

func TestDecodeWithTag(t *testing.T) {
	type tagged struct {
		Name string `toml:"name"`
	}
	root, err := ParseString("Name = x\n")
	require.NoError(t, err)

	var target tagged
	require.NoError(t, root.DecodeWithTag("toml", &target))
	assert.Equal(t, "x", target.Name)
}

func TestDecodeIntoMap(t *testing.T) {
	root, err := ParseString("a = 1\na = 2\nb = 3\n")
	require.NoError(t, err)

	target := map[string]any{}
	require.NoError(t, root.Decode(&target))
	assert.Equal(t, []string{"1", "2"}, target["a"])
	assert.Equal(t, "3", target["b"])
}
