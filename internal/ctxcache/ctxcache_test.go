package ctxcache

import (
	stderrors "errors"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/conduit-lang/foundry/internal/emit"
	ferrors "github.com/conduit-lang/foundry/pkg/errors"
	"github.com/conduit-lang/foundry/pkg/key"
)

func TestSaveAndLoad(t *testing.T) {
	dir := emit.NewDir(t.TempDir(), false, nil)
	target := key.New("target", key.String, "linux")
	ipv4 := key.New("ipv4", key.Prefix, netip.Prefix{})
	port := key.New("port", key.Int, 80)
	keys := []key.AnyKey{target, ipv4, port}

	ctx := key.NewContext(target.Bind("freebsd"), ipv4.Bind(netip.MustParsePrefix("10.0.0.2/24")))
	require.NoError(t, Save(dir, ctx))

	data, err := dir.ReadFile(FileName)
	require.NoError(t, err)
	assert.Contains(t, string(data), `target = "freebsd"`)

	loaded, err := Load(dir, keys, nil)
	require.NoError(t, err)
	assert.Equal(t, "freebsd", target.Get(loaded))
	assert.Equal(t, netip.MustParsePrefix("10.0.0.2/24"), ipv4.Get(loaded))
	assert.False(t, loaded.Has(port))
}

func TestLoadMissingIsEmpty(t *testing.T) {
	dir := emit.NewDir(t.TempDir(), false, nil)
	ctx, err := Load(dir, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, ctx.Len())
}

func TestLoadIgnoresUnknownKeys(t *testing.T) {
	dir := emit.NewDir(t.TempDir(), false, nil)
	require.NoError(t, dir.WriteFile(FileName, []byte("removed = \"1\"\nport = \"8080\"\n")))
	port := key.New("port", key.Int, 80)

	core, logs := observer.New(zap.WarnLevel)
	ctx, err := Load(dir, []key.AnyKey{port}, zap.New(core))
	require.NoError(t, err)
	assert.Equal(t, 8080, port.Get(ctx))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "removed", logs.All()[0].ContextMap()["key"])
}

func TestLoadRejectsMalformedFiles(t *testing.T) {
	port := key.New("port", key.Int, 80)

	tests := map[string]string{
		"syntax":    "port = \n",
		"block":     "port {\n}\n",
		"bad value": "port = \"eighty\"\n",
		"not text":  "port = [1, 2]\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			dir := emit.NewDir(t.TempDir(), false, nil)
			require.NoError(t, dir.WriteFile(FileName, []byte(content)))
			_, err := Load(dir, []key.AnyKey{port}, nil)
			require.Error(t, err)
			assert.True(t, stderrors.Is(err, ferrors.ErrConfig))
		})
	}
}

func TestRemove(t *testing.T) {
	dir := emit.NewDir(t.TempDir(), false, nil)
	require.NoError(t, Save(dir, key.NewContext()))
	assert.True(t, dir.Exists(FileName))
	require.NoError(t, Remove(dir))
	assert.False(t, dir.Exists(FileName))
}
