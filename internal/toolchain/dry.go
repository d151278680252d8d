package toolchain

import (
	"context"

	"go.uber.org/zap"

	"github.com/conduit-lang/foundry/pkg/device"
)

// Dry logs the commands it would run and runs none of them. Listings are
// empty.
type Dry struct {
	Log *zap.Logger
}

var _ device.Toolchain = Dry{}

func (d Dry) log() *zap.Logger {
	if d.Log == nil {
		return zap.NewNop()
	}
	return d.Log
}

func (d Dry) Tidy(_ context.Context, dir string) error {
	d.log().Info("would run", zap.String("command", "go mod tidy"), zap.String("dir", dir))
	return nil
}

func (d Dry) Build(_ context.Context, dir, output string, env []string) error {
	d.log().Info("would run", zap.String("command", "go build -o "+output+" ."),
		zap.String("dir", dir), zap.Strings("env", env))
	return nil
}

func (d Dry) ListModules(_ context.Context, dir string) ([]device.Module, error) {
	d.log().Info("would run", zap.String("command", "go list -m -json all"), zap.String("dir", dir))
	return nil, nil
}

func (d Dry) ListPackages(_ context.Context, dir string) ([]string, error) {
	d.log().Info("would run", zap.String("command", "go list -deps"), zap.String("dir", dir))
	return nil, nil
}
