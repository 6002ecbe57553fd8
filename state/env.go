// Package state defines shared program state.
package state

import (
	"context"
	"time"

	"go.uber.org/zap"

	"richcopy/config"
	"richcopy/settings"
)

type envKey struct{}

// LocalEnv keeps everything program needs in a single place.
type LocalEnv struct {
	Cfg *config.Config
	Rpt *config.Report
	Log *zap.Logger

	// Store persists user export settings, Settings is a snapshot loaded
	// once at startup and handed to every export explicitly.
	Store    settings.Store
	Settings *settings.ExportSettings

	start         time.Time
	restoreStdLog func()
}

func newLocalEnv() *LocalEnv {
	return &LocalEnv{start: time.Now()}
}

func EnvFromContext(ctx context.Context) *LocalEnv {
	if env, ok := ctx.Value(envKey{}).(*LocalEnv); ok {
		return env
	}
	// this should never happen
	panic("localenv not found in context")
}

func ContextWithEnv(ctx context.Context) context.Context {
	return context.WithValue(ctx, envKey{}, newLocalEnv())
}

func (e *LocalEnv) Uptime() time.Duration {
	return time.Since(e.start)
}

// SaveSettings persists current settings snapshot. Configuration commands
// call it after every mutation.
func (e *LocalEnv) SaveSettings() error {
	if e.Store == nil || e.Settings == nil {
		return nil
	}
	return e.Store.Save(e.Settings)
}

func (e *LocalEnv) RedirectStdLog() {
	if e.Log == nil {
		return
	}
	e.restoreStdLog = zap.RedirectStdLog(e.Log)
}

func (e *LocalEnv) RestoreStdLog() {
	if e.Log != nil {
		_ = e.Log.Sync()
	}
	if e.restoreStdLog != nil {
		e.restoreStdLog()
	}
}
