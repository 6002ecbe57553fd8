// Package configure implements commands mutating user export settings. Every
// successful mutation is persisted immediately.
package configure

import (
	"context"
	"fmt"
	"io"
	"os"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"richcopy/common"
	"richcopy/settings"
	"richcopy/state"
)

// out is where listings go, replaced in tests.
var out io.Writer = os.Stdout

func args(cmd *cli.Command, n int, usage string) ([]string, error) {
	if cmd.Args().Len() < n {
		return nil, fmt.Errorf("not enough arguments, expected %s", usage)
	}
	if cmd.Args().Len() > n {
		return nil, fmt.Errorf("too many arguments, expected %s", usage)
	}
	return cmd.Args().Slice(), nil
}

// mutate applies change to current settings and saves them. Settings stay
// untouched when change or save fails.
func mutate(ctx context.Context, change func(*settings.ExportSettings) error) error {
	env := state.EnvFromContext(ctx)

	current := env.Settings
	if current == nil {
		current = settings.Defaults()
	}
	next := current.Clone()
	if err := change(next); err != nil {
		return err
	}
	env.Settings = next
	if err := env.SaveSettings(); err != nil {
		env.Settings = current
		return fmt.Errorf("unable to save settings: %w", err)
	}
	return nil
}

func ListProfiles(ctx context.Context, _ *cli.Command) error {
	env := state.EnvFromContext(ctx)

	s := env.Settings
	if s == nil {
		s = settings.Defaults()
	}
	mark := func(name string) string {
		if name == s.ActiveProfileName || (name == settings.DefaultProfileName && s.IsDefault()) {
			return "*"
		}
		return " "
	}
	fmt.Fprintf(out, "%s %s\t(ambient theme)\n", mark(settings.DefaultProfileName), settings.DefaultProfileName)
	for _, p := range s.Profiles {
		fmt.Fprintf(out, "%s %s\t%s\n", mark(p.Name), p.Name, p.Path)
	}
	fmt.Fprintf(out, "images: %s\n", s.ImageHandling)
	return nil
}

func AddProfile(ctx context.Context, cmd *cli.Command) error {
	a, err := args(cmd, 2, "NAME PATH")
	if err != nil {
		return err
	}
	if err := mutate(ctx, func(s *settings.ExportSettings) error { return s.AddProfile(a[0], a[1]) }); err != nil {
		return err
	}
	state.EnvFromContext(ctx).Log.Info("Profile added", zap.String("name", a[0]), zap.String("path", a[1]))
	return nil
}

func RemoveProfile(ctx context.Context, cmd *cli.Command) error {
	a, err := args(cmd, 1, "NAME")
	if err != nil {
		return err
	}
	if err := mutate(ctx, func(s *settings.ExportSettings) error { return s.RemoveProfile(a[0]) }); err != nil {
		return err
	}
	state.EnvFromContext(ctx).Log.Info("Profile removed", zap.String("name", a[0]))
	return nil
}

func RenameProfile(ctx context.Context, cmd *cli.Command) error {
	a, err := args(cmd, 2, "OLD NEW")
	if err != nil {
		return err
	}
	if err := mutate(ctx, func(s *settings.ExportSettings) error { return s.RenameProfile(a[0], a[1]) }); err != nil {
		return err
	}
	state.EnvFromContext(ctx).Log.Info("Profile renamed", zap.String("from", a[0]), zap.String("to", a[1]))
	return nil
}

func SetProfilePath(ctx context.Context, cmd *cli.Command) error {
	a, err := args(cmd, 2, "NAME PATH")
	if err != nil {
		return err
	}
	if err := mutate(ctx, func(s *settings.ExportSettings) error { return s.SetProfilePath(a[0], a[1]) }); err != nil {
		return err
	}
	state.EnvFromContext(ctx).Log.Info("Profile path changed", zap.String("name", a[0]), zap.String("path", a[1]))
	return nil
}

func SelectProfile(ctx context.Context, cmd *cli.Command) error {
	a, err := args(cmd, 1, "NAME")
	if err != nil {
		return err
	}
	if err := mutate(ctx, func(s *settings.ExportSettings) error { return s.Select(a[0]) }); err != nil {
		return err
	}
	state.EnvFromContext(ctx).Log.Info("Profile selected", zap.String("name", a[0]))
	return nil
}

// Images returns action switching image handling mode.
func Images(mode common.ImageHandling) cli.ActionFunc {
	return func(ctx context.Context, _ *cli.Command) error {
		if err := mutate(ctx, func(s *settings.ExportSettings) error { return s.SetImageHandling(mode) }); err != nil {
			return err
		}
		state.EnvFromContext(ctx).Log.Info("Image handling changed", zap.Stringer("mode", mode))
		return nil
	}
}
