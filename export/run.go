package export

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"richcopy/assets"
	"richcopy/clipboard"
	"richcopy/common"
	"richcopy/config"
	"richcopy/inline"
	"richcopy/markup"
	"richcopy/sandbox"
	"richcopy/sandbox/chrome"
	"richcopy/sandbox/static"
	"richcopy/settings"
	"richcopy/state"
	"richcopy/style"
	"richcopy/vault"
)

// Run is "export" command action.
func Run(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log

	doc := cmd.Args().Get(0)
	if len(doc) == 0 {
		return errors.New("no document has been specified")
	}
	doc, err := filepath.Abs(doc)
	if err != nil {
		return err
	}
	if cmd.Args().Len() > 1 {
		log.Warn("Malformed command line, too many documents", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}

	// command line overrides, configuration itself is left intact
	cfg := *env.Cfg
	if cmd.IsSet("engine") {
		if cfg.Sandbox.Engine, err = common.ParseEngine(cmd.String("engine")); err != nil {
			return err
		}
	}
	if cmd.IsSet("out") {
		cfg.Clipboard.OutputDir = cmd.String("out")
		cfg.Clipboard.Sink = common.ClipboardSinkFile
	}
	if cmd.IsSet("sink") {
		if cfg.Clipboard.Sink, err = common.ParseClipboardSink(cmd.String("sink")); err != nil {
			return err
		}
	}

	root := cfg.Vault.Root
	if len(root) == 0 {
		root = filepath.Dir(doc)
	}

	exp, err := Build(&cfg, root, env.Rpt, log)
	if err != nil {
		return err
	}
	log.Debug("Exporting", zap.String("document", doc), zap.String("vault", root),
		zap.Stringer("engine", cfg.Sandbox.Engine), zap.Stringer("sink", cfg.Clipboard.Sink))

	es := settings.Defaults()
	if env.Settings != nil {
		es = env.Settings.Clone()
	}
	return exp.Export(ctx, doc, es)
}

// Build assembles export pipeline over the vault at root according to
// configuration.
func Build(cfg *config.Config, root string, rpt *config.Report, log *zap.Logger) (*Exporter, error) {
	v, err := vault.New(root, log)
	if err != nil {
		return nil, err
	}

	var engine sandbox.Engine
	switch cfg.Sandbox.Engine {
	case common.EngineChrome:
		engine = chrome.New(cfg.Sandbox.Chrome.ControlURL.Value(), cfg.Sandbox.Chrome.Bin, log)
	case common.EngineStatic:
		engine = static.New(log)
	default:
		return nil, fmt.Errorf("unsupported rendering engine: %s", cfg.Sandbox.Engine)
	}

	theme := style.NewTheme(&cfg.Theme, v, log)
	sb := sandbox.New(engine, markup.NewMarkdown(cfg.Markup.CopyButtons, log), sandbox.Options{
		BodyClasses:    theme.BodyClasses(),
		ContainerClass: theme.ContainerClass(),
		LoadTimeout:    cfg.Sandbox.LoadTimeout,
		Properties:     inline.Whitelist.Properties(),
	}, log)

	inl, err := inline.New(cfg.Inline.Affordances, log)
	if err != nil {
		return nil, err
	}

	wr, err := clipboard.New(clipboard.Options{
		Sink:         cfg.Clipboard.Sink,
		OutputDir:    cfg.Clipboard.OutputDir,
		NameTemplate: cfg.Clipboard.OutputNameTemplate,
		Sanitize:     cfg.Clipboard.Sanitize,
	}, log)
	if err != nil {
		return nil, err
	}

	res := assets.NewResolver(v, assets.Options{
		Workers:      cfg.Images.Workers,
		MaxWidth:     cfg.Images.MaxWidth,
		JPEGQuality:  cfg.Images.JPEGQuality,
		RasterizeSVG: cfg.Images.RasterizeSVG,
	}, log)

	return New(v, style.NewAggregator(v, theme, log), res, sb, inl, wr, log, WithReport(rpt)), nil
}
