package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"

	"richcopy/common"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	TemplateFieldName string

	VaultConfig struct {
		// Root is the content root all document and asset paths are relative
		// to. Empty means directory of the exported document.
		Root string `yaml:"root"`
	}

	SettingsConfig struct {
		// Path to user settings file (YAML or JSON). Empty means default
		// location under user configuration directory.
		Path string `yaml:"path"`
	}

	ThemeConfig struct {
		Builtin        bool     `yaml:"builtin"`
		Stylesheets    []string `yaml:"stylesheets" validate:"dive,required"`
		Snippets       []string `yaml:"snippets" validate:"dive,required"`
		BodyClasses    []string `yaml:"body_classes" validate:"dive,required"`
		ContainerClass string   `yaml:"container_class" validate:"required"`
	}

	ImagesConfig struct {
		Workers      int  `yaml:"workers" validate:"gte=0"`
		MaxWidth     int  `yaml:"max_width" validate:"gte=0"`
		JPEGQuality  int  `yaml:"jpeg_quality" validate:"min=40,max=100"`
		RasterizeSVG bool `yaml:"rasterize_svg"`
	}

	MarkupConfig struct {
		CopyButtons bool `yaml:"copy_buttons"`
	}

	ChromeConfig struct {
		// ControlURL of already running browser, when empty local browser is launched.
		ControlURL SecretString `yaml:"control_url"`
		Bin        string       `yaml:"bin"`
	}

	SandboxConfig struct {
		Engine      common.Engine `yaml:"engine"`
		LoadTimeout time.Duration `yaml:"load_timeout" validate:"gt=0"`
		Chrome      ChromeConfig  `yaml:"chrome"`
	}

	InlineConfig struct {
		Affordances []string `yaml:"affordances" validate:"dive,required"`
	}

	ClipboardConfig struct {
		Sink               common.ClipboardSink `yaml:"sink"`
		OutputDir          string               `yaml:"output_dir"`
		OutputNameTemplate string               `yaml:"output_name_template" validate:"required"`
		Sanitize           bool                 `yaml:"sanitize"`
	}

	Config struct {
		Version   int             `yaml:"version" validate:"eq=1"`
		Vault     VaultConfig     `yaml:"vault"`
		Settings  SettingsConfig  `yaml:"settings"`
		Theme     ThemeConfig     `yaml:"theme"`
		Images    ImagesConfig    `yaml:"images"`
		Markup    MarkupConfig    `yaml:"markup"`
		Sandbox   SandboxConfig   `yaml:"sandbox"`
		Inline    InlineConfig    `yaml:"inline"`
		Clipboard ClipboardConfig `yaml:"clipboard"`
		Logging   LoggingConfig   `yaml:"logging"`
		Reporting ReporterConfig  `yaml:"reporting"`
	}
)

const (
	// NOTE: must match yaml field name above
	OutputNameTemplateFieldName TemplateFieldName = "output_name_template"
)

var requiredOptions = append([]func(*gencfg.ProcessingOptions){},
	gencfg.WithDoNotExpandField(string(OutputNameTemplateFieldName)),
)

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, err
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration template to provide
// sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, append(requiredOptions, options...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl, requiredOptions...)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %v", err)
	}
	return data, nil
}
