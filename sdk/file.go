package sdk

import (
	"github.com/pkg/errors"

	"github.com/kanata-php/sdk-utils/config"
)

// EnvPrefix prefixes environment overrides of file options: SDK_API_URL, SDK_TIMEOUT...
const EnvPrefix = "SDK"

// NewFromFile reads options from a YAML, JSON or TOML file. Environment variables named
// EnvPrefix + "_" + KEY override file values.
//
// The file is watched: a valid change rebuilds the client and swaps it in atomically, so
// calls already running finish on the client they started with. An invalid change is
// logged and the previous client stays.
func NewFromFile(token, path string, opts ...Option) (*Base, error) {
	b := newBase(token, opts)

	defaults := defaultOptions()
	// Known keys must exist for environment overrides to apply.
	defaults[OptionAPIURL] = ""
	defaults[OptionHTTPErrors] = false
	defaults[OptionUserAgent] = ""

	copts := []config.Option[map[string]any]{
		config.WithDefaults[map[string]any](defaults),
		config.WithEnv[map[string]any](EnvPrefix),
		config.WithLogger[map[string]any](b.logger),
	}
	if b.noWatch {
		copts = append(copts, config.WithoutWatch[map[string]any]())
	}

	cfg, err := config.Load(path, copts...)
	if err != nil {
		return nil, errors.Wrap(err, "load sdk options")
	}
	o, err := ParseOptions(cfg.Get())
	if err != nil {
		return nil, errors.Wrapf(err, "options from %s", path)
	}
	st, err := b.build(o)
	if err != nil {
		return nil, err
	}
	b.state.Store(st)
	b.file = cfg

	cfg.OnChange(func(_, next map[string]any) {
		if err := b.apply(next); err != nil {
			b.logger.Warn().Err(err).Str("path", path).Msg("sdk options not reloaded")
			return
		}
		b.logger.Info().Str("path", path).Str("api_url", b.APIURL()).Msg("sdk options reloaded")
	})
	return b, nil
}

// Reload re-reads the options file now. It fails for a Base not created by NewFromFile.
func (b *Base) Reload() error {
	if b.file == nil {
		return errors.New("sdk: not loaded from a file")
	}
	if err := b.file.Reload(); err != nil {
		return err
	}
	// Reload only notifies on a changed value; apply unconditionally so an invalid
	// value rejected earlier is reported again.
	return b.apply(b.file.Get())
}

func (b *Base) apply(raw map[string]any) error {
	o, err := ParseOptions(raw)
	if err != nil {
		return err
	}
	st, err := b.build(o)
	if err != nil {
		return err
	}
	b.state.Store(st)
	return nil
}
