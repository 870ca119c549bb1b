package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/gosuri/uitable"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/kanata-php/sdk-utils/config"
	"github.com/kanata-php/sdk-utils/envelope"
	"github.com/kanata-php/sdk-utils/request"
	"github.com/kanata-php/sdk-utils/sdk"
)

// Output formats of the request command.
const (
	outputJSON      = "json"
	outputFormatted = "formatted"
	outputTable     = "table"
)

type requestOptions struct {
	root *rootOptions

	apiURL     string
	token      string
	configPath string
	timeout    float64
	httpErrors bool
	transport  string

	data        string
	expect      int
	procedure   string
	accept      string
	contentType string
	wrapper     string
	noWrapper   bool

	output string
}

func newRequestCmd(ro *rootOptions) *cobra.Command {
	o := &requestOptions{root: ro}
	cmd := &cobra.Command{
		Use:   "request METHOD URL",
		Short: "Send one request and print the envelope",
		Long: `Send one request and print the envelope.

The exit code is 0 for a success envelope, 2 for a failure envelope and 1 when the
command could not be configured.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, args[0], args[1])
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.apiURL, "api-url", "", "API base URL (env SDK_API_URL)")
	f.StringVar(&o.token, "token", "", "bearer token (env SDK_TOKEN)")
	f.StringVar(&o.configPath, "config", "", "options file (yaml, json or toml)")
	f.Float64Var(&o.timeout, "timeout", sdk.DefaultTimeout, "request timeout in seconds")
	f.BoolVar(&o.httpErrors, "http-errors", false, "treat 4xx/5xx statuses as client/server failures")
	f.StringVar(&o.transport, "transport", sdk.TransportHTTP, "HTTP client (http, resty)")

	f.StringVarP(&o.data, "data", "d", "", "JSON input data for POST and PUT")
	f.IntVar(&o.expect, "expect", request.DefaultExpectedStatus, "expected success status")
	f.StringVar(&o.procedure, "procedure", "", "procedure name used in error messages")
	f.StringVar(&o.accept, "accept", request.DefaultAccept, "Accept header")
	f.StringVar(&o.contentType, "content-type", request.DefaultContentType, "Content-Type header")
	f.StringVar(&o.wrapper, "wrapper", request.DefaultWrapper, "key POST data is nested under")
	f.BoolVar(&o.noWrapper, "no-wrapper", false, "send POST data without a wrapper key")
	f.StringVarP(&o.output, "output", "o", outputJSON, "output format (json, formatted, table)")

	cmd.MarkFlagsMutuallyExclusive("wrapper", "no-wrapper")
	return cmd
}

func (o *requestOptions) run(cmd *cobra.Command, rawMethod, url string) error {
	method, err := request.ParseMethod(rawMethod)
	if err != nil {
		return &exitError{code: exitConfig, err: err}
	}
	switch o.output {
	case outputJSON, outputFormatted, outputTable:
	default:
		return &exitError{code: exitConfig, err: errors.Errorf("unknown output format %q", o.output)}
	}

	logger := newLogger(cmd.ErrOrStderr(), o.root.verbose)

	options, err := o.options(cmd)
	if err != nil {
		return &exitError{code: exitConfig, err: err}
	}
	token := o.token
	if !cmd.Flags().Changed("token") {
		token = os.Getenv("SDK_TOKEN")
	}

	client, err := sdk.New(token, options, sdk.WithLogger(logger))
	if err != nil {
		return &exitError{code: exitConfig, err: err}
	}

	specOpts, err := o.specOptions()
	if err != nil {
		return &exitError{code: exitConfig, err: err}
	}

	env, err := client.Request(cmd.Context(), method, url, specOpts...)
	if err != nil {
		return &exitError{code: exitConfig, err: err}
	}

	if err := o.print(cmd.OutOrStdout(), env); err != nil {
		return err
	}
	if !env.Success() {
		return &exitError{code: exitFailure, silent: true}
	}
	return nil
}

// options builds the option map: the config file first (with SDK_ environment overrides),
// then SDK_API_URL, then flags set on the command line.
func (o *requestOptions) options(cmd *cobra.Command) (map[string]any, error) {
	options := map[string]any{}
	if o.configPath != "" {
		cfg, err := config.Load(o.configPath,
			config.WithoutWatch[map[string]any](),
			config.WithEnv[map[string]any](sdk.EnvPrefix),
		)
		if err != nil {
			return nil, err
		}
		options = cfg.Get()
	}
	if env := os.Getenv(sdk.EnvPrefix + "_API_URL"); env != "" {
		if _, ok := options[sdk.OptionAPIURL]; !ok {
			options[sdk.OptionAPIURL] = env
		}
	}

	flags := cmd.Flags()
	if flags.Changed("api-url") {
		options[sdk.OptionAPIURL] = o.apiURL
	}
	if flags.Changed("timeout") {
		options[sdk.OptionTimeout] = o.timeout
	}
	if flags.Changed("http-errors") {
		options[sdk.OptionHTTPErrors] = o.httpErrors
	}
	if flags.Changed("transport") {
		options[sdk.OptionTransport] = o.transport
	}
	return options, nil
}

func (o *requestOptions) specOptions() ([]request.SpecOption, error) {
	opts := []request.SpecOption{
		request.WithExpectedStatus(o.expect),
		request.WithProcedure(o.procedure),
		request.WithAccept(o.accept),
		request.WithContentType(o.contentType),
	}
	if o.data != "" {
		var input any
		if err := json.Unmarshal([]byte(o.data), &input); err != nil {
			return nil, errors.Wrap(err, "parse --data")
		}
		opts = append(opts, request.WithInputData(input))
	}
	if o.noWrapper {
		opts = append(opts, request.WithoutWrapper())
	} else {
		opts = append(opts, request.WithWrapper(o.wrapper))
	}
	return opts, nil
}

func (o *requestOptions) print(w io.Writer, env *envelope.Envelope) error {
	switch o.output {
	case outputFormatted:
		m, err := env.GetFormattedResponse()
		if err != nil {
			return &exitError{code: exitFailure, err: err}
		}
		return writeJSON(w, m)
	case outputTable:
		table := uitable.New()
		table.MaxColWidth = 100
		table.Wrap = true
		for _, k := range env.Keys() {
			table.AddRow(k+":", cell(env.Get(k)))
		}
		_, err := fmt.Fprintln(w, table)
		return err
	default:
		return writeJSON(w, env)
	}
}

func cell(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return strings.TrimSpace(string(b))
}

func writeJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode envelope")
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
