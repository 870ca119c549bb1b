// Package version reports build information injected with -ldflags, for example:
//
//	-X github.com/kanata-php/sdk-utils/version.gitVersion=v1.2.0
//	-X github.com/kanata-php/sdk-utils/version.gitCommit=$(git rev-parse HEAD)
//	-X github.com/kanata-php/sdk-utils/version.buildDate=$(date -u +'%Y-%m-%dT%H:%M:%SZ')
package version

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/goccy/go-json"
	"github.com/gosuri/uitable"
	"github.com/pkg/errors"
)

// Product names the SDK in the default User-Agent header.
const Product = "kanata-sdk-go"

var (
	gitVersion   = "v0.0.0-dev"
	gitCommit    = ""
	gitTreeState = ""
	buildDate    = "1970-01-01T00:00:00Z"
)

// Info describes the running binary.
type Info struct {
	GitVersion   string `json:"gitVersion"`
	GitCommit    string `json:"gitCommit,omitempty"`
	GitTreeState string `json:"gitTreeState,omitempty"`
	BuildDate    string `json:"buildDate"`
	GoVersion    string `json:"goVersion"`
	Platform     string `json:"platform"`
}

// Output formats accepted by Format.
const (
	FormatText  = "text"
	FormatJSON  = "json"
	FormatShort = "short"
)

// String is the version, suffixed with -dirty for builds from a modified tree.
func (info Info) String() string {
	if info.GitTreeState == "dirty" {
		return info.GitVersion + "-dirty"
	}
	return info.GitVersion
}

// UserAgent is the default User-Agent sent by SDK clients, e.g.
// "kanata-sdk-go/v1.2.0 (go1.24.0; linux/amd64)".
func (info Info) UserAgent() string {
	return fmt.Sprintf("%s/%s (%s; %s)", Product, info.String(), info.GoVersion, info.Platform)
}

// Text renders the info as an aligned two-column table.
func (info Info) Text() string {
	table := uitable.New()
	table.RightAlign(0)
	table.MaxColWidth = 80
	table.Separator = " "
	table.AddRow("gitVersion:", info.GitVersion)
	if info.GitCommit != "" {
		table.AddRow("gitCommit:", info.GitCommit)
	}
	if info.GitTreeState != "" {
		table.AddRow("gitTreeState:", info.GitTreeState)
	}
	table.AddRow("buildDate:", info.BuildDate)
	table.AddRow("goVersion:", info.GoVersion)
	table.AddRow("platform:", info.Platform)
	return table.String()
}

// Format renders info as text, indented JSON or the bare version.
func (info Info) Format(format string) (string, error) {
	switch strings.ToLower(format) {
	case "", FormatText:
		return info.Text(), nil
	case FormatShort:
		return info.GitVersion, nil
	case FormatJSON:
		b, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return "", errors.Wrap(err, "marshal version info")
		}
		return string(b), nil
	default:
		return "", errors.Errorf("unknown version format %q (want text, json or short)", format)
	}
}

func Get() Info {
	return Info{
		GitVersion:   gitVersion,
		GitCommit:    gitCommit,
		GitTreeState: gitTreeState,
		BuildDate:    buildDate,
		GoVersion:    runtime.Version(),
		Platform:     runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// UserAgent is Get().UserAgent().
func UserAgent() string {
	return Get().UserAgent()
}
