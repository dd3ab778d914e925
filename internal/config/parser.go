package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format is the syntax of a configuration file.
type Format string

const (
	FormatUnknown Format = ""
	FormatYAML    Format = "yaml"
	FormatTOML    Format = "toml"
	FormatJSON    Format = "json"
)

var formatByExt = map[string]Format{
	".yaml": FormatYAML,
	".yml":  FormatYAML,
	".toml": FormatTOML,
	".json": FormatJSON,
}

var decoders = map[Format]func([]byte, interface{}) error{
	FormatYAML: yaml.Unmarshal,
	FormatTOML: toml.Unmarshal,
	FormatJSON: json.Unmarshal,
}

// detectFormat picks the format from the file extension, falling back to
// the content for extensionless files such as /etc/ota/config.
func detectFormat(path string, content []byte) Format {
	if f, ok := formatByExt[strings.ToLower(filepath.Ext(path))]; ok {
		return f
	}
	return sniffFormat(content)
}

// sniffFormat looks at the first line that is neither blank nor a comment.
func sniffFormat(content []byte) Format {
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || line[0] == '#' {
			continue
		}
		switch line[0] {
		case '{':
			return FormatJSON
		case '[':
			return FormatTOML
		}
		eq, colon := strings.IndexByte(line, '='), strings.IndexByte(line, ':')
		if eq >= 0 && (colon < 0 || eq < colon) {
			return FormatTOML
		}
		if colon >= 0 {
			return FormatYAML
		}
		return FormatUnknown
	}
	return FormatUnknown
}

// placeholder matches ${VAR} and ${VAR:-default}.
var placeholder = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandEnvVars substitutes placeholders. An unset or empty variable takes
// the default, or becomes empty without one. Bare $VAR is left alone.
func expandEnvVars(content []byte) []byte {
	return placeholder.ReplaceAllFunc(content, func(match []byte) []byte {
		m := placeholder.FindSubmatch(match)
		if v := os.Getenv(string(m[1])); v != "" {
			return []byte(v)
		}
		return m[2]
	})
}

// parse decodes content on top of Default().
func parse(content []byte, format Format) (*Config, error) {
	decode, ok := decoders[format]
	if !ok {
		return nil, fmt.Errorf("unknown file format")
	}

	cfg := Default()
	if err := decode(expandEnvVars(content), cfg); err != nil {
		return nil, fmt.Errorf("%s parse error: %w", strings.ToUpper(string(format)), err)
	}

	// zero values in the file fall back to the defaults
	def := Default()
	if cfg.Timeout == 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.Root == "" {
		cfg.Root = def.Root
	}
	if cfg.StagingDir == "" {
		cfg.StagingDir = def.StagingDir
	}

	return cfg, nil
}
