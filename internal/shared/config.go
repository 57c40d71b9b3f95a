package shared

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Database struct {
		Driver string `yaml:"driver" validate:"oneof=sqlite"` // "sqlite" (default)
		DSN    string `yaml:"dsn"`                            // "./champlint.db"
	} `yaml:"database"`

	Analysis struct {
		Sources       []string `yaml:"sources"`        // ["./cypress/e2e"]
		Include       []string `yaml:"include"`        // doublestar globs
		Exclude       []string `yaml:"exclude"`        // doublestar globs
		AssertCallees []string `yaml:"assert_callees"` // extra assertion functions
		RulePacks     []string `yaml:"rule_packs"`     // YAML rule packs
		Parallel      bool     `yaml:"parallel"`
	} `yaml:"analysis"`

	Rules struct {
		Enabled           []string `yaml:"enabled"` // empty = all
		Disabled          []string `yaml:"disabled"`
		SeverityThreshold string   `yaml:"severity_threshold" validate:"oneof=warning violation"`
		MaxNestingDepth   int      `yaml:"max_nesting_depth" validate:"gte=0"`
	} `yaml:"rules"`

	Reporting struct {
		OutDir string `yaml:"out_dir"`
		// Formats written by lint when an output directory is set.
		Formats []string `yaml:"formats" validate:"dive,oneof=text json html"`
		Color   bool     `yaml:"color"`
	} `yaml:"reporting"`

	Server struct {
		Addr           string   `yaml:"addr" validate:"required"`
		AllowedOrigins []string `yaml:"allowed_origins"`
		SessionHours   int      `yaml:"session_hours" validate:"gte=1"`
	} `yaml:"server"`

	Logging struct {
		Format string `yaml:"format" validate:"oneof=json text"`             // "json"|"text"
		Level  string `yaml:"level" validate:"oneof=debug info warn error"` // "info"|"debug"|"warn"|"error"
	} `yaml:"logging"`
}

func DefaultConfig() Config {
	var c Config
	c.Database.Driver = "sqlite"
	c.Database.DSN = "./champlint.db"
	c.Rules.SeverityThreshold = "warning"
	c.Rules.MaxNestingDepth = 2
	c.Reporting.OutDir = "./reports"
	c.Reporting.Formats = []string{"json", "html"}
	c.Server.Addr = ":8080"
	c.Server.SessionHours = 12
	c.Logging.Format = "json"
	c.Logging.Level = "info"
	return c
}

// LoadConfig layers defaults, the optional YAML file, .env and CHAMPLINT_*
// environment variables, then validates the result.
func LoadConfig(path string) (Config, error) {
	c := DefaultConfig()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return c, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return c, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return c, fmt.Errorf("load .env: %w", err)
	}
	applyEnv(&c)

	if err := validator.New().Struct(c); err != nil {
		return c, fmt.Errorf("invalid config: %w", err)
	}
	return c, nil
}

func applyEnv(c *Config) {
	if v := os.Getenv("CHAMPLINT_DB_DSN"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("CHAMPLINT_SEVERITY_THRESHOLD"); v != "" {
		c.Rules.SeverityThreshold = strings.ToLower(v)
	}
	if v := os.Getenv("CHAMPLINT_DISABLED_RULES"); v != "" {
		c.Rules.Disabled = splitList(v)
	}
	if v := os.Getenv("CHAMPLINT_MAX_NESTING_DEPTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Rules.MaxNestingDepth = n
		}
	}
	if v := os.Getenv("CHAMPLINT_PARALLEL"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Analysis.Parallel = b
		}
	}
	if v := os.Getenv("CHAMPLINT_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("CHAMPLINT_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("CHAMPLINT_OUT_DIR"); v != "" {
		c.Reporting.OutDir = v
	}
	if v := os.Getenv("CHAMPLINT_ADDR"); v != "" {
		c.Server.Addr = v
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
