package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pfrederiksen/ae-data/internal/period"
	"github.com/pfrederiksen/ae-data/internal/scraper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for environment overrides, e.g. AEDATA_DATA_DIR.
const EnvPrefix = "AEDATA"

const (
	// ModeNational normalizes periods and writes the national and NCL files.
	ModeNational = "national"
	// ModeCombined writes the raw concatenation to a single file, using the
	// fixed year list without existence probes.
	ModeCombined = "combined"
)

// Output file names.
const (
	CombinedFile = "combined_ae_data.csv"
	NationalFile = "national_ae_data.csv"
	NCLFile      = "ncl_ae_data.csv"
	WorkbookFile = "ae_data.xlsx"
)

// DefaultYears is the fixed list of fiscal years used in combined mode when
// no years are configured, newest first.
var DefaultYears = []string{
	"2024-25", "2023-24", "2022-23", "2021-22", "2020-21",
	"2019-20", "2018-19", "2017-18", "2016-17", "2015-16",
}

// DefaultOrgCodes are the North Central London trusts.
var DefaultOrgCodes = []string{"RP6", "RAP", "RAL", "RAN", "RKE", "RRV"}

// Config holds every setting for a run
type Config struct {
	BaseURL           string        `yaml:"base_url" envconfig:"BASE_URL" validate:"required,url"`
	StartYear         int           `yaml:"start_year" envconfig:"START_YEAR" validate:"gte=1990,lte=2100"`
	EndYear           int           `yaml:"end_year" envconfig:"END_YEAR" validate:"omitempty,gtefield=StartYear,lte=2100"`
	Years             []string      `yaml:"years" envconfig:"YEARS" validate:"dive,fiscalyear"`
	Probe             bool          `yaml:"probe" envconfig:"PROBE"`
	DataDir           string        `yaml:"data_dir" envconfig:"DATA_DIR" validate:"required"`
	OutputDir         string        `yaml:"output_dir" envconfig:"OUTPUT_DIR" validate:"required"`
	OrgCodes          []string      `yaml:"org_codes" envconfig:"ORG_CODES" validate:"dive,required"`
	Mode              string        `yaml:"mode" envconfig:"MODE" validate:"oneof=national combined"`
	Timeout           time.Duration `yaml:"timeout" envconfig:"TIMEOUT" validate:"gte=0"`
	RequestsPerSecond float64       `yaml:"requests_per_second" envconfig:"REQUESTS_PER_SECOND" validate:"gte=0"`
	UserAgent         string        `yaml:"user_agent" envconfig:"USER_AGENT"`
	LogLevel          string        `yaml:"log_level" envconfig:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	XLSX              bool          `yaml:"xlsx" envconfig:"XLSX"`
	UseManifest       bool          `yaml:"use_manifest" envconfig:"USE_MANIFEST"`
	SkipDownload      bool          `yaml:"skip_download" envconfig:"SKIP_DOWNLOAD"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		BaseURL:   scraper.BaseURL,
		StartYear: 2015,
		Probe:     true,
		DataDir:   "data",
		OutputDir: "output",
		OrgCodes:  append([]string(nil), DefaultOrgCodes...),
		Mode:      ModeNational,
		Timeout:   scraper.Timeout,
		UserAgent: scraper.UserAgent,
		LogLevel:  "info",
	}
}

// Load builds a Config from defaults, the optional YAML file at path, a .env
// file in the working directory and AEDATA_* environment variables. An empty
// path skips the YAML step; a non-empty path must exist. The result is
// normalized but not validated, so callers can apply further overrides before
// calling Validate.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	// A missing .env file is normal.
	_ = godotenv.Load()

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("loading config from env: %w", err)
	}

	cfg.Normalize()
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

// Normalize trims list entries and folds the case of modes, log levels and
// org codes.
func (c *Config) Normalize() {
	c.Mode = strings.ToLower(strings.TrimSpace(c.Mode))
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	for i := range c.OrgCodes {
		c.OrgCodes[i] = strings.ToUpper(strings.TrimSpace(c.OrgCodes[i]))
	}
	for i := range c.Years {
		c.Years[i] = strings.TrimSpace(c.Years[i])
	}
}

var fiscalYearPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

func newValidator() *validator.Validate {
	v := validator.New()
	// Registration only fails for an empty tag or nil func.
	_ = v.RegisterValidation("fiscalyear", func(fl validator.FieldLevel) bool {
		label := fl.Field().String()
		if !fiscalYearPattern.MatchString(label) {
			return false
		}
		year, err := strconv.Atoi(label[:4])
		return err == nil && period.FiscalYearLabel(year) == label
	})
	return v
}

// Validate checks field constraints and reports every failing field.
func (c *Config) Validate() error {
	err := newValidator().Struct(c)
	if err == nil {
		if c.Mode == ModeNational && len(c.OrgCodes) == 0 {
			return errors.New("invalid config: org_codes must not be empty in national mode")
		}
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating config: %w", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// YearLabels returns the fiscal years to scrape. Explicit Years win; combined
// mode falls back to DefaultYears; otherwise StartYear through EndYear, with
// EndYear defaulting to the year of now.
func (c *Config) YearLabels(now time.Time) []string {
	if len(c.Years) > 0 {
		return append([]string(nil), c.Years...)
	}
	if c.Mode == ModeCombined {
		return append([]string(nil), DefaultYears...)
	}

	end := c.EndYear
	if end == 0 {
		end = now.Year()
	}
	return period.FiscalYearLabels(c.StartYear, end)
}

// ShouldProbe reports whether yearly pages are checked with HEAD before use.
func (c *Config) ShouldProbe() bool {
	return c.Probe && c.Mode != ModeCombined
}
