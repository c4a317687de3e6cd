// Package config holds the suite configuration: browser launch options,
// storefront sites, checkout and payment budgets, CSV inputs, logging and
// the report directory. It is stored as YAML and overridden from the
// environment (optionally seeded from a .env file).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/grez-lucas/menzzo-e2e/internal/storefront/browser"
	"github.com/grez-lucas/menzzo-e2e/internal/storefront/checkout"
	"github.com/grez-lucas/menzzo-e2e/internal/storefront/data"
	"github.com/grez-lucas/menzzo-e2e/internal/storefront/locale"
	"github.com/grez-lucas/menzzo-e2e/internal/storefront/payment"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Browser   browser.Options   `yaml:"browser"`
	Sites     map[string]string `yaml:"sites"`
	Checkout  CheckoutConfig    `yaml:"checkout"`
	Payment   payment.Budgets   `yaml:"payment"`
	Data      DataConfig        `yaml:"data"`
	Logger    LoggerConfig      `yaml:"logger"`
	ReportDir string            `yaml:"report_dir"`
}

type CheckoutConfig struct {
	Ready   time.Duration            `yaml:"ready"`
	Budgets checkout.Budgets         `yaml:"budgets"`
	Markers checkout.MarkerSelectors `yaml:"markers"`
}

// CSVSource is one CSV input file. Delimiter is a single character.
type CSVSource struct {
	Path      string `yaml:"path"`
	Delimiter string `yaml:"delimiter"`
}

type DataConfig struct {
	Categories CSVSource `yaml:"categories"`
	Products   CSVSource `yaml:"products"`
	CMSPages   CSVSource `yaml:"cms_pages"`
}

type LoggerConfig struct {
	Level       string `yaml:"level"`
	Format      string `yaml:"format"` // console or json
	ServiceName string `yaml:"service_name"`
	LogFile     string `yaml:"log_file"`
	MaxSize     int    `yaml:"max_size"`
	MaxBackups  int    `yaml:"max_backups"`
	MaxAge      int    `yaml:"max_age"`
	Compress    bool   `yaml:"compress"`
	AddSource   bool   `yaml:"add_source"`
}

func DefaultConfig() *Config {
	return &Config{
		Browser: browser.DefaultOptions(),
		Sites: map[string]string{
			"fr": "https://www.menzzo.fr/",
			"be": "https://www.menzzo.be/",
			"de": "https://www.menzzo.de/",
			"at": "https://www.menzzo.at/",
			"nl": "https://www.menzzo.nl/",
			"it": "https://www.menzzo.it/",
			"es": "https://www.menzzo.es/",
			"pt": "https://www.menzzo.pt/",
		},
		Checkout: CheckoutConfig{
			Ready:   30 * time.Second,
			Budgets: checkout.DefaultBudgets(),
			Markers: checkout.DefaultMarkerSelectors(),
		},
		Payment: payment.DefaultBudgets(),
		Data: DataConfig{
			Categories: CSVSource{Path: filepath.Join("testdata", "categories.csv"), Delimiter: ","},
			Products:   CSVSource{Path: filepath.Join("testdata", "products.csv"), Delimiter: ";"},
			CMSPages:   CSVSource{Path: filepath.Join("testdata", "cms_pages.csv"), Delimiter: ","},
		},
		Logger: LoggerConfig{
			Level:       "info",
			Format:      "console",
			ServiceName: "menzzo-e2e",
			MaxSize:     10,
			MaxBackups:  3,
			MaxAge:      7,
		},
		ReportDir: "reports",
	}
}

// LoadConfig reads path on top of the defaults. A missing file is created
// with the defaults.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := config.Save(path); err != nil {
			return nil, err
		}
		return config, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, config); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return config, nil
}

func (c *Config) Save(path string) error {
	raw, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	return os.WriteFile(path, raw, 0o644)
}

// Validate rejects unusable budgets, sites that do not resolve to a
// supported locale and malformed CSV delimiters.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Checkout.Budgets.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Checkout.Ready <= 0 {
		errs = append(errs, errors.New("checkout.ready must be positive"))
	}

	p := c.Payment
	if p.Redirect <= 0 || p.PopupLoad <= 0 || p.Widget <= 0 || p.Interval <= 0 {
		errs = append(errs, errors.New("payment budgets must be positive"))
	}
	if _, err := payment.NewDetector(p, nil); err != nil {
		errs = append(errs, err)
	}

	if len(c.Sites) == 0 {
		errs = append(errs, errors.New("no sites configured"))
	}
	for _, site := range c.SiteNames() {
		if _, err := locale.FromURL(c.Sites[site]); err != nil {
			errs = append(errs, fmt.Errorf("site %s: %w", site, err))
		}
	}

	for name, src := range map[string]CSVSource{
		"categories": c.Data.Categories,
		"products":   c.Data.Products,
		"cms_pages":  c.Data.CMSPages,
	} {
		if _, err := src.delimiter(); err != nil {
			errs = append(errs, fmt.Errorf("data.%s: %w", name, err))
		}
	}

	return errors.Join(errs...)
}

// SiteNames returns the configured site keys in a stable order.
func (c *Config) SiteNames() []string {
	names := make([]string, 0, len(c.Sites))
	for name := range c.Sites {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SiteURL joins a path onto a site's base URL.
func (c *Config) SiteURL(site, path string) (string, error) {
	base, ok := c.Sites[site]
	if !ok {
		return "", fmt.Errorf("unknown site %q", site)
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/"), nil
}

func (s CSVSource) delimiter() (rune, error) {
	if s.Delimiter == "" {
		return ',', nil
	}
	if utf8.RuneCountInString(s.Delimiter) != 1 {
		return 0, fmt.Errorf("delimiter %q must be a single character", s.Delimiter)
	}
	r, _ := utf8.DecodeRuneInString(s.Delimiter)
	return r, nil
}

// Loader returns a CSV loader for this source.
func (s CSVSource) Loader() data.Loader {
	r, err := s.delimiter()
	if err != nil {
		r = ','
	}
	return data.Loader{Delimiter: r}
}

// LoadEnv loads a .env file into the process environment, when present,
// and applies the overrides.
func (c *Config) LoadEnv(envPath string) error {
	if err := godotenv.Load(envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", envPath, err)
	}
	return c.ApplyEnv(os.Getenv)
}

// ApplyEnv overrides fields from E2E_* and MENZZO_<SITE>_URL variables.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv("E2E_HEADLESS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("E2E_HEADLESS: %w", err)
		}
		c.Browser.Headless = b
	}
	if v := getenv("E2E_BROWSER_BIN"); v != "" {
		c.Browser.Bin = v
	}
	if v := getenv("E2E_LOG_LEVEL"); v != "" {
		c.Logger.Level = v
	}
	if v := getenv("E2E_LOG_FILE"); v != "" {
		c.Logger.LogFile = v
	}
	if v := getenv("E2E_REPORT_DIR"); v != "" {
		c.ReportDir = v
	}
	for _, site := range c.SiteNames() {
		if v := getenv("MENZZO_" + strings.ToUpper(site) + "_URL"); v != "" {
			c.Sites[site] = v
		}
	}
	return nil
}
