// Package locale maps storefront URLs and document languages to a site
// locale and serves the locale's static dictionaries: input selectors,
// button labels and expected page titles.
package locale

import (
	"embed"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Code identifies a dictionary. Several site variants can share one code
// (menzzo.at uses de, menzzo.be uses fr).
type Code string

const (
	FR Code = "fr"
	DE Code = "de"
	NL Code = "nl"
	IT Code = "it"
	ES Code = "es"
	PT Code = "pt"
)

// Default is used when a document declares an unrecognized language.
const Default = FR

// Codes lists every supported dictionary.
var Codes = []Code{FR, DE, NL, IT, ES, PT}

// Field names a checkout input.
type Field string

const (
	FieldFirstName Field = "firstname"
	FieldLastName  Field = "lastname"
	FieldEmail     Field = "email"
	FieldPhone     Field = "telephone"
	FieldStreet    Field = "street"
	FieldPostcode  Field = "postcode"
	FieldCity      Field = "city"
	FieldCountry   Field = "country"
)

// Action names a localized button label.
type Action string

const (
	ActionAddToCart    Action = "add_to_cart"
	ActionAcceptCookie Action = "accept_cookies"
	ActionContinue     Action = "continue"
	ActionPay          Action = "pay"
	ActionCheckout     Action = "checkout"
	ActionLogin        Action = "login"
)

// PageKind names a page whose title is asserted.
type PageKind string

const (
	PageHome     PageKind = "home"
	PageCart     PageKind = "cart"
	PageCheckout PageKind = "checkout"
	PageLogin    PageKind = "login"
)

// hostLocales maps the last host label of every site variant.
var hostLocales = map[string]Code{
	"fr": FR,
	"be": FR,
	"de": DE,
	"at": DE,
	"nl": NL,
	"it": IT,
	"es": ES,
	"pt": PT,
}

// FromURL resolves the locale of a storefront URL from its host.
func FromURL(rawURL string) (Code, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", rawURL, err)
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", fmt.Errorf("url %q has no host", rawURL)
	}

	tld := host[strings.LastIndex(host, ".")+1:]
	code, ok := hostLocales[tld]
	if !ok {
		return "", fmt.Errorf("no locale for host %q", host)
	}
	return code, nil
}

// FromLang resolves a locale from an html lang attribute such as "de-AT".
func FromLang(attr string) (Code, bool) {
	attr = strings.ToLower(strings.TrimSpace(attr))
	if i := strings.IndexAny(attr, "-_"); i >= 0 {
		attr = attr[:i]
	}
	for _, c := range Codes {
		if string(c) == attr {
			return c, true
		}
	}
	return "", false
}

// Context is the immutable dictionary of one locale.
type Context struct {
	code    Code
	fields  map[Field][]string
	buttons map[Action]string
	titles  map[PageKind]string
}

// Code returns the locale code.
func (c *Context) Code() Code { return c.code }

// Selectors returns the candidate selectors for a field, most precise first.
func (c *Context) Selectors(f Field) []string {
	return append([]string(nil), c.fields[f]...)
}

// Label returns the button label for an action, or "" when the locale has none.
func (c *Context) Label(a Action) string { return c.buttons[a] }

// Title returns the expected page title fragment.
func (c *Context) Title(k PageKind) string { return c.titles[k] }

//go:embed lang/*.yaml
var langFS embed.FS

type dictionary struct {
	Fields  map[Field][]string  `yaml:"fields"`
	Buttons map[Action]string   `yaml:"buttons"`
	Titles  map[PageKind]string `yaml:"titles"`
}

// Load parses the dictionary of one locale. Locale field selectors are
// appended after the shared ones.
func Load(code Code) (*Context, error) {
	common, err := readDictionary("common")
	if err != nil {
		return nil, err
	}
	dict, err := readDictionary(string(code))
	if err != nil {
		return nil, err
	}

	ctx := &Context{
		code:    code,
		fields:  make(map[Field][]string),
		buttons: dict.Buttons,
		titles:  dict.Titles,
	}
	for f, sels := range common.Fields {
		ctx.fields[f] = append(ctx.fields[f], sels...)
	}
	for f, sels := range dict.Fields {
		ctx.fields[f] = append(ctx.fields[f], sels...)
	}
	if ctx.buttons == nil {
		ctx.buttons = map[Action]string{}
	}
	if ctx.titles == nil {
		ctx.titles = map[PageKind]string{}
	}
	return ctx, nil
}

func readDictionary(name string) (*dictionary, error) {
	data, err := langFS.ReadFile("lang/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("read locale file %s: %w", name, err)
	}
	var d dictionary
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse locale file %s: %w", name, err)
	}
	return &d, nil
}

// Registry caches loaded dictionaries. Safe for concurrent use.
type Registry struct {
	mu    sync.Mutex
	cache map[Code]*Context
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{cache: make(map[Code]*Context)}
}

// Get returns the dictionary for code, loading it on first use.
func (r *Registry) Get(code Code) (*Context, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ctx, ok := r.cache[code]; ok {
		return ctx, nil
	}
	ctx, err := Load(code)
	if err != nil {
		return nil, err
	}
	r.cache[code] = ctx
	return ctx, nil
}

// ForLang resolves the dictionary for an html lang attribute, falling back
// to Default when the language is unrecognized.
func (r *Registry) ForLang(attr string) (*Context, error) {
	code, ok := FromLang(attr)
	if !ok {
		code = Default
	}
	return r.Get(code)
}

// ForURL resolves the dictionary for a storefront URL.
func (r *Registry) ForURL(rawURL string) (*Context, error) {
	code, err := FromURL(rawURL)
	if err != nil {
		return nil, err
	}
	return r.Get(code)
}
