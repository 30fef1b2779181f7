// Package host builds the immutable startup context every other layer reads
// from: which server and project to talk to, whether edits are allowed, the
// anti-forgery token and the list of section triggers.
package host

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"plansheet-cli/internal/catalog"
	"plansheet-cli/internal/model"
	"plansheet-cli/internal/table"
)

// CSRFCookieName is the cookie the token is read from when none is given.
const CSRFCookieName = "csrftoken"

// Section is one trigger: a descriptor plus declarative table attributes.
type Section struct {
	model.SectionDescriptor `yaml:",inline"`
	Table                   map[string]string `yaml:"table,omitempty"`
}

// Context is created once at startup and never mutated. Accessors return
// copies.
type Context struct {
	serverURL string
	projectID string
	canEdit   bool
	token     string
	cookie    string
	timeout   time.Duration
	sections  []Section
}

// Input collects the already-resolved settings (flag > env > config file).
type Input struct {
	ServerURL    string
	ProjectID    string
	CanEdit      bool
	Token        string
	Cookie       string
	SectionsFile string
	Timeout      time.Duration
}

var ErrNoSections = errors.New("no sections configured")

// Load resolves the token and section list and freezes the result.
func Load(in Input) (*Context, error) {
	var (
		secs []Section
		err  error
	)
	if path := strings.TrimSpace(in.SectionsFile); path != "" {
		secs, err = LoadSectionsFile(path)
		if err != nil {
			return nil, err
		}
	} else {
		for _, d := range catalog.Builtin().Descriptors() {
			secs = append(secs, Section{SectionDescriptor: d})
		}
	}
	return New(in, secs)
}

// New freezes in and secs into a Context.
func New(in Input, secs []Section) (*Context, error) {
	if len(secs) == 0 {
		return nil, ErrNoSections
	}
	token := strings.TrimSpace(in.Token)
	if token == "" {
		token = TokenFromCookie(in.Cookie)
	}
	c := &Context{
		serverURL: strings.TrimRight(strings.TrimSpace(in.ServerURL), "/"),
		projectID: strings.TrimSpace(in.ProjectID),
		canEdit:   in.CanEdit,
		token:     token,
		cookie:    strings.TrimSpace(in.Cookie),
		timeout:   in.Timeout,
	}
	seen := map[string]bool{}
	for i, s := range secs {
		s.Key = strings.TrimSpace(s.Key)
		if s.Key == "" {
			return nil, fmt.Errorf("section %d: key is required", i)
		}
		if seen[s.Key] {
			return nil, fmt.Errorf("section %q: duplicate key", s.Key)
		}
		seen[s.Key] = true
		if strings.TrimSpace(s.Title) == "" {
			s.Title = s.Key
		}
		s.CanEdit = in.CanEdit
		s.Table = cloneAttrs(s.Table)
		c.sections = append(c.sections, s)
	}
	return c, nil
}

func (c *Context) ServerURL() string      { return c.serverURL }
func (c *Context) ProjectID() string      { return c.projectID }
func (c *Context) CanEdit() bool          { return c.canEdit }
func (c *Context) Token() string          { return c.token }
func (c *Context) Cookie() string         { return c.cookie }
func (c *Context) Timeout() time.Duration { return c.timeout }

func (c *Context) Sections() []Section {
	out := make([]Section, len(c.sections))
	for i, s := range c.sections {
		s.Table = cloneAttrs(s.Table)
		out[i] = s
	}
	return out
}

func (c *Context) Section(key string) (Section, bool) {
	i := slices.IndexFunc(c.sections, func(s Section) bool { return s.Key == key })
	if i < 0 {
		return Section{}, false
	}
	s := c.sections[i]
	s.Table = cloneAttrs(s.Table)
	return s, true
}

// TableOptions returns the widget options declared for a section.
func (s Section) TableOptions(resolve func(ref string) table.EmptyTarget) table.Options {
	return table.OptionsFromAttrs(s.Table, resolve)
}

// TokenFromCookie extracts the anti-forgery cookie from a raw Cookie header.
func TokenFromCookie(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	cookies, err := http.ParseCookie(header)
	if err != nil {
		// Fall back to the lenient request parser for sloppy headers.
		r := http.Request{Header: http.Header{"Cookie": {header}}}
		c, err := r.Cookie(CSRFCookieName)
		if err != nil {
			return ""
		}
		return c.Value
	}
	for _, ck := range cookies {
		if ck.Name == CSRFCookieName {
			return ck.Value
		}
	}
	return ""
}

type sectionsDoc struct {
	Sections []Section `yaml:"sections"`
}

// LoadSectionsFile reads a YAML section list.
func LoadSectionsFile(path string) ([]Section, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sections file: %w", err)
	}
	var doc sectionsDoc
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse sections file %s: %w", path, err)
	}
	if len(doc.Sections) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoSections)
	}
	return doc.Sections, nil
}

func cloneAttrs(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
