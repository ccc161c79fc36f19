// Package config loads the optional stackflow.toml project file.
//
// The file carries per-project defaults for everything the CLI exposes as
// flags, plus the server, cache, and store settings that have no flag
// equivalent. Every section is optional:
//
//	title = "Orders Platform"
//
//	[render]
//	formats = ["svg", "png"]
//	footer = "generated from terraform"
//
//	[layout]
//	node_width = 128
//
//	[classify]
//	skip = ["corp_tagging_rule"]
//
//	[classify.placements]
//	corp_api_proxy = { flow = "api", position = 0 }
//
//	[classify.entries]
//	api = ["corp_api_proxy"]
//
//	[server]
//	addr = ":8080"
//	poll_interval = "2s"
//
//	[cache]
//	backend = "redis"
//	redis_url = "redis://localhost:6379/0"
//
//	[store]
//	uri = "mongodb://localhost:27017"
//
// [Load] reads one file, [Discover] walks the conventional locations, and
// [Config.Apply] copies the settings onto pipeline options without
// overwriting anything the caller already set, so flag values win.
package config

import (
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/fwerkmann/stackflow/pkg/classify"
	"github.com/fwerkmann/stackflow/pkg/errors"
	"github.com/fwerkmann/stackflow/pkg/graph"
	"github.com/fwerkmann/stackflow/pkg/layout"
	"github.com/fwerkmann/stackflow/pkg/pipeline"
	"github.com/fwerkmann/stackflow/pkg/route"
)

// DefaultFile is the filename Discover looks for.
const DefaultFile = "stackflow.toml"

// Cache backend names for the [cache] section.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Config is the decoded project file. The zero value is a valid empty
// configuration.
type Config struct {
	Title string `toml:"title"`

	Render   Render        `toml:"render"`
	Layout   layout.Config `toml:"layout"`
	Route    route.Config  `toml:"route"`
	Classify Classify      `toml:"classify"`
	Server   Server        `toml:"server"`
	Cache    Cache         `toml:"cache"`
	Store    Store         `toml:"store"`
}

// Render mirrors the pipeline's render options.
type Render struct {
	View            string   `toml:"view"`
	Formats         []string `toml:"formats"`
	HideActor       bool     `toml:"hide_actor"`
	HideCrossModule bool     `toml:"hide_cross_module"`
	Footer          string   `toml:"footer"`
	Scale           float64  `toml:"scale"`
	Detailed        bool     `toml:"detailed"`
}

// Classify extends the built-in classification tables. Placements, skip
// types, and support types are added on top of the defaults; entry lists
// replace the default list of their flow.
type Classify struct {
	ResolutionEdges bool                 `toml:"dns_edges"`
	Skip            []string             `toml:"skip"`
	Support         []string             `toml:"support"`
	Placements      map[string]Placement `toml:"placements"`
	Entries         map[string][]string  `toml:"entries"`
}

// Placement positions one resource type on the canvas.
type Placement struct {
	Flow     string `toml:"flow"`
	Position int    `toml:"position"`
}

// Server configures `stackflow serve`.
type Server struct {
	Addr         string   `toml:"addr"`
	PollInterval Duration `toml:"poll_interval"` // source re-check cadence
}

// Cache selects and configures the pipeline cache backend.
type Cache struct {
	Backend  string `toml:"backend"` // file (default), redis, none
	Dir      string `toml:"dir"`     // file backend location, "" = XDG cache dir
	RedisURL string `toml:"redis_url"`
}

// Store configures the optional diagram store. An empty URI disables it.
type Store struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// Duration decodes TOML duration strings such as "2s" or "500ms".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for TOML decoding.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Load reads and validates one config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "read config")
	}
	cfg := &Config{}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Discover resolves the project config. An explicit path is loaded as-is and
// missing is an error; otherwise stackflow.toml is tried next to the source
// (its directory for file sources), then in the working directory, and
// absence everywhere returns a nil Config, which Apply treats as empty.
func Discover(explicit, source string) (*Config, string, error) {
	if explicit != "" {
		cfg, err := Load(explicit)
		return cfg, explicit, err
	}

	var candidates []string
	if source != "" && source != "-" {
		if info, err := os.Stat(source); err == nil {
			dir := source
			if !info.IsDir() {
				dir = filepath.Dir(source)
			}
			candidates = append(candidates, filepath.Join(dir, DefaultFile))
		}
	}
	candidates = append(candidates, DefaultFile)

	for _, path := range candidates {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		cfg, err := Load(path)
		return cfg, path, err
	}
	return nil, "", nil
}

// Validate checks the fields with closed value sets.
func (c *Config) Validate() error {
	if c.Render.View != "" {
		if err := pipeline.ValidateView(c.Render.View); err != nil {
			return err
		}
	}
	if err := pipeline.ValidateFormats(c.Render.Formats); err != nil {
		return err
	}
	if c.Render.Scale < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "scale must not be negative, got %g", c.Render.Scale)
	}
	switch c.Cache.Backend {
	case "", BackendFile, BackendRedis, BackendNone:
	default:
		return errors.New(errors.ErrCodeInvalidConfig,
			"unknown cache backend %q (must be one of: file, redis, none)", c.Cache.Backend)
	}
	if c.Server.PollInterval < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "poll_interval must not be negative")
	}
	return nil
}

// Apply copies the configuration onto opts, filling only fields the caller
// left unset. A nil receiver applies nothing.
func (c *Config) Apply(opts *pipeline.Options) {
	if c == nil {
		return
	}
	if opts.Title == "" {
		opts.Title = c.Title
	}
	if opts.View == "" {
		opts.View = c.Render.View
	}
	if len(opts.Formats) == 0 && len(c.Render.Formats) > 0 {
		opts.Formats = slices.Clone(c.Render.Formats)
	}
	if opts.Footer == "" {
		opts.Footer = c.Render.Footer
	}
	if opts.Scale == 0 {
		opts.Scale = c.Render.Scale
	}
	opts.HideActor = opts.HideActor || c.Render.HideActor
	opts.HideCrossModule = opts.HideCrossModule || c.Render.HideCrossModule
	opts.Detailed = opts.Detailed || c.Render.Detailed
	opts.IncludeResolutionEdges = opts.IncludeResolutionEdges || c.Classify.ResolutionEdges

	mergeLayout(&opts.Layout, c.Layout)
	mergeRoute(&opts.Route, c.Route)

	if opts.Table == nil && len(c.Classify.Placements) > 0 {
		opts.Table = c.placementTable()
	}
	if opts.SkipTypes == nil && len(c.Classify.Skip) > 0 {
		opts.SkipTypes = append(classify.DefaultSkipTypes(), c.Classify.Skip...)
	}
	if opts.SupportTypes == nil && len(c.Classify.Support) > 0 {
		opts.SupportTypes = append(classify.DefaultSupportTypes(), c.Classify.Support...)
	}
	if opts.Layout.EntryTypes == nil && len(c.Classify.Entries) > 0 {
		opts.Layout.EntryTypes = c.entryTypes()
	}
}

// placementTable merges the configured placements over the default table.
func (c *Config) placementTable() classify.Table {
	table := classify.DefaultTable()
	for typ, p := range c.Classify.Placements {
		table[typ] = classify.Placement{Flow: graph.Flow(p.Flow), Position: p.Position}
	}
	return table
}

// entryTypes replaces default entry lists per configured flow.
func (c *Config) entryTypes() map[graph.Flow][]string {
	entries := classify.DefaultEntryTypes()
	for flow, types := range c.Classify.Entries {
		entries[graph.Flow(flow)] = slices.Clone(types)
	}
	return entries
}

func mergeLayout(dst *layout.Config, src layout.Config) {
	if dst.GridUnit == 0 {
		dst.GridUnit = src.GridUnit
	}
	if dst.NodeWidth == 0 {
		dst.NodeWidth = src.NodeWidth
	}
	if dst.NodeHeight == 0 {
		dst.NodeHeight = src.NodeHeight
	}
	if dst.HGap == 0 {
		dst.HGap = src.HGap
	}
	if dst.VGap == 0 {
		dst.VGap = src.VGap
	}
	if dst.ModuleGap == 0 {
		dst.ModuleGap = src.ModuleGap
	}
	if dst.ModulePadding == 0 {
		dst.ModulePadding = src.ModulePadding
	}
	if dst.ModuleHeaderHeight == 0 {
		dst.ModuleHeaderHeight = src.ModuleHeaderHeight
	}
	if dst.CanvasPadding == 0 {
		dst.CanvasPadding = src.CanvasPadding
	}
	if dst.ActorLaneWidth == 0 {
		dst.ActorLaneWidth = src.ActorLaneWidth
	}
}

func mergeRoute(dst *route.Config, src route.Config) {
	if dst.CellSize == 0 {
		dst.CellSize = src.CellSize
	}
	if dst.GridUnit == 0 {
		dst.GridUnit = src.GridUnit
	}
	if dst.Margin == 0 {
		dst.Margin = src.Margin
	}
	if dst.HGap == 0 {
		dst.HGap = src.HGap
	}
	if dst.MaxChannelIterations == 0 {
		dst.MaxChannelIterations = src.MaxChannelIterations
	}
}
