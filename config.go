package lispcore

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	toml "github.com/pelletier/go-toml/v2"
)

// Config is a path-keyed typed map, generalized from the teacher's
// grammar/compiler settings to the six interpreter-lifecycle options
// named in spec §6. Like the teacher's Config it is intentionally
// loose (string path -> typed value) rather than a fixed struct, so
// RegisterErrorCode-style host extensions can stash their own options
// alongside the built-in ones without changing this type.
type Config map[string]*cfgVal

// Opt* are the six option paths spec §6 names. The prefix-free naming
// (no "interp." namespace, unlike the teacher's "grammar."/"compiler."
// prefixes) keeps TOML config files flat.
const (
	OptAllowRedef   = "allow-redef"
	OptGenDebugInfo = "gen-debug-info"
	OptTCE          = "tail-call-elimination"
	OptHyperGC      = "hyper-gc"
	OptMemLimit     = "mem-limit"
	OptStackLimit   = "stack-limit"
)

// NewConfig creates a configuration object primed with the defaults
// spec §6 describes: redefinition disallowed, debug info off,
// tail-call elimination on, hyper-GC off, no memory or stack ceiling.
func NewConfig() *Config {
	m := make(Config)
	m.SetBool(OptAllowRedef, false)
	m.SetBool(OptGenDebugInfo, false)
	m.SetBool(OptTCE, true)
	m.SetBool(OptHyperGC, false)
	m.SetInt(OptMemLimit, 0)
	m.SetInt(OptStackLimit, 0)
	return &m
}

// LoadFile merges TOML-encoded overrides from path into cfg, following
// the teacher's pattern of layering config on top of built-in defaults
// (config.go's NewConfig) rather than replacing them outright.
func (c *Config) LoadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "reading config file %q", path)
	}
	var overrides map[string]any
	if err := toml.Unmarshal(raw, &overrides); err != nil {
		return errors.Wrapf(err, "parsing config file %q", path)
	}
	for path, v := range overrides {
		switch tv := v.(type) {
		case bool:
			c.SetBool(path, tv)
		case int64:
			c.SetInt(path, int(tv))
		case string:
			c.SetString(path, tv)
		default:
			return errors.Errorf("config key %q has unsupported type %T", path, v)
		}
	}
	return nil
}

type cfgValType int

const (
	cfgValTypeUndefined cfgValType = iota
	cfgValTypeBool
	cfgValTypeInt
	cfgValTypeString
)

func (vt cfgValType) String() string {
	return map[cfgValType]string{
		cfgValTypeUndefined: "undefined",
		cfgValTypeBool:      "bool",
		cfgValTypeInt:       "int",
		cfgValTypeString:    "string",
	}[vt]
}

type cfgVal struct {
	typ      cfgValType
	asBool   bool
	asInt    int
	asString string
}

func (v *cfgVal) assignType(vt cfgValType) {
	if v.typ != vt && v.typ != cfgValTypeUndefined {
		panic(fmt.Sprintf("can't assign `%s` to type `%s`", vt, v.typ))
	}
	v.typ = vt
}

func (v *cfgVal) checkType(vt cfgValType) {
	if v.typ != vt {
		panic(fmt.Sprintf("can't retrieve `%s` from `%s` variable", vt, v.typ))
	}
}

func (c *Config) SetBool(path string, v bool) {
	(*c)[path] = &cfgVal{}
	(*c)[path].assignType(cfgValTypeBool)
	(*c)[path].asBool = v
}

func (c *Config) SetInt(path string, v int) {
	(*c)[path] = &cfgVal{}
	(*c)[path].assignType(cfgValTypeInt)
	(*c)[path].asInt = v
}

func (c *Config) SetString(path string, v string) {
	(*c)[path] = &cfgVal{}
	(*c)[path].assignType(cfgValTypeString)
	(*c)[path].asString = v
}

func (c *Config) GetBool(path string) bool {
	if val, ok := (*c)[path]; ok {
		val.checkType(cfgValTypeBool)
		return val.asBool
	}
	panic(fmt.Sprintf("bool setting `%s` does not exist", path))
}

func (c *Config) GetInt(path string) int {
	if val, ok := (*c)[path]; ok {
		val.checkType(cfgValTypeInt)
		return val.asInt
	}
	panic(fmt.Sprintf("int setting `%s` does not exist", path))
}

func (c *Config) GetString(path string) string {
	if val, ok := (*c)[path]; ok {
		val.checkType(cfgValTypeString)
		return val.asString
	}
	panic(fmt.Sprintf("string setting `%s` does not exist", path))
}
