// Package decls is the read-only declaration lookup service: pre-written
// signatures for builtins and library modules, keyed by dotted module path and
// symbol name and gated by a target language version. The inference core
// treats it purely as an oracle; it does not validate the corpus itself.
package decls

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"redshank/pkg/types"
)

//go:embed corpus/*.yaml
var corpusFS embed.FS

// Special marks corpus entries the narrowing engine gives dedicated meaning
// to. Detection goes through the resolved entry, not the syntactic name, so a
// shadowed `isinstance` stops narrowing.
type Special int

const (
	SpecialNone Special = iota
	SpecialIsInstance
	SpecialIsSubclass
	SpecialBool
	SpecialLen
)

// Entry is one resolved declaration.
type Entry struct {
	Name    string
	Type    types.Type
	Special Special
}

// Oracle is the lookup contract the checker depends on.
type Oracle interface {
	Lookup(modulePath, qualifiedName string) (Entry, bool)
	ModuleAttrs(modulePath string) (map[string]types.Type, bool)
}

// Corpus is an Oracle backed by parsed declaration files.
type Corpus struct {
	version version
	modules map[string]map[string]Entry
}

// Lookup finds a declaration by module path and symbol name.
func (c *Corpus) Lookup(modulePath, qualifiedName string) (Entry, bool) {
	syms, ok := c.modules[modulePath]
	if !ok {
		return Entry{}, false
	}
	e, ok := syms[qualifiedName]
	return e, ok
}

// Builtin is shorthand for a lookup in the builtins module.
func (c *Corpus) Builtin(name string) (Entry, bool) {
	return c.Lookup("builtins", name)
}

// ModuleAttrs returns every visible symbol of a module, for module-object
// attribute types.
func (c *Corpus) ModuleAttrs(modulePath string) (map[string]types.Type, bool) {
	syms, ok := c.modules[modulePath]
	if !ok {
		return nil, false
	}
	attrs := make(map[string]types.Type, len(syms))
	for name, e := range syms {
		attrs[name] = e.Type
	}
	return attrs, true
}

// LoadEmbedded parses the embedded corpus for the given target version
// (e.g. "3.11").
func LoadEmbedded(targetVersion string) (*Corpus, error) {
	v, err := parseVersion(targetVersion)
	if err != nil {
		return nil, err
	}
	c := &Corpus{version: v, modules: make(map[string]map[string]Entry)}
	err = fs.WalkDir(corpusFS, "corpus", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := corpusFS.ReadFile(path)
		if err != nil {
			return err
		}
		return c.loadFile(path, data)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

type fileDoc struct {
	Module  string      `yaml:"module"`
	Symbols []symbolDoc `yaml:"symbols"`
}

type symbolDoc struct {
	Name    string    `yaml:"name"`
	Since   string    `yaml:"since,omitempty"`
	Until   string    `yaml:"until,omitempty"`
	Special string    `yaml:"special,omitempty"`
	Type    yaml.Node `yaml:"type"`
}

// loadFile parses one corpus file; files may hold several YAML documents,
// one module each.
func (c *Corpus) loadFile(path string, data []byte) error {
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	for {
		var doc fileDoc
		err := dec.Decode(&doc)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("parsing %s: %w", path, err)
		}
		if err := c.loadDoc(path, doc); err != nil {
			return err
		}
	}
	return nil
}

func (c *Corpus) loadDoc(path string, doc fileDoc) error {
	if doc.Module == "" {
		return fmt.Errorf("%s: missing module path", path)
	}
	syms := c.modules[doc.Module]
	if syms == nil {
		syms = make(map[string]Entry)
		c.modules[doc.Module] = syms
	}
	for _, sd := range doc.Symbols {
		if !c.versionAllows(sd.Since, sd.Until) {
			continue
		}
		t, err := decodeType(&sd.Type)
		if err != nil {
			return fmt.Errorf("%s: symbol %s: %w", path, sd.Name, err)
		}
		syms[sd.Name] = Entry{Name: sd.Name, Type: t, Special: specialFromString(sd.Special)}
	}
	return nil
}

func specialFromString(s string) Special {
	switch s {
	case "isinstance":
		return SpecialIsInstance
	case "issubclass":
		return SpecialIsSubclass
	case "bool":
		return SpecialBool
	case "len":
		return SpecialLen
	default:
		return SpecialNone
	}
}

func (c *Corpus) versionAllows(since, until string) bool {
	if since != "" {
		v, err := parseVersion(since)
		if err == nil && c.version.less(v) {
			return false
		}
	}
	if until != "" {
		v, err := parseVersion(until)
		if err == nil && !c.version.less(v) {
			return false
		}
	}
	return true
}

type version struct{ major, minor int }

func (v version) less(o version) bool {
	if v.major != o.major {
		return v.major < o.major
	}
	return v.minor < o.minor
}

func parseVersion(s string) (version, error) {
	parts := strings.SplitN(s, ".", 2)
	if len(parts) != 2 {
		return version{}, fmt.Errorf("bad version %q", s)
	}
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return version{}, fmt.Errorf("bad version %q", s)
	}
	minor, err := strconv.Atoi(parts[1])
	if err != nil {
		return version{}, fmt.Errorf("bad version %q", s)
	}
	return version{major, minor}, nil
}

// builtinClasses maps corpus class names to the algebra's interned classes.
var builtinClasses = map[string]*types.ClassType{
	"object":   types.ObjectClass,
	"type":     types.TypeClass,
	"int":      types.IntClass,
	"bool":     types.BoolClass,
	"str":      types.StrClass,
	"bytes":    types.BytesClass,
	"NoneType": types.NoneTypeClass,
	"function": types.FunctionClass,
	"tuple":    types.TupleClass,
	"list":     types.ListClass,
	"set":      types.SetClass,
	"module":   types.ModuleClass,
	"Enum":     types.EnumClass,
}

// decodeType turns a structured corpus type expression into an algebra type.
// Supported forms:
//
//	class: int               -> the class object type
//	instance: str            -> an instance of the class
//	none: true               -> None
//	unknown: true            -> Unknown
//	union: [<type>, ...]
//	callable: {params: [<type>...], return: <type>}
func decodeType(n *yaml.Node) (types.Type, error) {
	if n == nil || n.Kind == 0 {
		return types.Unknown, nil
	}
	if n.Kind != yaml.MappingNode || len(n.Content) < 2 {
		return nil, fmt.Errorf("expected a single-key type mapping at line %d", n.Line)
	}
	key, value := n.Content[0].Value, n.Content[1]
	switch key {
	case "class":
		cls, ok := builtinClasses[value.Value]
		if !ok {
			return nil, fmt.Errorf("unknown class %q", value.Value)
		}
		return cls, nil
	case "instance":
		cls, ok := builtinClasses[value.Value]
		if !ok {
			return nil, fmt.Errorf("unknown class %q", value.Value)
		}
		return types.NewInstance(cls), nil
	case "none":
		return types.None, nil
	case "unknown":
		return types.Unknown, nil
	case "union":
		if value.Kind != yaml.SequenceNode {
			return nil, fmt.Errorf("union wants a sequence at line %d", value.Line)
		}
		members := make([]types.Type, 0, len(value.Content))
		for _, m := range value.Content {
			t, err := decodeType(m)
			if err != nil {
				return nil, err
			}
			members = append(members, t)
		}
		return types.NewUnionType(members...), nil
	case "callable":
		var raw struct {
			Params   []yaml.Node `yaml:"params"`
			Return   yaml.Node   `yaml:"return"`
			Variadic bool        `yaml:"variadic"`
		}
		if err := value.Decode(&raw); err != nil {
			return nil, err
		}
		params := make([]types.Type, 0, len(raw.Params))
		for i := range raw.Params {
			t, err := decodeType(&raw.Params[i])
			if err != nil {
				return nil, err
			}
			params = append(params, t)
		}
		ret, err := decodeType(&raw.Return)
		if err != nil {
			return nil, err
		}
		ct := types.NewCallable(ret, params...)
		ct.Sig.IsVariadic = raw.Variadic
		return ct, nil
	default:
		return nil, fmt.Errorf("unknown type form %q", key)
	}
}
