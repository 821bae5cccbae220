package layout

import "strings"

// Rule maps any of its keywords to a fill color. Keywords match as
// case-insensitive substrings.
type Rule struct {
	Keywords []string `json:"keywords" toml:"keywords"`
	Color    string   `json:"color" toml:"color"`
}

func (r Rule) matches(lower string) bool {
	for _, k := range r.Keywords {
		if k != "" && strings.Contains(lower, strings.ToLower(k)) {
			return true
		}
	}
	return false
}

// Palette colors clusters by module name and nodes by class name. The first
// matching rule wins; unmatched names get the fallback.
type Palette struct {
	Modules        []Rule            `json:"modules" toml:"modules"`
	ModuleFallback string            `json:"module_fallback" toml:"module_fallback"`
	Classes        []Rule            `json:"classes" toml:"classes"`
	ClassNames     map[string]string `json:"class_names" toml:"class_names"`
	ClassFallback  string            `json:"class_fallback" toml:"class_fallback"`
}

// DefaultPalette returns the built-in color table.
func DefaultPalette() Palette {
	return Palette{
		Modules: []Rule{
			{Keywords: []string{"exception", "error"}, Color: "#ffebee"},
			{Keywords: []string{"processor", "analyzer"}, Color: "#e8f5e8"},
			{Keywords: []string{"config", "manager"}, Color: "#fff3e0"},
			{Keywords: []string{"model", "data"}, Color: "#e3f2fd"},
		},
		ModuleFallback: "#f5f5f5",
		Classes: []Rule{
			{Keywords: []string{"exception", "error"}, Color: "#ffcdd2"},
			{Keywords: []string{"analyzer", "processor"}, Color: "#c8e6c9"},
			{Keywords: []string{"config", "manager"}, Color: "#ffe0b2"},
		},
		ClassNames:    map[string]string{"Enum": "#e1bee7", "object": "#e1bee7"},
		ClassFallback: "#f5f5f5",
	}
}

// Extend returns a copy of p with extra rules tried before the existing ones.
func (p Palette) Extend(modules, classes []Rule) Palette {
	p.Modules = append(append([]Rule{}, modules...), p.Modules...)
	p.Classes = append(append([]Rule{}, classes...), p.Classes...)
	return p
}

// ModuleColor returns the cluster color for a module name.
func (p Palette) ModuleColor(module string) string {
	lower := strings.ToLower(module)
	for _, r := range p.Modules {
		if r.matches(lower) {
			return r.Color
		}
	}
	return p.ModuleFallback
}

// ClassColor returns the node color for a bare class name.
func (p Palette) ClassColor(class string) string {
	lower := strings.ToLower(class)
	for _, r := range p.Classes {
		if r.matches(lower) {
			return r.Color
		}
	}
	if c, ok := p.ClassNames[class]; ok {
		return c
	}
	return p.ClassFallback
}
