package render

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Definition describes one template. Params become the query variables of
// the template's link and are always present (possibly empty) when rendering.
type Definition struct {
	Name   string   `yaml:"name" json:"name"`
	Params []string `yaml:"params" json:"params"`
	Source string   `yaml:"source" json:"source"`
}

// Names of the built-in templates.
const (
	ListItem = "listitem"
	Counter  = "counter"
	ClearBtn = "clearbtn"
)

// Defaults returns the built-in templates.
func Defaults() []Definition {
	return []Definition{
		{
			Name:   ListItem,
			Params: []string{"item_id", "title", "completed"},
			Source: `<li data-id="{{.item_id}}" class="{{if truthy .completed}}completed{{end}}">` +
				`<div class="view">` +
				`<input class="toggle" type="checkbox"{{if truthy .completed}} checked{{end}}>` +
				`<label>{{.title}}</label>` +
				`<button class="destroy"></button>` +
				`</div>` +
				`</li>`,
		},
		{
			Name:   Counter,
			Params: []string{"active"},
			Source: `{{$n := int .active}}<strong>{{$n}}</strong> item{{if ne $n 1}}s{{end}} left`,
		},
		{
			Name:   ClearBtn,
			Params: []string{"completed"},
			Source: `{{$n := int .completed}}{{if gt $n 0}}Clear completed ({{$n}}){{end}}`,
		},
	}
}

// templateFile is the structure of a template override file.
type templateFile struct {
	Templates []Definition `yaml:"templates" json:"templates"`
}

// LoadDefinitions reads template definitions from a YAML or JSON file.
// The format is chosen by extension; anything but .json is read as YAML.
func LoadDefinitions(path string) ([]Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read templates file: %w", err)
	}

	var file templateFile
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	} else {
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	}

	defs := make([]Definition, 0, len(file.Templates))
	for _, def := range file.Templates {
		if def.Name == "" {
			continue
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// truthy interprets query values the way the host sends them ("true", "1").
func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		b, err := strconv.ParseBool(t)
		return err == nil && b
	}
	return false
}

// toInt reads a numeric query value. Anything unparsable counts as zero.
func toInt(v any) int {
	switch t := v.(type) {
	case int:
		return t
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0
		}
		return n
	}
	return 0
}
