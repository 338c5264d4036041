package permissions

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed roles.yaml
var defaultRolesYAML []byte

// Catalog maps a staff role name to its capabilities.
type Catalog map[string]Set

type roleFile struct {
	Roles []struct {
		Name         string   `yaml:"name"`
		Description  string   `yaml:"description"`
		Capabilities []string `yaml:"capabilities"`
	} `yaml:"roles"`
}

// DefaultCatalog returns the embedded role definitions.
func DefaultCatalog() Catalog {
	catalog, err := ParseCatalog(defaultRolesYAML)
	if err != nil {
		panic(fmt.Sprintf("permissions: embedded roles.yaml: %v", err))
	}
	return catalog
}

// LoadCatalog reads role definitions from path, or the embedded ones when
// path is empty.
func LoadCatalog(path string) (Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("permissions: read %s: %w", path, err)
	}
	return ParseCatalog(data)
}

func ParseCatalog(data []byte) (Catalog, error) {
	var file roleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("permissions: parse roles: %w", err)
	}

	catalog := make(Catalog, len(file.Roles))
	for _, role := range file.Roles {
		name := strings.ToUpper(strings.TrimSpace(role.Name))
		if name == "" {
			return nil, fmt.Errorf("permissions: role without a name")
		}
		if _, dup := catalog[name]; dup {
			return nil, fmt.Errorf("permissions: duplicate role %s", name)
		}
		var set Set
		for _, entry := range role.Capabilities {
			caps, err := expand(entry)
			if err != nil {
				return nil, fmt.Errorf("permissions: role %s: %w", name, err)
			}
			set = set.Union(caps)
		}
		catalog[name] = set
	}
	return catalog, nil
}

func expand(entry string) (Set, error) {
	entry = strings.TrimSpace(entry)
	if entry == "*" {
		return All(), nil
	}
	if resource, ok := strings.CutSuffix(entry, ".*"); ok {
		r, err := parseResource(resource)
		if err != nil {
			return 0, err
		}
		var set Set
		for a := Action(0); a < actionCount; a++ {
			set = set.Add(Cap(r, a))
		}
		return set, nil
	}
	c, err := ParseCapability(entry)
	if err != nil {
		return 0, err
	}
	return NewSet(c), nil
}

// Known reports whether role is defined.
func (c Catalog) Known(role string) bool {
	_, ok := c[strings.ToUpper(role)]
	return ok
}

// Effective unions the capabilities of roles. Unknown roles grant nothing.
func (c Catalog) Effective(roles ...string) Set {
	var set Set
	for _, role := range roles {
		set = set.Union(c[strings.ToUpper(role)])
	}
	return set
}
