package rbac

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/zippy-delivery/zippy-console/internal/identity"
)

type tableFile struct {
	Roles map[string]map[string][]string `yaml:"roles"`
}

// ParseTable decodes a YAML permission document of the form
//
//	roles:
//	  manager:
//	    categories: [view, create]
func ParseTable(data []byte) (Table, error) {
	var doc tableFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Table{}, fmt.Errorf("rbac: decode table: %w", err)
	}
	if len(doc.Roles) == 0 {
		return Table{}, fmt.Errorf("rbac: table defines no roles")
	}
	spec := make(Spec, len(doc.Roles))
	for rawRole, resources := range doc.Roles {
		role, err := identity.ParseRole(rawRole)
		if err != nil {
			return Table{}, fmt.Errorf("rbac: %w", err)
		}
		if _, dup := spec[role]; dup {
			return Table{}, fmt.Errorf("rbac: duplicate role %q", rawRole)
		}
		perRole := make(map[Resource][]Action, len(resources))
		for resource, actions := range resources {
			converted := make([]Action, 0, len(actions))
			for _, a := range actions {
				converted = append(converted, Action(a))
			}
			perRole[Resource(resource)] = converted
		}
		spec[role] = perRole
	}
	return NewTable(spec)
}

// LoadTable returns DefaultTable when path is empty, otherwise the table
// described by the YAML file at path.
func LoadTable(path string) (Table, error) {
	if path == "" {
		return DefaultTable(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("rbac: read table: %w", err)
	}
	return ParseTable(data)
}
