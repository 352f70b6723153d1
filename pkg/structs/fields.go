package structs

import (
	"github.com/oleiade/reflections"
	"github.com/pkg/errors"
)

// GetField returns the value of the provided obj field. obj can whether be a structure or pointer to structure.
func GetField(obj any, name string) (any, error) {
	ok, err := reflections.HasField(obj, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Errorf("unknown field %s", name)
	}

	return reflections.GetField(obj, name)
}

// Project returns the provided obj fields indexed by their names.
// An empty names list projects every exported field.
func Project(obj any, names ...string) (map[string]any, error) {
	if len(names) == 0 {
		return reflections.Items(obj)
	}

	projection := make(map[string]any, len(names))
	for _, name := range names {
		v, err := GetField(obj, name)
		if err != nil {
			return nil, err
		}
		projection[name] = v
	}
	return projection, nil
}
