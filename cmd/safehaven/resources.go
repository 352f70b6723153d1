package main

import (
	"fmt"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/mdouchement/safehaven/internal/model"
	"github.com/muesli/coral"
	"github.com/pkg/errors"
)

var (
	resourcesCmd = &coral.Command{
		Use:   "resources",
		Short: "Manage the resource catalog",
	}

	resourcesImportCmd = &coral.Command{
		Use:   "import FILE",
		Short: "Replace the resource catalog with the given YAML file",
		Args:  coral.ExactArgs(1),
		RunE: func(_ *coral.Command, args []string) error {
			konf, err := load()
			if err != nil {
				return err
			}

			resources, err := catalog(args[0])
			if err != nil {
				return err
			}

			a, err := bootstrap(konf)
			if err != nil {
				return err
			}
			defer a.Close()

			if err = a.db.ReplaceResources(resources); err != nil {
				return err
			}

			fmt.Printf("%d resource(s) imported\n", len(resources))
			return nil
		},
	}
)

// catalog reads the `resources` list of the given YAML file.
func catalog(filename string) ([]*model.Resource, error) {
	konf := koanf.New(".")
	if err := konf.Load(file.Provider(filename), yaml.Parser()); err != nil {
		return nil, errors.Wrap(err, "could not load catalog")
	}

	var resources []*model.Resource
	if err := konf.Unmarshal("resources", &resources); err != nil {
		return nil, errors.Wrap(err, "could not parse catalog")
	}

	for i, r := range resources {
		if r.ResourceType == "" || r.OrganizationName == "" {
			return nil, errors.Errorf("resource #%d: resource_type and organization_name are required", i+1)
		}
	}
	return resources, nil
}
