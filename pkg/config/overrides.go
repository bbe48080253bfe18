package config

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"gopkg.in/yaml.v2"
)

// Overrides lists the settings where cfg differs from the defaults, one
// Tunable per differing scalar, list or map entry. Storing them with
// SetTunable reproduces cfg.
func Overrides(cfg *ConfigData) ([]Tunable, error) {
	have, err := toTree(cfg)
	if err != nil {
		return nil, err
	}
	want, err := toTree(DefaultConfigData())
	if err != nil {
		return nil, err
	}

	tunables := []Tunable{}
	if err := diffTree(nil, have, want, &tunables); err != nil {
		return nil, err
	}
	sort.Slice(tunables, func(i, j int) bool { return tunables[i].Path < tunables[j].Path })
	return tunables, nil
}

// ImportTunables stores every override of cfg and returns how many were
// written
func (s *SQLiteProvider) ImportTunables(cfg *ConfigData) (int, error) {
	tunables, err := Overrides(cfg)
	if err != nil {
		return 0, err
	}
	for _, t := range tunables {
		if err := s.SetTunable(t.Path, t.Value); err != nil {
			return 0, err
		}
	}
	return len(tunables), nil
}

func toTree(cfg *ConfigData) (interface{}, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	var tree interface{}
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, err
	}
	return tree, nil
}

func diffTree(path []string, have, want interface{}, out *[]Tunable) error {
	hm, hok := have.(map[interface{}]interface{})
	wm, wok := want.(map[interface{}]interface{})
	if hok && wok {
		for k, hv := range hm {
			if err := diffTree(append(path, fmt.Sprint(k)), hv, wm[k], out); err != nil {
				return err
			}
		}
		return nil
	}

	if reflect.DeepEqual(have, want) {
		return nil
	}

	value, err := yaml.Marshal(have)
	if err != nil {
		return err
	}
	*out = append(*out, Tunable{
		Path:  strings.Join(path, "."),
		Value: strings.TrimSpace(string(value)),
	})
	return nil
}
