package config

import (
	"fmt"
	"reflect"
	"strings"
	"time"
)

// mapstructureKeys walks a config struct and collects the dotted viper keys
// derived from its mapstructure tags. Viper only consults the environment
// during Unmarshal for keys it knows about, so every key is bound up front.
func mapstructureKeys(cfg interface{}, prefix string, out map[string]interface{}) error {
	v := reflect.ValueOf(cfg)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return fmt.Errorf("config: nil config")
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return fmt.Errorf("config: expected struct, got %s", v.Kind())
	}

	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		tag := field.Tag.Get("mapstructure")
		if tag == "-" {
			continue
		}
		name := strings.Split(tag, ",")[0]
		if name == "" {
			name = strings.ToLower(field.Name)
		}

		key := name
		if prefix != "" {
			key = prefix + "." + name
		}

		fv := v.Field(i)
		if isNestedStruct(fv) {
			if err := mapstructureKeys(fv.Interface(), key, out); err != nil {
				return err
			}
			continue
		}
		out[key] = fv.Interface()
	}
	return nil
}

// isNestedStruct reports whether a field should be recursed into rather
// than bound as a leaf key. time.Time is a leaf.
func isNestedStruct(v reflect.Value) bool {
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return false
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return false
	}
	if _, ok := v.Interface().(time.Time); ok {
		return false
	}
	return true
}
