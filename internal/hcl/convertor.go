package hcl

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/seedvault/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Converter is the HCL-specific implementation of the config.Converter
// interface. It evaluates captured option expressions and populates a
// kind-specific options struct using reflection, honoring `sv` struct tags.
type Converter struct{}

// NewConverter creates a new HCL converter.
func NewConverter() *Converter {
	return &Converter{}
}

// DecodeOptions evaluates each option expression and assigns it to the
// matching struct field. Option names with no matching field are rejected so
// configuration typos surface at load time instead of silently defaulting.
func (c *Converter) DecodeOptions(ctx context.Context, target any, opts map[string]hcl.Expression) error {
	if len(opts) == 0 {
		return nil
	}
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Decoding strategy options.", "count", len(opts))

	targetVal := reflect.ValueOf(target)
	if targetVal.Kind() != reflect.Ptr || targetVal.IsNil() {
		return fmt.Errorf("options target must be a non-nil pointer")
	}
	structVal := targetVal.Elem()
	structType := structVal.Type()

	fields := make(map[string]reflect.Value, structType.NumField())
	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		fieldVal := structVal.Field(i)
		if !fieldVal.CanSet() {
			continue
		}
		name := strings.ToLower(field.Name)
		if tag := field.Tag.Get("sv"); tag != "" {
			name = strings.Split(tag, ",")[0]
		}
		fields[name] = fieldVal
	}

	for name, expr := range opts {
		fieldVal, ok := fields[name]
		if !ok {
			return fmt.Errorf("unknown option %q", name)
		}
		val, diags := expr.Value(nil)
		if diags.HasErrors() {
			return fmt.Errorf("evaluating option %q: %w", name, diags)
		}
		if err := c.decode(val, fieldVal.Addr().Interface()); err != nil {
			return fmt.Errorf("failed to decode option %q: %w", name, err)
		}
	}
	return nil
}

// decode handles the conversion of a cty.Value into a Go pointer.
func (c *Converter) decode(val cty.Value, goVal any) error {
	valPtr := reflect.ValueOf(goVal)
	impliedType, err := gocty.ImpliedType(valPtr.Elem().Interface())
	if err != nil {
		return gocty.FromCtyValue(val, goVal)
	}

	convertedVal, err := convert.Convert(val, impliedType)
	if err != nil {
		return fmt.Errorf("cannot convert %s to required type %s: %w", val.Type().FriendlyName(), impliedType.FriendlyName(), err)
	}
	return gocty.FromCtyValue(convertedVal, goVal)
}
