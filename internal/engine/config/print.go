package config

import (
	"fmt"
	"io"
	"reflect"
	"time"

	"github.com/cmpt-474-edu-monitor/sdk/internal/colors"
)

// Print writes v, usually the resolved Conf, as an indented tree. Secrets
// are masked.
func (c *Compositor) Print(w io.Writer, v any) {
	c.printConfig(w, v, "  ")
}

func (c *Compositor) printConfig(w io.Writer, v any, prefix string) {
	val := reflect.ValueOf(v)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	typ := val.Type()

	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)

		fieldName := fieldType.Name
		if tag, ok := fieldType.Tag.Lookup("mapstructure"); ok {
			if tag != "" {
				fieldName = tag
			}
		}

		coloredFieldName := colors.SetBrightCyan(fieldName)

		if field.Kind() == reflect.Ptr {
			if field.IsNil() {
				fmt.Fprintf(w, "%s%s: %s\n", prefix, coloredFieldName, colors.SetBrightRed("<nil>"))
				continue
			}
			field = field.Elem()
		}

		switch {
		case fieldName == "secret":
			fmt.Fprintf(w, "%s%s: %s\n", prefix, coloredFieldName, colors.SetBrightYellow(`"***"`))
		case field.Type() == reflect.TypeOf(time.Duration(0)):
			duration := field.Interface().(time.Duration)
			fmt.Fprintf(w, "%s%s: %s\n", prefix, coloredFieldName, colors.SetBrightYellow(duration.String()))
		case field.Kind() == reflect.Struct:
			fmt.Fprintf(w, "%s%s:\n", prefix, coloredFieldName)
			c.printConfig(w, field.Addr().Interface(), prefix+"  ")
		case field.Kind() == reflect.Slice && field.Type().Elem().Kind() == reflect.Struct:
			fmt.Fprintf(w, "%s%s:\n", prefix, coloredFieldName)
			for j := 0; j < field.Len(); j++ {
				fmt.Fprintf(w, "%s  - %d:\n", prefix, j)
				c.printConfig(w, field.Index(j).Addr().Interface(), prefix+"      ")
			}
		case field.Kind() == reflect.Slice, field.Kind() == reflect.Map:
			fmt.Fprintf(w, "%s%s: %s\n",
				prefix,
				coloredFieldName,
				colors.SetBrightYellow(fmt.Sprintf("%v", field.Interface())))
		default:
			value := field.Interface()
			valueStr := fmt.Sprintf("%v", value)
			if field.Kind() == reflect.String {
				valueStr = fmt.Sprintf("\"%s\"", value)
			}
			fmt.Fprintf(w, "%s%s: %s\n",
				prefix,
				coloredFieldName,
				colors.SetBrightYellow(valueStr))
		}
	}
}
