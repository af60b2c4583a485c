package cf

import (
	"fmt"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"reflect"
)

// Load binds the values of data onto the exported fields of cf, matching keys against `cf` tags (or field names).
// Fields missing from data keep their current value. Unknown keys are an error.
//
func Load(data map[string]interface{}, cf interface{}) error {
	cfV := reflect.ValueOf(cf)
	if cfV.Kind() != reflect.Ptr || cfV.Elem().Kind() != reflect.Struct {
		return errors.Errorf("cf type [%s] not pointer to struct", cfV.Type())
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "cf",
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		Result:           cf,
	})
	if err != nil {
		return errors.Wrap(err, "error creating decoder")
	}
	if err := decoder.Decode(CleanUpMapValue(data)); err != nil {
		return errors.Wrapf(err, "error binding [%s]", cfV.Elem().Type())
	}
	return nil
}

// Dump renders cf as an aligned key/value block for logging.
func Dump(label string, cf interface{}) string {
	cfV := reflect.ValueOf(cf)
	if cfV.Kind() == reflect.Ptr {
		cfV = cfV.Elem()
	}
	if cfV.Kind() != reflect.Struct {
		return ""
	}
	out := label + " {\n"
	format := fmt.Sprintf("\t%%-%ds %%v\n", maxKeyLength(cfV))
	for i := 0; i < cfV.NumField(); i++ {
		if cfV.Field(i).CanInterface() {
			out += fmt.Sprintf(format, keyName(cfV.Type().Field(i)), cfV.Field(i).Interface())
		}
	}
	out += "}\n"
	return out
}

func keyName(v reflect.StructField) string {
	if tag := v.Tag.Get("cf"); tag != "" {
		return tag
	}
	return v.Name
}

func maxKeyLength(cfV reflect.Value) int {
	max := 0
	for i := 0; i < cfV.NumField(); i++ {
		if l := len(keyName(cfV.Type().Field(i))); l > max {
			max = l
		}
	}
	return max
}
