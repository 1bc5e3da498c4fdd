package notify

import (
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
)

var validate = validator.New()

// decodeArg decodes a dove channel's loosely-typed `arg` map into a typed
// config struct and validates required fields, mirroring the agent
// manifest's own config-decoding pipeline (runtime/config.go).
func decodeArg(arg map[string]any, out any) error {
	if err := mapstructure.Decode(arg, out); err != nil {
		return err
	}
	return validate.Struct(out)
}
