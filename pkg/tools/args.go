package tools

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// Arguments is the decoded argument payload shared by all operations.
// "topic" is accepted as an alias of "path"; limit accepts numbers and numeric strings.
type Arguments struct {
	Path  *string `mapstructure:"path"`
	Topic *string `mapstructure:"topic"`
	Limit int     `mapstructure:"limit"`
}

func (a Arguments) path() string {
	if a.Path != nil {
		return *a.Path
	}
	if a.Topic != nil {
		return *a.Topic
	}
	return ""
}

func (a Arguments) validate(op string) error {
	switch op {
	case OpHistory, OpDescribe, OpParents:
		if a.Path == nil && a.Topic == nil {
			return fmt.Errorf("%w: path is required", domain.ErrMalformedArguments)
		}
	}
	return nil
}

// parseArguments decodes a raw JSON object. An empty payload means no arguments.
func parseArguments(raw string) (Arguments, error) {
	var args Arguments

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return args, nil
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return args, fmt.Errorf("%w: %v", domain.ErrMalformedArguments, err)
	}
	if err := decodeWeak(fields, &args); err != nil {
		return args, fmt.Errorf("%w: %v", domain.ErrMalformedArguments, err)
	}
	return args, nil
}

func decodeWeak(input any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(input); err != nil {
		var merr *mapstructure.Error
		if errors.As(err, &merr) && len(merr.Errors) > 0 {
			return errors.New(strings.Join(merr.Errors, "; "))
		}
		return err
	}
	return nil
}
