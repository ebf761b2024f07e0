package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

func tomlError(file string, err error) error {
	var strict *toml.StrictMissingError
	if errors.As(err, &strict) && len(strict.Errors) > 0 {
		de := strict.Errors[0]
		line, col := de.Position()
		return &KeyError{
			File:   file,
			Key:    strings.Join(de.Key(), "."),
			Line:   line,
			Column: col,
			Err:    fmt.Errorf("%w: unknown key", ErrInvalidValue),
		}
	}
	var de *toml.DecodeError
	if errors.As(err, &de) {
		line, col := de.Position()
		return &KeyError{
			File:   file,
			Key:    strings.Join(de.Key(), "."),
			Line:   line,
			Column: col,
			Err:    fmt.Errorf("%w: %s", ErrInvalidValue, de.Error()),
		}
	}
	return &KeyError{File: file, Err: fmt.Errorf("%w: %w", ErrInvalidValue, err)}
}

func yamlError(file string, err error) error {
	var te *yaml.TypeError
	if errors.As(err, &te) && len(te.Errors) > 0 {
		msg := te.Errors[0]
		var line int
		if _, scanErr := fmt.Sscanf(msg, "line %d:", &line); scanErr == nil {
			msg = strings.TrimSpace(msg[strings.IndexByte(msg, ':')+1:])
		}
		return &KeyError{File: file, Line: line, Err: fmt.Errorf("%w: %s", ErrInvalidValue, msg)}
	}
	return &KeyError{File: file, Err: fmt.Errorf("%w: %w", ErrInvalidValue, err)}
}

func jsonError(file string, data []byte, err error) error {
	var te *json.UnmarshalTypeError
	if errors.As(err, &te) {
		line, col := position(data, te.Offset)
		return &KeyError{
			File:   file,
			Key:    te.Field,
			Line:   line,
			Column: col,
			Err:    fmt.Errorf("%w: expected %s, got %s", ErrInvalidValue, te.Type, te.Value),
		}
	}
	var se *json.SyntaxError
	if errors.As(err, &se) {
		line, col := position(data, se.Offset)
		return &KeyError{File: file, Line: line, Column: col, Err: fmt.Errorf("%w: %w", ErrInvalidValue, err)}
	}
	return &KeyError{File: file, Err: fmt.Errorf("%w: %w", ErrInvalidValue, err)}
}

// position converts a byte offset into a 1-based line and column.
func position(data []byte, offset int64) (int, int) {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	before := data[:offset]
	line := bytes.Count(before, []byte("\n")) + 1
	col := int(offset) - bytes.LastIndexByte(before, '\n')
	return line, col
}
