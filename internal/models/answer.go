package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Answer is the value a candidate gave for one question. It arrives as a
// number, a numeric string, an option label or a boolean; the scoring engine
// resolves it to a single numeric value before any statistic sees it.
// The zero Answer means "unanswered".
type Answer struct {
	Number *float64
	Label  string
	Bool   *bool
}

func NumberAnswer(v float64) Answer { return Answer{Number: &v} }
func LabelAnswer(s string) Answer   { return Answer{Label: s} }
func BoolAnswer(b bool) Answer      { return Answer{Bool: &b} }

// IsEmpty reports whether no answer was given.
func (a Answer) IsEmpty() bool {
	return a.Number == nil && a.Bool == nil && a.Label == ""
}

func (a Answer) String() string {
	switch {
	case a.Number != nil:
		return strconv.FormatFloat(*a.Number, 'g', -1, 64)
	case a.Bool != nil:
		return strconv.FormatBool(*a.Bool)
	default:
		return a.Label
	}
}

func (a Answer) MarshalJSON() ([]byte, error) {
	switch {
	case a.Number != nil:
		return json.Marshal(*a.Number)
	case a.Bool != nil:
		return json.Marshal(*a.Bool)
	case a.Label != "":
		return json.Marshal(a.Label)
	default:
		return []byte("null"), nil
	}
}

func (a *Answer) UnmarshalJSON(data []byte) error {
	*a = Answer{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	switch data[0] {
	case '"':
		return json.Unmarshal(data, &a.Label)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return fmt.Errorf("answer: %w", err)
		}
		a.Bool = &b
		return nil
	default:
		var f float64
		if err := json.Unmarshal(data, &f); err != nil {
			return fmt.Errorf("answer must be a number, string or boolean: %w", err)
		}
		a.Number = &f
		return nil
	}
}

func (a *Answer) UnmarshalYAML(node *yaml.Node) error {
	*a = Answer{}
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("answer must be a scalar (line %d)", node.Line)
	}
	switch node.Tag {
	case "!!null":
		return nil
	case "!!int", "!!float":
		f, err := strconv.ParseFloat(node.Value, 64)
		if err != nil {
			return fmt.Errorf("answer %q: %w", node.Value, err)
		}
		a.Number = &f
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return err
		}
		a.Bool = &b
	default:
		a.Label = node.Value
	}
	return nil
}

func (a Answer) MarshalYAML() (interface{}, error) {
	switch {
	case a.Number != nil:
		return *a.Number, nil
	case a.Bool != nil:
		return *a.Bool, nil
	case a.Label != "":
		return a.Label, nil
	default:
		return nil, nil
	}
}
