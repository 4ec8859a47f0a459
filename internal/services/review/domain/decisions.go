package domain

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed decisions.schema.json
var decisionsSchemaJSON string

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

// ParseDecisions validates a decisions file against the embedded schema and
// returns the decoded decisions. Duplicate ids are rejected so one queue
// item cannot receive two verdicts in a single file
func ParseDecisions(raw []byte) ([]Decision, error) {
	value, err := decodeStrict(raw)
	if err != nil {
		return nil, fmt.Errorf("decode decisions: %w", err)
	}

	schema, err := loadSchema()
	if err != nil {
		return nil, fmt.Errorf("load decisions schema: %w", err)
	}
	if err := schema.Validate(value); err != nil {
		return nil, fmt.Errorf("decisions file invalid: %w", err)
	}

	normalized, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("normalize decisions: %w", err)
	}

	var file struct {
		Decisions []Decision `json:"decisions"`
	}
	if err := json.Unmarshal(normalized, &file); err != nil {
		return nil, fmt.Errorf("unmarshal decisions: %w", err)
	}

	seen := make(map[string]struct{}, len(file.Decisions))
	for i, d := range file.Decisions {
		id := strings.ToLower(strings.TrimSpace(d.ID))
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("decisions[%d]: duplicate id %s", i, d.ID)
		}
		seen[id] = struct{}{}
	}
	return file.Decisions, nil
}

func loadSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		compiler.AssertFormat = true

		if err := compiler.AddResource("decisions.schema.json",
			strings.NewReader(decisionsSchemaJSON)); err != nil {
			compileErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		compiledSchema, compileErr = compiler.Compile("decisions.schema.json")
	})
	return compiledSchema, compileErr
}

func decodeStrict(raw []byte) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("file is empty")
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("file contains trailing content")
	}
	return value, nil
}
