package types

import (
	"bytes"
	"encoding/json"
)

// JobDefinition is the schema-checked description of the work a job runs.
type JobDefinition struct {
	Model  string                 `json:"model"`
	Params map[string]interface{} `json:"params"`
}

// JobResult is the output a node reports when it completes a job. Only its
// size is retained on the ledger; the content lives behind ResultHash.
type JobResult struct {
	Output string `json:"output"`
}

// ValidateJobDefinition checks a decoded definition.
func ValidateJobDefinition(def *JobDefinition) error {
	if def == nil {
		return InputError(ErrNullJobDef, "job definition cannot be null")
	}
	if def.Model == "" {
		return InputError(ErrMissingModel, "job definition must include model name")
	}
	if def.Params == nil {
		return InputError(ErrMissingParams, "job definition must include params object")
	}
	if len(def.Model) > MaxModelNameLength {
		return InputError(ErrModelNameTooLong, "model name cannot exceed %d characters", MaxModelNameLength)
	}
	return nil
}

// ParseJobDefinition structurally decodes raw JSON into a definition,
// surfacing the same codes as ValidateJobDefinition for shape errors.
func ParseJobDefinition(raw json.RawMessage) (*JobDefinition, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, InputError(ErrNullJobDef, "job definition cannot be null")
	}

	var fields map[string]json.RawMessage
	if raw[0] != '{' || json.Unmarshal(raw, &fields) != nil {
		return nil, InputError(ErrInvalidJobDefType, "job definition must be an object")
	}

	def := &JobDefinition{}
	if m, ok := fields["model"]; !ok || json.Unmarshal(m, &def.Model) != nil {
		return nil, InputError(ErrMissingModel, "job definition must include model name")
	}
	if p, ok := fields["params"]; ok {
		p = bytes.TrimSpace(p)
		if len(p) == 0 || p[0] != '{' || json.Unmarshal(p, &def.Params) != nil {
			return nil, InputError(ErrMissingParams, "job definition must include params object")
		}
	}
	if err := ValidateJobDefinition(def); err != nil {
		return nil, err
	}
	return def, nil
}

// ValidateJobResult checks a decoded result.
func ValidateJobResult(res *JobResult) error {
	if res == nil {
		return InputError(ErrInvalidResultType, "job result must be an object")
	}
	if res.Output == "" {
		return InputError(ErrMissingOutput, "job result must include output")
	}
	if len(res.Output) > MaxResultSizeBytes {
		return InputError(ErrResultTooLarge, "job result output exceeds maximum size (%d bytes)", MaxResultSizeBytes)
	}
	return nil
}

// ParseJobResult structurally decodes raw JSON into a result.
func ParseJobResult(raw json.RawMessage) (*JobResult, error) {
	raw = bytes.TrimSpace(raw)
	var fields map[string]json.RawMessage
	if len(raw) == 0 || raw[0] != '{' || json.Unmarshal(raw, &fields) != nil {
		return nil, InputError(ErrInvalidResultType, "job result must be an object")
	}

	res := &JobResult{}
	if o, ok := fields["output"]; !ok || json.Unmarshal(o, &res.Output) != nil {
		return nil, InputError(ErrMissingOutput, "job result must include output")
	}
	if err := ValidateJobResult(res); err != nil {
		return nil, err
	}
	return res, nil
}
