package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"complyview/internal/model"
)

// ResultSet is a decoded results file.
type ResultSet struct {
	Entries        []model.Entry
	StandardParams []model.StandardParam
	Chunks         int
}

type wireChunk struct {
	ChunkIndex     *int            `json:"chunk_index"`
	Compliance     []wireEntry     `json:"compliance"`
	StandardParams json.RawMessage `json:"standard_params"`
}

type wireEntry struct {
	Parameter     json.RawMessage `json:"parameter"`
	ActualValue   json.RawMessage `json:"actual_value"`
	ExpectedValue json.RawMessage `json:"expected_value"`
	IsCompliant   json.RawMessage `json:"is_compliant"`
	Explanation   json.RawMessage `json:"explanation"`
}

// ParseResults decodes either a list of {"chunk_index", "compliance"} chunks
// or a single {"compliance", "standard_params"} object.
func ParseResults(r io.Reader) (ResultSet, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return ResultSet{}, err
	}
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return ResultSet{}, errors.New("results: empty input")
	}

	var chunks []wireChunk
	switch b[0] {
	case '[':
		if err := json.Unmarshal(b, &chunks); err != nil {
			return ResultSet{}, fmt.Errorf("results: decode chunk list: %w", err)
		}
	case '{':
		var one wireChunk
		if err := json.Unmarshal(b, &one); err != nil {
			return ResultSet{}, fmt.Errorf("results: decode object: %w", err)
		}
		chunks = []wireChunk{one}
	default:
		return ResultSet{}, errors.New("results: expected a JSON list or object")
	}

	var rs ResultSet
	params := map[string]string{}
	for i, c := range chunks {
		idx := i
		if c.ChunkIndex != nil {
			idx = *c.ChunkIndex
		}
		for _, we := range c.Compliance {
			rs.Entries = append(rs.Entries, model.Entry{
				ChunkIndex:    idx,
				Parameter:     wireText(we.Parameter),
				ActualValue:   wireText(we.ActualValue),
				ExpectedValue: wireText(we.ExpectedValue),
				IsCompliant:   wireBool(we.IsCompliant),
				Explanation:   wireText(we.Explanation),
			})
		}
		if err := mergeStandardParams(params, c.StandardParams); err != nil {
			return ResultSet{}, err
		}
	}
	rs.Chunks = len(chunks)

	names := make([]string, 0, len(params))
	for k := range params {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		rs.StandardParams = append(rs.StandardParams, model.StandardParam{Name: k, Value: params[k]})
	}
	return rs, nil
}

func mergeStandardParams(dst map[string]string, raw json.RawMessage) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return fmt.Errorf("results: decode standard_params: %w", err)
	}
	for k, v := range m {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		dst[k] = wireText(v)
	}
	return nil
}

// wireText renders a string or number field; anything missing becomes the
// "non stated" placeholder.
func wireText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return model.NonStated
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	var bl bool
	if err := json.Unmarshal(raw, &bl); err == nil {
		return strconv.FormatBool(bl)
	}
	return string(raw)
}

// wireBool accepts a JSON bool or a "true"/"false" string.
func wireBool(raw json.RawMessage) bool {
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.EqualFold(strings.TrimSpace(s), "true")
	}
	return false
}
