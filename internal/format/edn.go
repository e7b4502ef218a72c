package format

import (
	"bytes"
	"encoding/json"
	"io"
	"sort"
	"strconv"
	"strings"
)

// WriteEDN writes EDN for anything that marshals to JSON: structs go through
// their json tags first, then maps become keyword maps.
func WriteEDN(w io.Writer, v any, pretty bool) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var x any
	if err := json.Unmarshal(b, &x); err != nil {
		return err
	}
	var buf bytes.Buffer
	writeEDN(&buf, x, 0, pretty)
	buf.WriteByte('\n')
	_, err = w.Write(buf.Bytes())
	return err
}

func writeEDN(buf *bytes.Buffer, v any, level int, pretty bool) {
	switch t := v.(type) {
	case nil:
		buf.WriteString("nil")
	case bool:
		buf.WriteString(strconv.FormatBool(t))
	case string:
		buf.WriteString(strconv.Quote(t))
	case float64:
		if t == float64(int64(t)) {
			buf.WriteString(strconv.FormatInt(int64(t), 10))
		} else {
			buf.WriteString(strconv.FormatFloat(t, 'f', -1, 64))
		}
	case []any:
		buf.WriteByte('[')
		for i, it := range t {
			ednSep(buf, i, level+1, pretty)
			writeEDN(buf, it, level+1, pretty)
		}
		ednClose(buf, len(t), level, pretty)
		buf.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			ednSep(buf, i, level+1, pretty)
			buf.WriteByte(':')
			buf.WriteString(strings.ReplaceAll(strings.TrimSpace(k), " ", "-"))
			buf.WriteByte(' ')
			writeEDN(buf, t[k], level+1, pretty)
		}
		ednClose(buf, len(t), level, pretty)
		buf.WriteByte('}')
	default:
		buf.WriteString(strconv.Quote(strings.TrimSpace(string(mustJSON(t)))))
	}
}

func ednSep(buf *bytes.Buffer, i, level int, pretty bool) {
	switch {
	case pretty:
		buf.WriteByte('\n')
		buf.WriteString(strings.Repeat("  ", level))
	case i > 0:
		buf.WriteByte(' ')
	}
}

func ednClose(buf *bytes.Buffer, n, level int, pretty bool) {
	if pretty && n > 0 {
		buf.WriteByte('\n')
		buf.WriteString(strings.Repeat("  ", level))
	}
}

func mustJSON(v any) []byte {
	b, _ := json.Marshal(v)
	return b
}
