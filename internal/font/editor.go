package font

import (
	"encoding/json"
	"fmt"
)

// EditorExport is the JSON image format written by the badge font
// editor: the flattened segment byte stream plus its nominal
// dimensions.
type EditorExport struct {
	Width    int   `json:"width"`
	Height   int   `json:"height"`
	Segments int   `json:"segments"`
	Bytes    []int `json:"bytes"`
}

// ParseEditorExport decodes an editor export into an upload payload.
// Only the byte stream is used; the dimensions are implied by the
// segment layout.
func ParseEditorExport(data []byte) ([]byte, error) {
	var exp EditorExport
	if err := json.Unmarshal(data, &exp); err != nil {
		return nil, fmt.Errorf("font: invalid editor export: %w", err)
	}
	if len(exp.Bytes) == 0 {
		return nil, fmt.Errorf("font: editor export has no bytes")
	}
	payload := make([]byte, len(exp.Bytes))
	for i, n := range exp.Bytes {
		if n < 0 || n > 255 {
			return nil, fmt.Errorf("font: editor export byte %d out of range: %d", i, n)
		}
		payload[i] = byte(n)
	}
	return payload, nil
}
