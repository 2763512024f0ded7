package content

import (
	"encoding/json"
	"strings"
)

// Draft.js raw documents are handled as generic JSON trees so that fields the
// service does not know about survive a parse/serialize round trip.

const codeBlockType = "code-block"

// ParseDraftDocument decodes a serialized draft.js raw content state.
func ParseDraftDocument(body string) (map[string]any, error) {
	var doc map[string]any
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// SerializeDraftDocument encodes the document back into a message body.
func SerializeDraftDocument(doc map[string]any) (string, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// FirstBlock returns the first content block of the document, or nil.
func FirstBlock(doc map[string]any) map[string]any {
	blocks, ok := doc["blocks"].([]any)
	if !ok || len(blocks) == 0 {
		return nil
	}
	block, _ := blocks[0].(map[string]any)
	return block
}

// IsCodeBlock reports whether the block is a draft.js code block.
func IsCodeBlock(block map[string]any) bool {
	blockType, _ := block["type"].(string)
	return blockType == codeBlockType
}

// BlockText returns the plain-text rendering of a block.
func BlockText(block map[string]any) string {
	text, _ := block["text"].(string)
	return text
}

// TagBlockSyntax records the detected language on the block's data map.
func TagBlockSyntax(block map[string]any, language string) {
	data, ok := block["data"].(map[string]any)
	if !ok {
		data = map[string]any{}
		block["data"] = data
	}
	data["syntax"] = strings.ToLower(language)
}
