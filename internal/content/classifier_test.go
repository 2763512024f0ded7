package content

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixedDetector struct {
	language string
	err      error
}

func (d fixedDetector) Detect(string) (string, error) {
	return d.language, d.err
}

func TestPrepareDraftBodyTagsFirstCodeBlock(t *testing.T) {
	classifier := NewClassifier(fixedDetector{language: "Python"}, zap.NewNop())

	body := `{"blocks":[{"key":"k","type":"code-block","text":"def f(): pass","data":{}}],"entityMap":{}}`
	tagged := classifier.PrepareDraftBody(body)

	doc, err := ParseDraftDocument(tagged)
	require.NoError(t, err)
	block := FirstBlock(doc)
	data, ok := block["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "python", data["syntax"])
}

func TestPrepareDraftBodyCreatesDataMapWhenMissing(t *testing.T) {
	classifier := NewClassifier(fixedDetector{language: "Rust"}, zap.NewNop())

	body := `{"blocks":[{"key":"k","type":"code-block","text":"fn main() {}"}],"entityMap":{}}`
	tagged := classifier.PrepareDraftBody(body)

	doc, err := ParseDraftDocument(tagged)
	require.NoError(t, err)
	data, ok := FirstBlock(doc)["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "rust", data["syntax"])
}

func TestPrepareDraftBodyPreservesUnrelatedFields(t *testing.T) {
	classifier := NewClassifier(fixedDetector{language: "Go"}, zap.NewNop())

	body := `{"blocks":[{"key":"k","type":"code-block","text":"func x()","data":{},"inlineStyleRanges":[{"offset":0,"length":4,"style":"BOLD"}]}],"entityMap":{"0":{"type":"LINK"}}}`
	tagged := classifier.PrepareDraftBody(body)

	doc, err := ParseDraftDocument(tagged)
	require.NoError(t, err)
	block := FirstBlock(doc)
	assert.Contains(t, block, "inlineStyleRanges")
	assert.Contains(t, doc, "entityMap")
}

func TestPrepareDraftBodyDetectorErrorLeavesBody(t *testing.T) {
	classifier := NewClassifier(fixedDetector{err: errors.New("boom")}, zap.NewNop())

	body := `{"blocks":[{"key":"k","type":"code-block","text":"???","data":{}}],"entityMap":{}}`
	assert.Equal(t, body, classifier.PrepareDraftBody(body))
}

func TestPrepareDraftBodyUnknownLanguageLeavesBody(t *testing.T) {
	classifier := NewClassifier(fixedDetector{language: LanguageUnknown}, zap.NewNop())

	body := `{"blocks":[{"key":"k","type":"code-block","text":"???","data":{}}],"entityMap":{}}`
	assert.Equal(t, body, classifier.PrepareDraftBody(body))
}

func TestPrepareDraftBodyNonCodeFirstBlockUntouched(t *testing.T) {
	classifier := NewClassifier(fixedDetector{language: "Go"}, zap.NewNop())

	body := `{"blocks":[{"key":"k","type":"unstyled","text":"hello","data":{}}],"entityMap":{}}`
	assert.Equal(t, body, classifier.PrepareDraftBody(body))
}

func TestPrepareDraftBodyMalformedJSONUntouched(t *testing.T) {
	classifier := NewClassifier(fixedDetector{language: "Go"}, zap.NewNop())

	body := `{"blocks": not-json`
	assert.Equal(t, body, classifier.PrepareDraftBody(body))
}

func TestPrepareDraftBodyEmptyBlocksUntouched(t *testing.T) {
	classifier := NewClassifier(fixedDetector{language: "Go"}, zap.NewNop())

	body := `{"blocks":[],"entityMap":{}}`
	assert.Equal(t, body, classifier.PrepareDraftBody(body))
}

func TestKeywordDetectorFindsGo(t *testing.T) {
	detector := NewKeywordDetector()

	language, err := detector.Detect("package main\n\nfunc main() {\n\tch := make(chan int)\n}\n")
	require.NoError(t, err)
	assert.Equal(t, "Go", language)
}

func TestKeywordDetectorUnknownOnProse(t *testing.T) {
	detector := NewKeywordDetector()

	language, err := detector.Detect("this is just a sentence about nothing in particular")
	require.NoError(t, err)
	assert.Equal(t, LanguageUnknown, language)
}
