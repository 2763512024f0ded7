package content

import (
	"go.uber.org/zap"
)

// Classifier prepares message bodies for persistence. For structured draft.js
// bodies it tags the first code block with a detected language; everything else
// passes through untouched.
type Classifier struct {
	detector LanguageDetector
	logger   *zap.Logger
}

// NewClassifier builds a classifier around a language detector.
func NewClassifier(detector LanguageDetector, logger *zap.Logger) *Classifier {
	return &Classifier{detector: detector, logger: logger}
}

// PrepareDraftBody inspects a serialized draft.js document. When the first
// block is a code block with a confidently detected language, the block's data
// gains a lowercase "syntax" tag and the document is re-serialized. Detector
// failure never fails the message; the original body is returned unchanged.
func (c *Classifier) PrepareDraftBody(body string) string {
	doc, err := ParseDraftDocument(body)
	if err != nil {
		c.logger.Warn("unparseable draftjs body, persisting as-is", zap.Error(err))
		return body
	}

	block := FirstBlock(doc)
	if block == nil || !IsCodeBlock(block) {
		return body
	}

	language, err := c.detector.Detect(BlockText(block))
	if err != nil {
		c.logger.Warn("language detection failed, skipping syntax tag", zap.Error(err))
		return body
	}
	if language == LanguageUnknown {
		return body
	}

	TagBlockSyntax(block, language)
	tagged, err := SerializeDraftDocument(doc)
	if err != nil {
		c.logger.Warn("failed to re-serialize tagged document", zap.Error(err))
		return body
	}
	return tagged
}
