package postgres

import (
	"encoding/json"
	"fmt"

	"tlangau-server/internal/domain/ports/repository"
)

// encodeDoc converts a model to its stored document form via its JSON tags.
func encodeDoc(v interface{}) (repository.Document, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode model: %w", err)
	}
	var doc repository.Document
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("encode model: %w", err)
	}
	return doc, nil
}

// decodeDoc fills a model from a stored document.
func decodeDoc(doc repository.Document, v interface{}) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	return nil
}
