package cache

import (
	"fmt"

	"github.com/yoockh/careerguide/internal/utils"
)

const (
	embeddingPrefix = "embed"
	jobPrefix       = "ingest:job"
)

// EmbeddingKey addresses the vector of text under one model. The text is
// hashed so keys stay short and never leak content.
func EmbeddingKey(model, text string) string {
	return fmt.Sprintf("%s:%s:%s", embeddingPrefix, model, utils.ContentKey(text))
}

func JobKey(jobID string) string {
	return jobPrefix + ":" + jobID
}
