package embedding

// Response wraps a single embedding vector.
type Response struct {
	Values []float32
}

// Provider generates a normalized embedding for one text. TaskType
// distinguishes document vs query embeddings for backends that care.
type Provider interface {
	Generate(text string, taskType string) (*Response, error)
}

// Task type hints understood by providers that support them.
const (
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
)
