package embedding

import (
	"context"
	"fmt"

	aiplatform "cloud.google.com/go/aiplatform/apiv1"
	"cloud.google.com/go/aiplatform/apiv1/aiplatformpb"
	"google.golang.org/api/option"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	DefaultModel = "text-embedding-004"
	// maxInstances is the per-request instance limit of the predict endpoint.
	maxInstances = 250
)

// Task types tell the model which side of a retrieval the text is on.
const (
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
)

// VertexEmbedder calls the Vertex AI publisher model predict endpoint.
type VertexEmbedder struct {
	client     *aiplatform.PredictionClient
	endpoint   string
	model      string
	dimensions int
	taskType   string
}

func NewVertexEmbedder(ctx context.Context, projectID, location, model string, dimensions int) (*VertexEmbedder, error) {
	if projectID == "" {
		return nil, fmt.Errorf("embedding: project id is required")
	}
	if location == "" {
		location = "us-central1"
	}
	if model == "" {
		model = DefaultModel
	}
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}

	c, err := aiplatform.NewPredictionClient(ctx, option.WithEndpoint(location+"-aiplatform.googleapis.com:443"))
	if err != nil {
		return nil, err
	}

	return &VertexEmbedder{
		client:     c,
		endpoint:   fmt.Sprintf("projects/%s/locations/%s/publishers/google/models/%s", projectID, location, model),
		model:      model,
		dimensions: dimensions,
		taskType:   TaskRetrievalDocument,
	}, nil
}

// WithTaskType returns an embedder sharing v's client that tags its inputs
// with taskType. Only the original should be closed.
func (v *VertexEmbedder) WithTaskType(taskType string) *VertexEmbedder {
	cp := *v
	cp.taskType = taskType
	return &cp
}

func (v *VertexEmbedder) TaskType() string { return v.taskType }

func (v *VertexEmbedder) Close() error { return v.client.Close() }

func (v *VertexEmbedder) Model() string { return v.model }

func (v *VertexEmbedder) Dimensions() int { return v.dimensions }

func (v *VertexEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	params, err := structpb.NewValue(map[string]any{"outputDimensionality": v.dimensions})
	if err != nil {
		return nil, err
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += maxInstances {
		batch := texts[start:min(start+maxInstances, len(texts))]

		instances, err := buildInstances(batch, v.taskType)
		if err != nil {
			return nil, err
		}

		resp, err := v.client.Predict(ctx, &aiplatformpb.PredictRequest{
			Endpoint:   v.endpoint,
			Instances:  instances,
			Parameters: params,
		})
		if err != nil {
			return nil, fmt.Errorf("embedding: predict: %w", err)
		}

		vecs, err := parsePredictions(resp.GetPredictions(), len(batch))
		if err != nil {
			return nil, err
		}
		out = append(out, vecs...)
	}
	return out, nil
}

func buildInstances(texts []string, taskType string) ([]*structpb.Value, error) {
	instances := make([]*structpb.Value, len(texts))
	for i, t := range texts {
		v, err := structpb.NewValue(map[string]any{
			"content":   t,
			"task_type": taskType,
		})
		if err != nil {
			return nil, err
		}
		instances[i] = v
	}
	return instances, nil
}

// parsePredictions reads predictions[i].embeddings.values.
func parsePredictions(preds []*structpb.Value, want int) ([][]float32, error) {
	if len(preds) != want {
		return nil, fmt.Errorf("embedding: expected %d predictions, got %d", want, len(preds))
	}

	out := make([][]float32, len(preds))
	for i, p := range preds {
		emb := p.GetStructValue().GetFields()["embeddings"]
		values := emb.GetStructValue().GetFields()["values"].GetListValue().GetValues()
		if len(values) == 0 {
			return nil, fmt.Errorf("embedding: prediction %d has no values", i)
		}
		vec := make([]float32, len(values))
		for j, x := range values {
			vec[j] = float32(x.GetNumberValue())
		}
		out[i] = vec
	}
	return out, nil
}
