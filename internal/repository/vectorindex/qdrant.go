package vectorindex

import (
	"context"
	"fmt"
	"strconv"

	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/eecar/partsearch/internal/domain/search/filter"
)

// querier is the subset of *qdrant.Client used for search.
type querier interface {
	Query(ctx context.Context, request *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error)
	HealthCheck(ctx context.Context) (*qdrant.HealthCheckReply, error)
}

// QdrantConfig configures the gRPC connection.
type QdrantConfig struct {
	Host       string
	Port       int
	APIKey     string
	UseTLS     bool
	Collection string
}

// Qdrant runs ANN queries against a qdrant collection with cosine distance.
type Qdrant struct {
	client     querier
	collection string
	closer     func() error
}

// NewQdrant dials qdrant. The collection must already exist.
func NewQdrant(cfg QdrantConfig) (*Qdrant, error) {
	if cfg.Collection == "" {
		return nil, fmt.Errorf("qdrant collection is required")
	}
	qc := &qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	}
	if !cfg.UseTLS {
		qc.GrpcOptions = []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	}

	client, err := qdrant.NewClient(qc)
	if err != nil {
		return nil, fmt.Errorf("create qdrant client: %w", err)
	}
	return &Qdrant{client: client, collection: cfg.Collection, closer: client.Close}, nil
}

func newQdrantWithClient(c querier, collection string) *Qdrant {
	return &Qdrant{client: c, collection: collection}
}

// Close releases the gRPC connection.
func (q *Qdrant) Close() error {
	if q.closer == nil {
		return nil
	}
	return q.closer()
}

// Ping checks that the qdrant server answers.
func (q *Qdrant) Ping(ctx context.Context) error {
	if _, err := q.client.HealthCheck(ctx); err != nil {
		return fmt.Errorf("qdrant health check: %w", err)
	}
	return nil
}

// Search returns up to k neighbours of vector, closest first.
// Qdrant reports cosine similarity; it is turned into distance = 1 - score.
func (q *Qdrant) Search(ctx context.Context, vector []float32, k int, eq filter.Equality) ([]Neighbor, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive")
	}
	req := &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if hasFilter(eq) {
		req.Filter = &qdrant.Filter{Must: []*qdrant.Condition{keywordCondition(eq.Field, eq.Value)}}
	}

	points, err := q.client.Query(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("qdrant query %s: %w", q.collection, err)
	}

	out := make([]Neighbor, 0, len(points))
	for _, p := range points {
		id := pointPartID(p)
		if id == "" {
			continue
		}
		out = append(out, Neighbor{ID: id, Distance: 1 - float64(p.GetScore())})
	}
	sortByDistance(out)
	return out, nil
}

func keywordCondition(field, value string) *qdrant.Condition {
	return &qdrant.Condition{
		ConditionOneOf: &qdrant.Condition_Field{
			Field: &qdrant.FieldCondition{
				Key: field,
				Match: &qdrant.Match{
					MatchValue: &qdrant.Match_Keyword{Keyword: value},
				},
			},
		},
	}
}

// pointPartID prefers the partId payload; point ids are UUIDs or integers
// and only match part ids when the collection was loaded that way.
func pointPartID(p *qdrant.ScoredPoint) string {
	if v, ok := p.GetPayload()[IDField]; ok {
		if s := v.GetStringValue(); s != "" {
			return s
		}
	}
	id := p.GetId()
	if id == nil {
		return ""
	}
	if u := id.GetUuid(); u != "" {
		return u
	}
	if n := id.GetNum(); n != 0 {
		return strconv.FormatUint(n, 10)
	}
	return ""
}
