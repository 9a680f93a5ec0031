package vectorindex

import (
	"context"

	"github.com/qdrant/go-client/qdrant"

	"github.com/eecar/partsearch/internal/db"
)

type fakeSearcher struct {
	lastQuery *db.KNNQuery
	result    *db.SearchResult
	err       error
}

func (f *fakeSearcher) SearchKNN(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	f.lastQuery = q
	return f.result, f.err
}

type fakeQuerier struct {
	lastRequest *qdrant.QueryPoints
	points      []*qdrant.ScoredPoint
	err         error
	healthErr   error
}

func (f *fakeQuerier) HealthCheck(context.Context) (*qdrant.HealthCheckReply, error) {
	if f.healthErr != nil {
		return nil, f.healthErr
	}
	return &qdrant.HealthCheckReply{Title: "qdrant", Version: "1.16.0"}, nil
}

func (f *fakeQuerier) Query(_ context.Context, req *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error) {
	f.lastRequest = req
	return f.points, f.err
}

func scoredPoint(id *qdrant.PointId, partID string, score float32) *qdrant.ScoredPoint {
	p := &qdrant.ScoredPoint{Id: id, Score: score}
	if partID != "" {
		p.Payload = map[string]*qdrant.Value{
			IDField: {Kind: &qdrant.Value_StringValue{StringValue: partID}},
		}
	}
	return p
}
