package server_test

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/rigno"
	"github.com/aretw0/rigno/internal/rollout"
	"github.com/aretw0/rigno/internal/server"
	"github.com/aretw0/rigno/internal/telemetry"
	"github.com/aretw0/rigno/pkg/adapters/memory"
	"github.com/aretw0/rigno/pkg/domain"
)

func testCloud(nx int) *domain.PointCloud {
	coords := make([]float64, 0, nx*nx*2)
	for i := 0; i < nx; i++ {
		for j := 0; j < nx; j++ {
			coords = append(coords, float64(i)/float64(nx-1), float64(j)/float64(nx-1))
		}
	}
	return &domain.PointCloud{Coords: coords, Dim: 2}
}

func testInitial(cloud *domain.PointCloud) domain.Field {
	f := domain.Field{Values: make([]float64, cloud.Len()), Channels: 1}
	for i := 0; i < cloud.Len(); i++ {
		p := cloud.At(i)
		f.Values[i] = math.Sin(2*math.Pi*p[0]) * math.Cos(2*math.Pi*p[1])
	}
	return f
}

func newTestServer(t *testing.T) (http.Handler, *memory.Store) {
	t.Helper()
	cfg := rigno.DefaultConfig()
	cfg.Mesh = rigno.MeshConfig{RegionCount: 16}
	cfg.Stage.LatentSize = 8
	cfg.Stage.HiddenSize = 16
	cfg.Model.Seed = 42

	op, err := rigno.New(cfg)
	require.NoError(t, err)

	store := memory.NewStore()
	return server.NewHandler(op, store, server.WithMetrics(telemetry.New())), store
}

func postJSON(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCreateAndGetRollout(t *testing.T) {
	h, _ := newTestServer(t)
	cloud := testCloud(8)

	rec := postJSON(t, h, "/v1/rollouts", map[string]any{
		"cloud":    cloud,
		"initial":  testInitial(cloud),
		"schedule": rollout.FixedTau(0.1, 3),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Steps  int    `json:"steps"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "done", created.Status)
	assert.Equal(t, 3, created.Steps)

	req := httptest.NewRequest(http.MethodGet, "/v1/rollouts/"+created.ID, nil)
	getRec := httptest.NewRecorder()
	h.ServeHTTP(getRec, req)
	require.Equal(t, http.StatusOK, getRec.Code)

	var traj domain.Trajectory
	require.NoError(t, json.Unmarshal(getRec.Body.Bytes(), &traj))
	assert.Len(t, traj.Snapshots, 4)
	assert.Equal(t, domain.StatusDone, traj.Status)
}

func TestCreateRolloutBadSchedule(t *testing.T) {
	h, _ := newTestServer(t)
	cloud := testCloud(8)

	rec := postJSON(t, h, "/v1/rollouts", map[string]any{
		"cloud":    cloud,
		"initial":  testInitial(cloud),
		"schedule": rollout.TauSchedule{Fixed: 0.1, Steps: 2, Sequence: []float64{0.1}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "mutually exclusive")
}

func TestCreateRolloutEmptyCloud(t *testing.T) {
	h, _ := newTestServer(t)

	rec := postJSON(t, h, "/v1/rollouts", map[string]any{
		"cloud":    &domain.PointCloud{Dim: 2},
		"initial":  domain.Field{},
		"schedule": rollout.FixedTau(0.1, 1),
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetRolloutNotFound(t *testing.T) {
	h, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/rollouts/nope", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListAndDeleteRollouts(t *testing.T) {
	h, store := newTestServer(t)
	cloud := testCloud(8)

	rec := postJSON(t, h, "/v1/rollouts", map[string]any{
		"cloud":    cloud,
		"initial":  testInitial(cloud),
		"schedule": rollout.FixedTau(0.1, 1),
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	listReq := httptest.NewRequest(http.MethodGet, "/v1/rollouts", nil)
	listRec := httptest.NewRecorder()
	h.ServeHTTP(listRec, listReq)
	require.Equal(t, http.StatusOK, listRec.Code)
	assert.Contains(t, listRec.Body.String(), created.ID)

	delReq := httptest.NewRequest(http.MethodDelete, "/v1/rollouts/"+created.ID, nil)
	delRec := httptest.NewRecorder()
	h.ServeHTTP(delRec, delReq)
	assert.Equal(t, http.StatusNoContent, delRec.Code)

	_, err := store.Load(delReq.Context(), created.ID)
	assert.ErrorIs(t, err, domain.ErrTrajectoryNotFound)
}

func TestDescribeGraphs(t *testing.T) {
	h, _ := newTestServer(t)

	rec := postJSON(t, h, "/v1/graphs", map[string]any{"cloud": testCloud(8)})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Key             string `json:"key"`
		Regions         int    `json:"regions"`
		EncoderEdges    int    `json:"encoder_edges"`
		DecoderEdges    int    `json:"decoder_edges"`
		ProcessorLevels []int  `json:"processor_levels"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Key)
	assert.Equal(t, 16, resp.Regions)
	assert.Greater(t, resp.EncoderEdges, 0)
	assert.Greater(t, resp.DecoderEdges, 0)
	assert.Len(t, resp.ProcessorLevels, 2)
}

func TestDescribeGraphsBadRadius(t *testing.T) {
	cfg := rigno.DefaultConfig()
	cfg.Mesh = rigno.MeshConfig{RegionCount: 16}
	cfg.Graph.EncoderRadius = 0.01
	cfg.Stage.LatentSize = 8
	cfg.Stage.HiddenSize = 16

	op, err := rigno.New(cfg)
	require.NoError(t, err)
	h := server.NewHandler(op, memory.NewStore())

	rec := postJSON(t, h, "/v1/graphs", map[string]any{"cloud": testCloud(8)})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "support radius")
}

func TestHealthAndMetrics(t *testing.T) {
	h, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")

	mrec := httptest.NewRecorder()
	h.ServeHTTP(mrec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, mrec.Code)
}
