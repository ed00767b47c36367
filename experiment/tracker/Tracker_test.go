package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModelID(t *testing.T) {
	assert.Equal(t, "cartpole", ModelID("ClassicControl_Cartpole"))
	assert.Equal(t, "pendulum", ModelID("Pendulum"))
	assert.Equal(t, "", ModelID(""))
}

func TestCompressRoundTrip(t *testing.T) {
	states := [][]float64{{0.1, -0.2}, {0.3, 0.4}}

	s, err := Compress(states)
	require.NoError(t, err)

	var got [][]float64
	require.NoError(t, Decompress(s, &got))
	assert.Equal(t, states, got)

	assert.Error(t, Decompress("not base64!", &got))
}

func TestNewLogRecords(t *testing.T) {
	m, err := NewModelRecord("run", "ClassicControl_Cartpole",
		map[string]int{"n_epochs": 2})
	require.NoError(t, err)
	assert.Equal(t, Running, m.Status)
	assert.Equal(t, "{}", m.Policy)
	assert.JSONEq(t, `{"n_epochs": 2}`, m.Hyperparameters)

	episodes := []Episode{
		{States: [][]float64{{0}, {1}}, Actions: [][]float64{{1}}, Score: 1},
		{States: [][]float64{{0}}, Score: 0},
	}
	logs, err := NewLogRecords(m, 3, episodes, 0.5)
	require.NoError(t, err)
	require.Len(t, logs, 2)

	for i, l := range logs {
		assert.Equal(t, m.ID, l.RunModelID)
		assert.Equal(t, "run", l.RunID)
		assert.Equal(t, "3", l.Epoch)
		assert.Equal(t, i, l.Iteration)
		assert.Equal(t, 0.5, l.Reward)

		var score float64
		require.NoError(t, Decompress(l.Score, &score))
		assert.Equal(t, episodes[i].Score, score)
	}
	assert.NotEqual(t, logs[0].ID, logs[1].ID)

	finished, err := m.Finish(nil)
	require.NoError(t, err)
	assert.Equal(t, Finished, finished.Status)
	assert.Equal(t, m.ID, finished.ID)
}

func TestHTTPPostsRecords(t *testing.T) {
	var (
		mu     sync.Mutex
		models []ModelRecord
		logs   []LogRecord
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter,
		r *http.Request) {
		mu.Lock()
		defer mu.Unlock()

		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		switch r.URL.Path {
		case "/api/models":
			var m ModelRecord
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&m))
			models = append(models, m)
		case "/api/logs":
			var l []LogRecord
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&l))
			logs = append(logs, l...)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	rec := NewHTTP(srv.URL+"/", time.Second)
	m, err := NewModelRecord("run", "Cartpole", nil)
	require.NoError(t, err)
	require.NoError(t, rec.RegisterModel(context.Background(), m))

	batch, err := NewLogRecords(m, 0, []Episode{{Score: 2}}, 2)
	require.NoError(t, err)
	require.NoError(t, rec.Log(context.Background(), batch))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, models, 1)
	assert.Equal(t, m.ID, models[0].ID)
	assert.Equal(t, "cartpole", models[0].ModelID)
	require.Len(t, logs, 1)
	assert.Equal(t, m.ID, logs[0].RunModelID)
}

func TestHTTPReportsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter,
		_ *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	rec := NewHTTP(srv.URL, time.Second)
	err := rec.RegisterModel(context.Background(), ModelRecord{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestMemory(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.RegisterModel(context.Background(), ModelRecord{ID: "a"}))
	require.NoError(t, m.Log(context.Background(), []LogRecord{{ID: "b"}}))
	assert.Len(t, m.Models(), 1)
	assert.Len(t, m.Logs(), 1)

	m.Err = errors.New("down")
	assert.Error(t, m.Log(context.Background(), nil))
	assert.Len(t, m.Logs(), 1)
}
