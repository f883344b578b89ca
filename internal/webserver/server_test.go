package webserver

import (
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kotoba-bench/prefeval/internal/corpus"
	"github.com/kotoba-bench/prefeval/internal/pairs"
	"github.com/kotoba-bench/prefeval/internal/sampling"
	"github.com/kotoba-bench/prefeval/internal/session"
	"github.com/kotoba-bench/prefeval/internal/webapi"
)

func testHandlers(t *testing.T) *webapi.Handlers {
	t.Helper()

	models := []string{"alpha", "beta"}
	prompts := []corpus.Prompt{{Title: "t", Speaker: "s", Response: "gold"}}
	responses := map[string][]corpus.Response{
		"alpha": {{Output: "a"}},
		"beta":  {{Output: "b"}},
	}
	sample, err := sampling.Draw(rand.New(rand.NewSource(1)), prompts, responses, 1)
	require.NoError(t, err)
	sess := session.New(sample, pairs.Generate(rand.New(rand.NewSource(1)), models))
	return webapi.NewHandlers(sess, nil, nil, time.UTC)
}

func TestNewRequiresHandlers(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}

func TestNewDefaults(t *testing.T) {
	s, err := New(Config{Handlers: testHandlers(t)})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:3000", s.srv.Addr)
}

func TestHandlerServesAPI(t *testing.T) {
	s, err := New(Config{Handlers: testHandlers(t), Port: 8123})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
