package worker

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"facelyze-api/internal/model"
)

type memoryStore struct {
	saved []model.Analysis
	err   error
}

func (m *memoryStore) Create(analysis *model.Analysis) error {
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, *analysis)
	return nil
}

func TestHandlePersistsDecodedAnalysis(t *testing.T) {
	store := &memoryStore{}
	w := NewAnalysisPersistWorker(nil, store, "q", nil)

	body, err := json.Marshal(model.Analysis{
		PublicID:       "abc",
		UserID:         3,
		AestheticScore: 81,
		Result:         json.RawMessage(`{"aestheticScore":81}`),
	})
	require.NoError(t, err)

	require.NoError(t, w.Handle(body))
	require.Len(t, store.saved, 1)
	assert.Equal(t, "abc", store.saved[0].PublicID)
	assert.Equal(t, uint(3), store.saved[0].UserID)
	assert.JSONEq(t, `{"aestheticScore":81}`, string(store.saved[0].Result))
}

func TestHandleRejectsBadMessages(t *testing.T) {
	store := &memoryStore{}
	w := NewAnalysisPersistWorker(nil, store, "q", nil)

	assert.Error(t, w.Handle([]byte("not json")))
	assert.Error(t, w.Handle([]byte(`{"id":"","user_id":1}`)))
	assert.Empty(t, store.saved)

	store.err = errors.New("db down")
	assert.ErrorContains(t, w.Handle([]byte(`{"id":"x","user_id":1}`)), "db down")
}
