package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"facelyze-api/internal/ai"
	"facelyze-api/internal/model"
	"facelyze-api/internal/platform/database"
)

func TestAnalyzeChargesAndPublishes(t *testing.T) {
	h := newHarness(t)
	user := h.register(t, "mia")
	ctx := context.Background()

	res, err := h.analysis.Analyze(ctx, user.ID, testPhoto(t))
	require.NoError(t, err)
	assert.Equal(t, 7, res.Balance.Tokens)
	assert.Equal(t, 1, res.Balance.AnalysisCount)
	assert.True(t, res.ShowPromo)
	assert.Equal(t, 74.0, res.Face.Score())
	assert.Equal(t, 74.0, res.Analysis.AestheticScore)
	assert.NotEmpty(t, res.Analysis.PublicID)
	assert.Contains(t, res.Analysis.PhotoDataURI, "data:image/png;base64,")

	require.Len(t, h.publisher.published, 1)
	assert.Equal(t, res.Analysis.PublicID, h.publisher.published[0].PublicID)

	entries, err := h.wallet.Ledger(user.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, model.ReasonAnalysis, entries[0].Reason)
	assert.Equal(t, "analysis:"+res.Analysis.PublicID, entries[0].Reference)
	assert.Equal(t, -3, entries[0].Delta)

	dirty, err := h.history.IsDirty(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, dirty)
}

func TestAnalyzePromoMilestones(t *testing.T) {
	h := newHarness(t)
	user := h.register(t, "mia")
	ctx := context.Background()

	var promos []bool
	for i := 0; i < 3; i++ {
		res, err := h.analysis.Analyze(ctx, user.ID, testPhoto(t))
		require.NoError(t, err)
		promos = append(promos, res.ShowPromo)
	}
	assert.Equal(t, []bool{true, false, true}, promos)
	assert.Equal(t, 1, h.tokens(t, user.ID))

	_, err := h.analysis.Analyze(ctx, user.ID, testPhoto(t))
	assert.ErrorIs(t, err, ErrInsufficientTokens)
	assert.Len(t, h.provider.calls(ai.FlowAnalyzeFace), 3)
}

func TestAnalyzeUsesSavedGoal(t *testing.T) {
	h := newHarness(t)
	user := h.register(t, "mia")
	_, err := h.coaching.SaveGoal(user.ID, "a more defined jawline")
	require.NoError(t, err)

	res, err := h.analysis.Analyze(context.Background(), user.ID, testPhoto(t))
	require.NoError(t, err)
	assert.Equal(t, "a more defined jawline", res.Analysis.Goal)

	calls := h.provider.calls(ai.FlowAnalyzeFace)
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].Prompt, "a more defined jawline")
}

func TestAnalyzeDoesNotChargeOnInvalidOutput(t *testing.T) {
	h := newHarness(t)
	user := h.register(t, "mia")
	h.provider.replies[ai.FlowAnalyzeFace] = `{"aestheticScore": 250}`

	_, err := h.analysis.Analyze(context.Background(), user.ID, testPhoto(t))
	assert.ErrorIs(t, err, ErrModelOutputInvalid)
	assert.Equal(t, 10, h.tokens(t, user.ID))
	assert.Empty(t, h.publisher.published)
}

func TestAnalyzeSkipsModelWhenBroke(t *testing.T) {
	h := newHarness(t)
	user := h.register(t, "mia")
	h.setTokens(t, user.ID, 2)

	_, err := h.analysis.Analyze(context.Background(), user.ID, testPhoto(t))
	assert.ErrorIs(t, err, ErrInsufficientTokens)
	assert.Empty(t, h.provider.calls(ai.FlowAnalyzeFace))
	assert.Equal(t, 2, h.tokens(t, user.ID))
}

func TestAnalyzeRejectedPhoto(t *testing.T) {
	h := newHarness(t, withScreener(rejectAll{}))
	user := h.register(t, "mia")

	_, err := h.analysis.Analyze(context.Background(), user.ID, testPhoto(t))
	assert.ErrorIs(t, err, ErrPhotoRejected)
	assert.Empty(t, h.provider.calls(ai.FlowAnalyzeFace))
	assert.Equal(t, 10, h.tokens(t, user.ID))
}

func TestAnalyzeModelUnavailable(t *testing.T) {
	h := newHarness(t)
	user := h.register(t, "mia")
	h.provider.err = ai.ErrUnavailable

	_, err := h.analysis.Analyze(context.Background(), user.ID, testPhoto(t))
	assert.ErrorIs(t, err, ErrModelUnavailable)
	assert.Equal(t, 10, h.tokens(t, user.ID))
}

func TestAnalyzeFallsBackToDirectWrite(t *testing.T) {
	h := newHarness(t)
	user := h.register(t, "mia")
	h.publisher.err = errBroker

	res, err := h.analysis.Analyze(context.Background(), user.ID, testPhoto(t))
	require.NoError(t, err)

	stored, err := h.analysis.Get(user.ID, res.Analysis.PublicID)
	require.NoError(t, err)
	assert.Equal(t, 74.0, stored.AestheticScore)
	assert.JSONEq(t, string(res.Analysis.Result), string(stored.Result))
}

func TestGetIsScopedToOwner(t *testing.T) {
	h := newHarness(t, withoutPublisher())
	owner := h.register(t, "mia")
	other := h.register(t, "leo")

	res, err := h.analysis.Analyze(context.Background(), owner.ID, testPhoto(t))
	require.NoError(t, err)

	_, err = h.analysis.Get(other.ID, res.Analysis.PublicID)
	assert.ErrorIs(t, err, ErrAnalysisNotFound)
}

func TestHistoryCachesUntilDirty(t *testing.T) {
	h := newHarness(t, withoutPublisher())
	user := h.register(t, "mia")
	ctx := context.Background()

	_, err := h.analysis.Analyze(ctx, user.ID, testPhoto(t))
	require.NoError(t, err)

	// dirty right after the write, so the database is read and nothing cached
	list, err := h.analysis.History(ctx, user.ID, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	_, cached, err := h.history.GetHistory(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, cached)

	h.redis.FastForward(11 * time.Second)

	list, err = h.analysis.History(ctx, user.ID, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	cachedList, cached, err := h.history.GetHistory(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, list[0].PublicID, cachedList[0].PublicID)

	_, err = h.analysis.Analyze(ctx, user.ID, testPhoto(t))
	require.NoError(t, err)
	list, err = h.analysis.History(ctx, user.ID, 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	list, err = h.analysis.History(ctx, user.ID, 0)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestGuestPreviewAndClaim(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	preview, err := h.analysis.AnalyzeGuest(ctx, testPhoto(t))
	require.NoError(t, err)
	assert.Equal(t, 74.0, preview.AestheticScore)
	assert.Equal(t, "Friendly, balanced face.", preview.OverallImpression.Text)
	assert.Equal(t, 3, preview.Cost)

	user := h.register(t, "mia")
	res, err := h.analysis.ClaimPreview(ctx, user.ID, preview.PreviewID)
	require.NoError(t, err)
	assert.Equal(t, 7, res.Balance.Tokens)
	assert.Len(t, res.Face.FeatureAnalysis, 2)
	assert.Len(t, h.provider.calls(ai.FlowAnalyzeFace), 1)

	_, err = h.analysis.ClaimPreview(ctx, user.ID, preview.PreviewID)
	assert.ErrorIs(t, err, ErrPreviewNotFound)
}

func TestClaimWithoutTokensKeepsPreview(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	preview, err := h.analysis.AnalyzeGuest(ctx, testPhoto(t))
	require.NoError(t, err)

	user := h.register(t, "mia")
	h.setTokens(t, user.ID, 1)

	_, err = h.analysis.ClaimPreview(ctx, user.ID, preview.PreviewID)
	assert.ErrorIs(t, err, ErrInsufficientTokens)

	h.setTokens(t, user.ID, 5)
	res, err := h.analysis.ClaimPreview(ctx, user.ID, preview.PreviewID)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Balance.Tokens)
}

func TestFailedClaimKeepsPreview(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	preview, err := h.analysis.AnalyzeGuest(ctx, testPhoto(t))
	require.NoError(t, err)

	_, err = h.analysis.ClaimPreview(ctx, 9999, preview.PreviewID)
	assert.ErrorIs(t, err, ErrUserNotFound)

	user := h.register(t, "mia")
	require.NoError(t, h.db.Migrator().DropTable(&model.TokenTransaction{}))
	_, err = h.analysis.ClaimPreview(ctx, user.ID, preview.PreviewID)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInsufficientTokens)
	assert.Equal(t, 10, h.tokens(t, user.ID))

	require.NoError(t, database.Migrate(h.db))
	res, err := h.analysis.ClaimPreview(ctx, user.ID, preview.PreviewID)
	require.NoError(t, err)
	assert.Equal(t, 7, res.Balance.Tokens)
}

func TestClaimUnknownPreview(t *testing.T) {
	h := newHarness(t)
	user := h.register(t, "mia")

	_, err := h.analysis.ClaimPreview(context.Background(), user.ID, "not-a-uuid")
	assert.ErrorIs(t, err, ErrPreviewNotFound)

	_, err = h.analysis.ClaimPreview(context.Background(), user.ID, "6f1c7a3e-9d4b-4c55-8a8e-1f2d3c4b5a69")
	assert.ErrorIs(t, err, ErrPreviewNotFound)
}

func TestQuickFlowsChargeQuickCost(t *testing.T) {
	h := newHarness(t)
	user := h.register(t, "mia")
	ctx := context.Background()

	score, err := h.analysis.QuickScore(ctx, user.ID, testPhoto(t))
	require.NoError(t, err)
	assert.Equal(t, 7.5, score.Score.Value())
	assert.Equal(t, 9, score.Balance.Tokens)
	assert.Equal(t, 0, score.Balance.AnalysisCount)

	features, err := h.analysis.FeatureBreakdown(ctx, user.ID, testPhoto(t))
	require.NoError(t, err)
	assert.Equal(t, "Eyes", features.Breakdown.FeatureAnalysis[0].FeatureName)
	assert.Equal(t, 8, features.Balance.Tokens)

	entries, err := h.wallet.Ledger(user.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, model.ReasonQuickFlow, entries[0].Reason)
	assert.Equal(t, -1, entries[0].Delta)
}

func TestAnalyzeRejectsUndecodablePhoto(t *testing.T) {
	h := newHarness(t)
	user := h.register(t, "mia")

	photo := testPhoto(t)
	photo.Data = photo.Data[:20]
	_, err := h.analysis.Analyze(context.Background(), user.ID, photo)
	assert.ErrorIs(t, err, ErrInvalidPhoto)
}
