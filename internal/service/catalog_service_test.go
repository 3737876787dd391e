package service

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"likesio/internal/models"
	"likesio/internal/repository"
	"likesio/pkg/smm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCatalogFixture(t *testing.T, catalogueJSON string) (*CatalogService, *repository.ServiceRepository) {
	t.Helper()
	db := newTestDB(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(catalogueJSON))
	}))
	t.Cleanup(srv.Close)
	repo := repository.NewServiceRepository(db)
	return NewCatalogService(repo, smm.NewClient(srv.URL, "test-key")), repo
}

func TestSyncUpdatesExisting(t *testing.T) {
	catalogue := `[{"service":1234,"name":"Instagram Likes [Real]","category":"Instagram","rate":"0.80","min":"20","max":"100000"}]`
	svc, repo := newCatalogFixture(t, catalogue)

	existing := &models.Service{Platform: "instagram", ServiceType: "likes", Name: "Instagram Likes", JapServiceID: 1234, BasePrice: 0.90, Markup: 0.50, MinQuantity: 10, MaxQuantity: 50000, IsActive: true}
	require.NoError(t, repo.Create(existing))

	res, err := svc.Sync(t.Context(), "")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Updated)
	assert.Zero(t, res.Inserted)

	got, err := repo.GetByID(existing.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.80, got.BasePrice, "base price follows the panel")
	assert.Equal(t, 0.50, got.Markup, "markup is a local pricing decision and survives sync")
	assert.Equal(t, 1.30, got.FinalPrice)
	assert.Equal(t, 20, got.MinQuantity)
	assert.Equal(t, 100000, got.MaxQuantity)
	assert.True(t, got.IsActive)
}

func TestSyncInsertsNewInactive(t *testing.T) {
	catalogue := `[{"service":"5678","name":"TikTok Followers","category":"TikTok","rate":"2.10","min":"50","max":"20000"}]`
	svc, repo := newCatalogFixture(t, catalogue)

	res, err := svc.Sync(t.Context(), "")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Inserted)

	got, err := repo.GetByJapServiceID(5678)
	require.NoError(t, err)
	assert.Equal(t, "tiktok", got.Platform)
	assert.Equal(t, "followers", got.ServiceType)
	assert.False(t, got.IsActive, "new upstream services wait for pricing review")
}

func TestSyncPlatformFilterAndUnclassifiable(t *testing.T) {
	catalogue := `[
		{"service":1,"name":"Instagram Likes","category":"Instagram","rate":"0.9","min":"10","max":"1000"},
		{"service":2,"name":"YouTube Subscribers","category":"YouTube","rate":"5.0","min":"10","max":"1000"},
		{"service":3,"name":"Website Traffic","category":"Traffic","rate":"1.0","min":"10","max":"1000"}
	]`
	svc, _ := newCatalogFixture(t, catalogue)

	res, err := svc.Sync(t.Context(), "instagram")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Fetched)
	assert.Equal(t, 1, res.Inserted)
	assert.Equal(t, 2, res.Skipped, "other platforms and unclassifiable entries are skipped")
}

func TestClassifyUpstream(t *testing.T) {
	p, st := classifyUpstream(smm.UpstreamService{Name: "YouTube Subscribers [HQ]", Category: "YouTube"})
	assert.Equal(t, "youtube", p)
	assert.Equal(t, "followers", st, "subscribers count as followers")

	p, st = classifyUpstream(smm.UpstreamService{Name: "Video Views Fast", Category: "TikTok Services"})
	assert.Equal(t, "tiktok", p)
	assert.Equal(t, "views", st)

	p, st = classifyUpstream(smm.UpstreamService{Name: "Website Traffic", Category: "Other"})
	assert.Empty(t, p)
	assert.Empty(t, st)
}
