//go:build pact
// +build pact

package provider_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	pacttest "github.com/Apurer/school-activities-api/test/pact"

	lessonserver "github.com/Apurer/school-activities-api/go"
	"github.com/Apurer/school-activities-api/internal/domains/documents/adapters/gated"
	docmemory "github.com/Apurer/school-activities-api/internal/domains/documents/adapters/memory"
	docobs "github.com/Apurer/school-activities-api/internal/domains/documents/adapters/observability"
	docapp "github.com/Apurer/school-activities-api/internal/domains/documents/application"
	docdomain "github.com/Apurer/school-activities-api/internal/domains/documents/domain"
	ordermemory "github.com/Apurer/school-activities-api/internal/domains/orders/adapters/memory"
	ordersobs "github.com/Apurer/school-activities-api/internal/domains/orders/adapters/observability"
	ordersapp "github.com/Apurer/school-activities-api/internal/domains/orders/application"
	searchmemory "github.com/Apurer/school-activities-api/internal/domains/search/adapters/memory"
	searchobs "github.com/Apurer/school-activities-api/internal/domains/search/adapters/observability"
	searchapp "github.com/Apurer/school-activities-api/internal/domains/search/application"

	"github.com/gin-gonic/gin"
	"github.com/pact-foundation/pact-go/v2/models"
	pactprovider "github.com/pact-foundation/pact-go/v2/provider"
	"github.com/stretchr/testify/require"
)

func TestSchoolActivitiesProviderPact(t *testing.T) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	app := newContractProviderApp(t)
	pactFile := filepath.ToSlash(pacttest.PactFile(t))
	if _, err := os.Stat(pactFile); errors.Is(err, os.ErrNotExist) {
		t.Fatalf("pact file not found at %s - run the pact consumer tests first", pactFile)
	} else {
		require.NoError(t, err)
	}

	verifier := pactprovider.NewVerifier()
	stateHandlers := models.StateHandlers{
		pacttest.StateLessonsBaseline: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.reset()
			return nil, nil
		},
		pacttest.StateLessonsSeeded: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.reset()
			if setup {
				app.seedLesson(t)
			}
			return nil, nil
		},
	}

	err := verifier.VerifyProvider(t, pactprovider.VerifyRequest{
		ProviderBaseURL: app.server.URL,
		Provider:        pacttest.ProviderName,
		PactFiles:       []string{pactFile},
		StateHandlers:   stateHandlers,
		BeforeEach: func() error {
			app.reset()
			return nil
		},
	})
	require.NoError(t, err)
}

type contractProviderApp struct {
	gate   *gated.Gateway
	store  *docmemory.Gateway
	server *httptest.Server
}

func newContractProviderApp(t testing.TB) *contractProviderApp {
	t.Helper()

	gate := gated.New()
	documents := docobs.New(docapp.NewService(gate))
	search := searchobs.New(searchapp.NewService(gate, searchapp.WithActivityLog(searchmemory.NewActivityLog())))
	orders := ordersobs.New(ordersapp.NewService(gate, ordersapp.WithIdempotencyStore(ordermemory.NewIdempotencyStore())))

	handlers := lessonserver.ApiHandleFunctions{
		CollectionAPI: lessonserver.NewCollectionAPI(documents),
		SearchAPI:     lessonserver.NewSearchAPI(search),
		OrderAPI:      lessonserver.NewOrderAPI(orders),
		ImageAPI:      lessonserver.NewImageAPI(nil),
		SystemAPI:     lessonserver.NewSystemAPI(gate),
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router = lessonserver.NewRouterWithGinEngine(router, handlers)

	server := httptest.NewServer(lessonserver.WithCORS(router))
	t.Cleanup(server.Close)

	app := &contractProviderApp{gate: gate, server: server}
	app.reset()
	return app
}

// reset swaps in an empty store so every interaction starts clean.
func (a *contractProviderApp) reset() {
	a.store = docmemory.NewGateway()
	a.gate.Ready(a.store)
}

func (a *contractProviderApp) seedLesson(t testing.TB) {
	t.Helper()
	_, err := a.store.InsertOne(context.Background(), a.store.Collection("lessons"), docdomain.Document(pacttest.ExampleLesson()))
	require.NoError(t, err)
}
