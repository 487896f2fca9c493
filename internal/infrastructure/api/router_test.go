package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brandwisp-store-sync/internal/application"
	"brandwisp-store-sync/internal/application/webhook_handlers"
	"brandwisp-store-sync/internal/domain"
	"brandwisp-store-sync/internal/infrastructure/pubsub"
	"brandwisp-store-sync/internal/infrastructure/shopify"
	"brandwisp-store-sync/internal/ports/fakes"
)

const testSecret = "hush"

type webhookEnv struct {
	registry   *fakes.StoreRegistry
	products   *fakes.ProductStore
	sink       *fakes.AnalyticsSink
	webhookLog *fakes.WebhookLog
	dispatcher *application.WebhookDispatcher
	verifier   *shopify.WebhookVerifier
	router     http.Handler
}

func newWebhookEnv() *webhookEnv {
	conn := &domain.StoreConnection{
		ID:          "s1",
		UserID:      "user-1",
		Provider:    domain.ProviderShopify,
		Status:      domain.StatusConnected,
		StoreDomain: "demo.myshopify.com",
		AccessToken: "tok1",
	}
	env := &webhookEnv{
		registry:   fakes.NewStoreRegistry(conn),
		products:   fakes.NewProductStore(),
		sink:       fakes.NewAnalyticsSink(),
		webhookLog: &fakes.WebhookLog{},
		dispatcher: application.NewWebhookDispatcher(zerolog.Nop()),
		verifier:   shopify.NewWebhookVerifier(testSecret),
	}
	svc := application.NewWebhookService(env.registry, env.products, env.sink, &fakes.Publisher{}, nil, zerolog.Nop())
	env.dispatcher.RegisterHandler(webhook_handlers.NewProductHandler(svc, zerolog.Nop()))
	env.dispatcher.RegisterHandler(webhook_handlers.NewOrderHandler(svc, zerolog.Nop()))
	env.dispatcher.RegisterHandler(webhook_handlers.NewAppUninstalledHandler(svc, zerolog.Nop()))

	env.router = NewRouter(Dependencies{
		Verifier:   env.verifier,
		Dispatcher: env.dispatcher,
		WebhookLog: env.webhookLog,
	}, zerolog.Nop())
	return env
}

func (env *webhookEnv) post(topic, shop string, body []byte, hmac string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/shopify", bytes.NewReader(body))
	req.Header.Set(headerTopic, topic)
	req.Header.Set(headerShop, shop)
	if hmac != "" {
		req.Header.Set(headerHmac, hmac)
	}
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func (env *webhookEnv) postSigned(topic, shop string, body []byte) *httptest.ResponseRecorder {
	return env.post(topic, shop, body, env.verifier.Sign(body))
}

func TestWebhook_BadSignatureWritesNothing(t *testing.T) {
	env := newWebhookEnv()
	body := []byte(`{"id":111,"title":"Tee"}`)

	rec := env.post("products/update", "demo.myshopify.com", body, shopify.NewWebhookVerifier("other").Sign(body))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.post("products/update", "demo.myshopify.com", body, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	assert.Empty(t, env.webhookLog.Events)
	assert.Equal(t, 0, env.products.Count())
	assert.Empty(t, env.sink.Events)
	assert.Equal(t, 0, env.registry.Writes)
}

func TestWebhook_UnhandledTopicIsNoop(t *testing.T) {
	env := newWebhookEnv()

	rec := env.postSigned("carts/update", "demo.myshopify.com", []byte(`{"id":"c1"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"received":"true"}`, rec.Body.String())

	assert.Empty(t, env.webhookLog.Events)
	assert.Empty(t, env.sink.Events)
	assert.Equal(t, 0, env.registry.Writes)
}

func TestWebhook_ProductUpdate(t *testing.T) {
	env := newWebhookEnv()

	rec := env.postSigned("products/update", "demo.myshopify.com",
		[]byte(`{"id":111,"title":"Tee","tags":"a, b","variants":[{"id":1,"price":"19.99"}],"updated_at":"2026-03-01T12:00:00Z"}`))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, 1, env.products.Count())
	assert.Len(t, env.sink.EventsOfType(domain.EventTypeUpdate), 1)
	require.Len(t, env.webhookLog.Events, 1)
	assert.True(t, env.webhookLog.Events[0].Verified)
	assert.Equal(t, "products/update", env.webhookLog.Events[0].Topic)
}

func TestWebhook_UnknownShopFails(t *testing.T) {
	env := newWebhookEnv()

	rec := env.postSigned("orders/create", "nobody.myshopify.com", []byte(`{"id":9001,"line_items":[]}`))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestWebhook_MalformedPayloadIs500(t *testing.T) {
	env := newWebhookEnv()

	rec := env.postSigned("products/create", "demo.myshopify.com", []byte(`{"id":"not-a-number"}`))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, 0, env.products.Count())
}

type panickingHandler struct{}

func (panickingHandler) CanHandle(topic string) bool { return topic == "customers/create" }

func (panickingHandler) Handle(context.Context, *domain.WebhookEvent) error {
	var m map[string]int
	m["boom"]++
	return nil
}

func TestWebhook_HandlerPanicIs500(t *testing.T) {
	env := newWebhookEnv()
	env.dispatcher.RegisterHandler(panickingHandler{})

	rec := env.postSigned("customers/create", "demo.myshopify.com", []byte(`{}`))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestWebhook_Uninstall(t *testing.T) {
	env := newWebhookEnv()

	rec := env.postSigned("app/uninstalled", "demo.myshopify.com", []byte(`{"myshopify_domain":"demo.myshopify.com"}`))
	require.Equal(t, http.StatusOK, rec.Code)

	conn, _ := env.registry.GetByID(context.Background(), "s1")
	assert.Equal(t, domain.StatusDisconnected, conn.Status)
}

func TestWebhook_BodyTooLarge(t *testing.T) {
	env := newWebhookEnv()
	body := bytes.Repeat([]byte("a"), MaxWebhookBody+1)

	rec := env.postSigned("products/update", "demo.myshopify.com", body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Empty(t, env.webhookLog.Events)
}

type stubInstaller struct {
	authURL  string
	beginErr error
	result   *application.InstallResult
	err      error
}

func (s *stubInstaller) BeginInstall(context.Context, string, string, string) (string, error) {
	return s.authURL, s.beginErr
}

func (s *stubInstaller) CompleteInstall(context.Context, url.Values) (*application.InstallResult, error) {
	return s.result, s.err
}

func serve(t *testing.T, router http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestOAuthInit(t *testing.T) {
	installer := &stubInstaller{authURL: "https://demo.myshopify.com/admin/oauth/authorize?state=x"}
	router := NewRouter(Dependencies{Installer: installer}, zerolog.Nop())

	rec := serve(t, router, http.MethodGet, "/auth/shopify?shop=demo&user_id=u1")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, installer.authURL, rec.Header().Get("Location"))

	rec = serve(t, router, http.MethodGet, "/auth/shopify?shop=demo")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	installer.beginErr = domain.ErrConnectionExists
	rec = serve(t, router, http.MethodGet, "/auth/shopify?shop=demo&user_id=u1")
	assert.Equal(t, http.StatusConflict, rec.Code)

	installer.beginErr = domain.ErrInvalidShopDomain
	rec = serve(t, router, http.MethodGet, "/auth/shopify?shop=evil.com&user_id=u1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOAuthCallback(t *testing.T) {
	installer := &stubInstaller{result: &application.InstallResult{
		Connection: &domain.StoreConnection{ID: "s1", StoreDomain: "demo.myshopify.com"},
		ReturnURL:  "https://app.brandwisp.test/settings?tab=stores",
	}}
	router := NewRouter(Dependencies{Installer: installer}, zerolog.Nop())
	target := "/auth/callback?shop=demo.myshopify.com&code=abc&state=st1&hmac=x"

	rec := serve(t, router, http.MethodGet, target)
	require.Equal(t, http.StatusFound, rec.Code)
	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "stores", location.Query().Get("tab"))
	assert.Equal(t, "success", location.Query().Get("shopify_oauth"))
	assert.Equal(t, "s1", location.Query().Get("store_id"))

	installer.err = domain.ErrSignatureVerification
	assert.Equal(t, http.StatusUnauthorized, serve(t, router, http.MethodGet, target).Code)

	installer.err = domain.ErrInvalidOAuthState
	assert.Equal(t, http.StatusBadRequest, serve(t, router, http.MethodGet, target).Code)

	installer.err = &domain.UpstreamAPIError{StatusCode: 400, Status: "Bad Request", Endpoint: "oauth/access_token"}
	assert.Equal(t, http.StatusBadGateway, serve(t, router, http.MethodGet, target).Code)

	assert.Equal(t, http.StatusBadRequest, serve(t, router, http.MethodGet, "/auth/callback?shop=demo.myshopify.com").Code)
}

type stubSyncer struct {
	result *domain.SyncResult
	err    error
	calls  int
}

func (s *stubSyncer) SyncStore(_ context.Context, storeID string, trigger domain.SyncTrigger) (*domain.SyncResult, error) {
	s.calls++
	res := *s.result
	res.StoreID = storeID
	res.Trigger = trigger
	return &res, s.err
}

const testAPIKey = "integration-key"

func serveSync(router http.Handler, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/stores/s1/sync", nil)
	if key != "" {
		req.Header.Set(headerIntegrationKey, key)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestManualSync_RequiresIntegrationKey(t *testing.T) {
	syncer := &stubSyncer{result: &domain.SyncResult{Status: domain.SyncStatusSuccess}}
	router := NewRouter(Dependencies{Syncer: syncer, APIKey: testAPIKey}, zerolog.Nop())

	for _, key := range []string{"", "wrong", testAPIKey + "x"} {
		rec := serveSync(router, key)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, key)
	}
	assert.Zero(t, syncer.calls)

	assert.Equal(t, http.StatusOK, serveSync(router, testAPIKey).Code)
	assert.Equal(t, 1, syncer.calls)

	// no configured key locks the route
	locked := NewRouter(Dependencies{Syncer: syncer}, zerolog.Nop())
	assert.Equal(t, http.StatusUnauthorized, serveSync(locked, "").Code)
}

func TestManualSync(t *testing.T) {
	syncer := &stubSyncer{result: &domain.SyncResult{Status: domain.SyncStatusSuccess, ProductsSynced: 3}}
	router := NewRouter(Dependencies{Syncer: syncer, APIKey: testAPIKey}, zerolog.Nop())

	rec := serveSync(router, testAPIKey)
	require.Equal(t, http.StatusOK, rec.Code)
	var body domain.SyncResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "s1", body.StoreID)
	assert.Equal(t, domain.TriggerManual, body.Trigger)
	assert.Equal(t, 3, body.ProductsSynced)

	cases := []struct {
		err  error
		code int
	}{
		{&domain.StoreNotConnectedError{StoreID: "s1", Reason: "no connection record"}, http.StatusNotFound},
		{domain.ErrSyncInProgress, http.StatusConflict},
		{&domain.UpstreamAPIError{StatusCode: 503, Status: "Service Unavailable"}, http.StatusBadGateway},
		{domain.NewPersistenceError("save product", assert.AnError), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		syncer.err = tc.err
		assert.Equal(t, tc.code, serveSync(router, testAPIKey).Code, tc.err.Error())
	}
}

func TestHealth(t *testing.T) {
	router := NewRouter(Dependencies{}, zerolog.Nop())
	rec := serve(t, router, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHealthIncludesConnectionStats(t *testing.T) {
	events := pubsub.NewConnectionEvents(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events.Subscribe(ctx, nil)

	router := NewRouter(Dependencies{HealthStats: events.Stats}, zerolog.Nop())
	rec := serve(t, router, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","connections":{"active_subscriptions":1}}`, rec.Body.String())
}

func TestSwaggerDocIsEmbedded(t *testing.T) {
	router := NewRouter(Dependencies{}, zerolog.Nop())
	rec := serve(t, router, http.MethodGet, "/swagger/doc.json")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var doc struct {
		Swagger string                 `json:"swagger"`
		Paths   map[string]interface{} `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "2.0", doc.Swagger)
	assert.Contains(t, doc.Paths, "/api/v1/stores/{storeID}/sync")
}

type webhookObservation struct {
	topic string
	code  int
}

type recordingMetrics struct {
	webhooks []webhookObservation
}

func (m *recordingMetrics) ObserveStoreSync(domain.Provider, domain.SyncTrigger, domain.SyncStatus, time.Duration) {
}
func (m *recordingMetrics) ObserveRun(domain.Provider, *domain.RunSummary) {}
func (m *recordingMetrics) AddEvents(domain.EventType, int)                {}
func (m *recordingMetrics) ObserveWebhook(topic string, code int) {
	m.webhooks = append(m.webhooks, webhookObservation{topic, code})
}

func TestWebhook_MetricsLabelOnlyHandledTopics(t *testing.T) {
	env := newWebhookEnv()
	m := &recordingMetrics{}
	router := NewRouter(Dependencies{Verifier: env.verifier, Dispatcher: env.dispatcher, Metrics: m}, zerolog.Nop())

	for _, topic := range []string{"carts/update", "app/uninstalled"} {
		body := []byte(`{}`)
		req := httptest.NewRequest(http.MethodPost, "/webhooks/shopify", bytes.NewReader(body))
		req.Header.Set(headerTopic, topic)
		req.Header.Set(headerShop, "demo.myshopify.com")
		req.Header.Set(headerHmac, env.verifier.Sign(body))
		router.ServeHTTP(httptest.NewRecorder(), req)
	}

	assert.Equal(t, []webhookObservation{
		{"unhandled", http.StatusOK},
		{"app/uninstalled", http.StatusOK},
	}, m.webhooks)
}
