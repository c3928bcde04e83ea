package yggdrasil_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	yggdrasil "github.com/goliatone/go-yggdrasil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

type testConfig struct {
	publicKey string
}

func (c testConfig) GetServerName() string            { return "Test Yggdrasil" }
func (c testConfig) GetImplementationName() string    { return "go-yggdrasil" }
func (c testConfig) GetImplementationVersion() string { return "0.1.0" }
func (c testConfig) GetHomepageLink() string          { return "http://home.test" }
func (c testConfig) GetRegisterLink() string          { return "http://home.test/register" }
func (c testConfig) GetSkinDomains() []string         { return []string{".test"} }
func (c testConfig) GetTexturesBaseURL() string       { return "http://textures.test/" }
func (c testConfig) GetSignaturePrivateKey() string   { return "" }
func (c testConfig) GetTokenPolicy() yggdrasil.TokenPolicy {
	return testPolicy
}

func newTestApp(t *testing.T) (*fiber.App, *bun.DB) {
	t.Helper()

	db := setupDB(t)
	repo := yggdrasil.NewRepositoryManager(db)
	cfg := testConfig{}

	signer := yggdrasil.NewSigner(cfg.GetSignaturePrivateKey())
	sessions := yggdrasil.NewSessionService(repo, cfg.GetTokenPolicy()).
		WithClock(fixedClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)))
	presenter := yggdrasil.NewProfilePresenter(cfg.GetTexturesBaseURL(), signer)

	app := fiber.New()
	yggdrasil.RegisterAuthRoutes(app, yggdrasil.NewAuthController(sessions, presenter, signer, cfg))

	return app, db
}

func postJSON(t *testing.T, app *fiber.App, path string, body any) *http.Response {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeJSON[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out T
	require.NoError(t, json.Unmarshal(raw, &out), "body: %s", raw)
	return out
}

func TestHTTP_Metadata(t *testing.T) {
	app, _ := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	meta := decodeJSON[yggdrasil.MetadataResponse](t, resp)
	assert.Equal(t, "Test Yggdrasil", meta.Meta.ServerName)
	assert.Equal(t, "go-yggdrasil", meta.Meta.ImplementationName)
	assert.Equal(t, "http://home.test", meta.Meta.Links.Homepage)
	assert.Equal(t, []string{".test"}, meta.SkinDomains)
	// no signing key configured, so none is advertised
	assert.Empty(t, meta.SignaturePublickey)
}

func TestHTTP_Authenticate(t *testing.T) {
	app, db := newTestApp(t)

	user := seedUser(t, db, "steve@example.com", "hunter2")
	seedProfile(t, db, user, "hero", yggdrasil.UploadableSkinOnly, nil, nil)

	resp := postJSON(t, app, "/authserver/authenticate", yggdrasil.AuthenticateRequest{
		Username:    "hero:steve@example.com",
		Password:    "hunter2",
		RequestUser: true,
		Agent:       &yggdrasil.AgentPayload{Name: "Minecraft", Version: 1},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeJSON[yggdrasil.AuthenticateResponse](t, resp)
	assert.Len(t, body.AccessToken, 32)
	assert.NotEmpty(t, body.ClientToken)

	require.Len(t, body.AvailableProfiles, 1)
	assert.Equal(t, "hero", body.AvailableProfiles[0].Name)

	require.NotNil(t, body.SelectedProfile)
	assert.Equal(t, "hero", body.SelectedProfile.Name)
	require.Len(t, body.SelectedProfile.Properties, 2)
	assert.Equal(t, "uploadableTextures", body.SelectedProfile.Properties[0].Name)
	assert.Equal(t, "skin", body.SelectedProfile.Properties[0].Value)
	assert.Equal(t, "textures", body.SelectedProfile.Properties[1].Name)

	require.NotNil(t, body.User)
	assert.Len(t, body.User.ID, 32)
}

func TestHTTP_AuthenticateWrongPassword(t *testing.T) {
	app, db := newTestApp(t)

	seedUser(t, db, "steve@example.com", "hunter2")

	resp := postJSON(t, app, "/authserver/authenticate", yggdrasil.AuthenticateRequest{
		Username: "steve@example.com",
		Password: "letmein",
	})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	body := decodeJSON[yggdrasil.ErrorResponse](t, resp)
	assert.Equal(t, "ForbiddenOperationException", body.Error)
	assert.Equal(t, "Invalid credentials. Invalid username or password.", body.ErrorMessage)
}

func TestHTTP_AuthenticateMissingFields(t *testing.T) {
	app, _ := newTestApp(t)

	resp := postJSON(t, app, "/authserver/authenticate", yggdrasil.AuthenticateRequest{
		Username: "steve@example.com",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decodeJSON[yggdrasil.ErrorResponse](t, resp)
	assert.Equal(t, "IllegalArgumentException", body.Error)
}

func TestHTTP_RefreshRoundTrip(t *testing.T) {
	app, db := newTestApp(t)

	user := seedUser(t, db, "steve@example.com", "hunter2")
	hero := seedProfile(t, db, user, "hero", yggdrasil.UploadableNone, nil, nil)
	seedToken(t, db, user, nil, "a1", "c1", yggdrasil.TokenAvailable,
		time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC))

	resp := postJSON(t, app, "/authserver/refresh", yggdrasil.RefreshRequest{
		AccessToken: "a1",
		ClientToken: "c1",
		SelectedProfile: &yggdrasil.ProfileRepresentation{
			ID:   yggdrasil.UUIDToHex(hero.UUID),
			Name: "hero",
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeJSON[yggdrasil.RefreshResponse](t, resp)
	assert.NotEqual(t, "a1", body.AccessToken)
	assert.Equal(t, "c1", body.ClientToken)
	require.NotNil(t, body.SelectedProfile)
	assert.Equal(t, "hero", body.SelectedProfile.Name)
}

func TestHTTP_RefreshReassignRejected(t *testing.T) {
	app, db := newTestApp(t)

	user := seedUser(t, db, "steve@example.com", "hunter2")
	hero := seedProfile(t, db, user, "hero", yggdrasil.UploadableNone, nil, nil)
	villain := seedProfile(t, db, user, "villain", yggdrasil.UploadableNone, nil, nil)

	seedToken(t, db, user, hero, "a1", "c1", yggdrasil.TokenAvailable,
		time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC))

	resp := postJSON(t, app, "/authserver/refresh", yggdrasil.RefreshRequest{
		AccessToken: "a1",
		ClientToken: "c1",
		SelectedProfile: &yggdrasil.ProfileRepresentation{
			ID:   yggdrasil.UUIDToHex(villain.UUID),
			Name: "villain",
		},
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decodeJSON[yggdrasil.ErrorResponse](t, resp)
	assert.Equal(t, "IllegalArgumentException", body.Error)
	assert.Equal(t, "Access token already has a profile assigned.", body.ErrorMessage)
}

func TestHTTP_RefreshUnknownToken(t *testing.T) {
	app, _ := newTestApp(t)

	resp := postJSON(t, app, "/authserver/refresh", yggdrasil.RefreshRequest{
		AccessToken: "missing",
	})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	body := decodeJSON[yggdrasil.ErrorResponse](t, resp)
	assert.Equal(t, "ForbiddenOperationException", body.Error)
	assert.Equal(t, "Invalid token.", body.ErrorMessage)
}

func TestHTTP_Validate(t *testing.T) {
	app, db := newTestApp(t)

	user := seedUser(t, db, "steve@example.com", "hunter2")
	seedToken(t, db, user, nil, "a1", "c1", yggdrasil.TokenAvailable,
		time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC))

	resp := postJSON(t, app, "/authserver/validate", yggdrasil.ValidateRequest{
		AccessToken: "a1",
		ClientToken: "c1",
	})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = postJSON(t, app, "/authserver/validate", yggdrasil.ValidateRequest{
		AccessToken: "missing",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestHTTP_Invalidate(t *testing.T) {
	app, db := newTestApp(t)

	user := seedUser(t, db, "steve@example.com", "hunter2")
	seedToken(t, db, user, nil, "a1", "c1", yggdrasil.TokenAvailable,
		time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC))

	resp := postJSON(t, app, "/authserver/invalidate", yggdrasil.ValidateRequest{
		AccessToken: "a1",
	})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Nil(t, findToken(t, db, "a1"))

	// invalidating twice stays quiet
	resp = postJSON(t, app, "/authserver/invalidate", yggdrasil.ValidateRequest{
		AccessToken: "a1",
	})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestHTTP_Signout(t *testing.T) {
	app, db := newTestApp(t)

	user := seedUser(t, db, "steve@example.com", "hunter2")
	seedToken(t, db, user, nil, "a1", "c1", yggdrasil.TokenAvailable,
		time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC))

	resp := postJSON(t, app, "/authserver/signout", yggdrasil.SignoutRequest{
		Username: "steve@example.com",
		Password: "hunter2",
	})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Zero(t, countTokens(t, db, user.ID))
}

func TestHTTP_MalformedBody(t *testing.T) {
	app, _ := newTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/authserver/authenticate", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
