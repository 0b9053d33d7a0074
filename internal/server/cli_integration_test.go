package server

import (
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cliauth "github.com/Herculano1234/MuseuCom/internal/cli/auth"
	"github.com/Herculano1234/MuseuCom/internal/cli/client"
	"github.com/Herculano1234/MuseuCom/internal/cli/credstore"
	"github.com/Herculano1234/MuseuCom/internal/cli/gateway"
	"github.com/Herculano1234/MuseuCom/internal/cli/session"
	"github.com/Herculano1234/MuseuCom/internal/models"
)

type cliStack struct {
	session *session.Manager
	api     *client.Client
	auth    *cliauth.Service
}

func newCLIStack(t *testing.T, baseURL string, store credstore.Store) *cliStack {
	t.Helper()

	sess := session.NewManager(store, zerolog.Nop())
	require.NoError(t, sess.Load())

	authAPI := client.NewAuthAPI(baseURL, nil)
	gw := gateway.New(sess, authAPI)
	api := client.New(baseURL, gw.Client(client.APITimeout))

	return &cliStack{
		session: sess,
		api:     api,
		auth:    cliauth.NewService(sess, authAPI, api, zerolog.Nop()),
	}
}

func countRefreshTokens(t *testing.T, srv *Server) (total, revoked int64) {
	t.Helper()
	db := srv.GetDB()
	require.NoError(t, db.Model(&models.RefreshToken{}).Count(&total).Error)
	require.NoError(t, db.Model(&models.RefreshToken{}).Where("revoked_at IS NOT NULL").Count(&revoked).Error)
	return total, revoked
}

func TestCLIAgainstServer(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	ctx := t.Context()
	store := credstore.NewMemoryStore()
	cli := newCLIStack(t, ts.URL, store)

	user, err := cli.auth.Login(ctx, adminEmail, adminPassword)
	require.NoError(t, err)
	assert.Equal(t, adminEmail, user.Email)
	assert.Equal(t, "administrador", cli.session.Role())

	created, err := cli.api.CreateMaterial(ctx, client.MaterialInput{
		Name:         "Gramofone",
		SerialNumber: "GR-1920",
	}, client.Attachment{Field: client.FieldImage, Filename: "gramofone.png", Content: pngHeader})
	require.NoError(t, err)
	assert.Equal(t, "Gramofone", created.Name)
	assert.Contains(t, created.Photo, "data:image/png;base64,")

	t.Run("expired access token is refreshed once for concurrent calls", func(t *testing.T) {
		oldRefresh := cli.session.RefreshToken()
		require.NoError(t, cli.session.UpdateTokens("stale-access-token", ""))

		const callers = 6
		var wg sync.WaitGroup
		errs := make([]error, callers)
		for i := range callers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if i%2 == 0 {
					_, errs[i] = cli.api.Dashboard(ctx)
				} else {
					_, errs[i] = cli.api.GetMaterialBySerial(ctx, "GR-1920")
				}
			}()
		}
		wg.Wait()

		for _, err := range errs {
			assert.NoError(t, err)
		}
		assert.NotEqual(t, oldRefresh, cli.session.RefreshToken())

		total, revoked := countRefreshTokens(t, srv)
		assert.Equal(t, int64(2), total)
		assert.Equal(t, int64(1), revoked)
	})

	t.Run("a multipart upload survives a refresh", func(t *testing.T) {
		require.NoError(t, cli.session.UpdateTokens("stale-access-token", ""))

		m, err := cli.api.CreateMaterial(ctx, client.MaterialInput{Name: "Telégrafo"})
		require.NoError(t, err)
		assert.Equal(t, "Telégrafo", m.Name)
	})

	t.Run("bootstrap from persisted credentials", func(t *testing.T) {
		restarted := newCLIStack(t, ts.URL, store)

		me, err := restarted.auth.Bootstrap(ctx)
		require.NoError(t, err)
		require.NotNil(t, me)
		assert.Equal(t, adminEmail, me.Email)
	})

	t.Run("logout revokes and clears", func(t *testing.T) {
		require.NoError(t, cli.auth.Logout(ctx))
		assert.Equal(t, 0, store.Len())

		total, revoked := countRefreshTokens(t, srv)
		assert.Equal(t, int64(3), total)
		assert.Equal(t, total, revoked)

		_, err := cli.api.Dashboard(ctx)
		assert.ErrorIs(t, err, client.ErrUnauthorized)
	})
}
