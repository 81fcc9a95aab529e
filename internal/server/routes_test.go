package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/berfenger/rfxcom2mqtt/internal/core/domain"
	"github.com/berfenger/rfxcom2mqtt/internal/util"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
)

func healthServer(as *actor.ActorSystem, healthy bool) *Server {
	pid := as.Root.Spawn(actor.PropsFromFunc(func(ctx actor.Context) {
		if _, ok := ctx.Message().(domain.ActorHealthRequest); ok {
			ctx.Respond(domain.ActorHealthResponse{Id: domain.ACTOR_ID_MASTER, Healthy: healthy})
		}
	}))
	cfg := util.LoadTestConfig()
	return &Server{
		port:        cfg.Port,
		rootContext: as.Root,
		masterActor: pid,
	}
}

func TestHealthCheckHandler(t *testing.T) {
	assert := assert.New(t)

	as := actor.NewActorSystem()
	defer as.Shutdown()

	for _, tc := range []struct {
		healthy bool
		status  int
		body    string
	}{
		{true, http.StatusOK, HEALTH_OK},
		{false, http.StatusServiceUnavailable, HEALTH_FAIL},
	} {
		handler := healthServer(as, tc.healthy).RegisterRoutes()

		req := httptest.NewRequest(http.MethodGet, "/healthcheck", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(tc.status, rec.Code)
		assert.Equal(tc.body, rec.Body.String())
	}
}

func TestNewServerAddr(t *testing.T) {
	as := actor.NewActorSystem()
	defer as.Shutdown()

	cfg := util.LoadTestConfig()
	srv := NewServer(cfg, as.Root, nil)
	assert.Equal(t, ":8080", srv.Addr)
}
