package handlers

import (
	"context"
	"net/http"

	cf "neohub_controller"
	"neohub_controller/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockHub struct {
	reply   string
	err     error
	calls   int
	lastCmd cf.Command
}

func (m *mockHub) Send(ctx context.Context, cmd cf.Command) (string, error) {
	m.calls++
	m.lastCmd = cmd
	return m.reply, m.err
}

type mockWeather struct {
	minC float64
	err  error
}

func (m *mockWeather) MinTemp(ctx context.Context) (float64, error) {
	return m.minC, m.err
}

type mockSchedule struct {
	setErr  error
	jobs    []cf.JobInfo
	lastSet cf.Schedule
	setCall int
}

func (m *mockSchedule) Set(s cf.Schedule) error {
	m.setCall++
	m.lastSet = s
	return m.setErr
}

func (m *mockSchedule) Jobs() []cf.JobInfo { return m.jobs }

type mockMonitoring struct {
	status cf.Status
	err    error
}

func (m *mockMonitoring) Status(ctx context.Context) (cf.Status, error) {
	return m.status, m.err
}

type mockRunLog struct {
	resp       []cf.RecipeRun
	err        error
	lastFilter service.RunFilter
}

func (m *mockRunLog) List(ctx context.Context, f service.RunFilter) ([]cf.RecipeRun, error) {
	m.lastFilter = f
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

const testToken = "shared-secret"

func newTestRouter(s *service.Service, opts Options) *gin.Engine {
	if opts.APIToken == "" {
		opts.APIToken = testToken
	}
	h := NewHandler(s, nil, opts)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}

func withAuth(req *http.Request) *http.Request {
	for k, vv := range authHeader(testToken) {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	return req
}
