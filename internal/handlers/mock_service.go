package handlers

import (
	"context"
	"net/http"
	"time"

	"cosynight_bridge/internal/models"
	"cosynight_bridge/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockBlanket struct {
	setZonesErr    error
	setDurationErr error
	stopErr        error

	lastDevice string
	lastBody   int
	lastFeet   int
	lastHours  float64

	setZonesCalls    int
	setDurationCalls int
	stopCalls        int
}

func (m *mockBlanket) SetZones(ctx context.Context, deviceID string, body, feet int) error {
	m.setZonesCalls++
	m.lastDevice = deviceID
	m.lastBody = body
	m.lastFeet = feet
	return m.setZonesErr
}
func (m *mockBlanket) SetDuration(ctx context.Context, deviceID string, hours float64) error {
	m.setDurationCalls++
	m.lastDevice = deviceID
	m.lastHours = hours
	return m.setDurationErr
}
func (m *mockBlanket) Stop(ctx context.Context, deviceID string) error {
	m.stopCalls++
	m.lastDevice = deviceID
	return m.stopErr
}

type mockMonitoring struct {
	byID    map[string]models.BlanketStatus
	all     []models.BlanketStatus
	getErr  error
	listErr error
}

func (m *mockMonitoring) GetStatus(ctx context.Context, deviceID string) (models.BlanketStatus, error) {
	if m.getErr != nil {
		return models.BlanketStatus{}, m.getErr
	}
	if st, ok := m.byID[deviceID]; ok {
		return st, nil
	}
	return models.BlanketStatus{}, service.ErrUnknownDevice
}
func (m *mockMonitoring) ListStatuses(ctx context.Context) ([]models.BlanketStatus, error) {
	return m.all, m.listErr
}

type mockEventLog struct {
	resp       []models.BlanketEvent
	err        error
	lastFrom   time.Time
	lastTo     time.Time
	lastType   string
	lastDevice string
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.BlanketEvent, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	m.lastDevice = f.DeviceID
	return m.resp, m.err
}

type mockPoller struct {
	commandsSent []string
}

func (m *mockPoller) Run(ctx context.Context) {}
func (m *mockPoller) CommandSent(deviceID string) {
	m.commandsSent = append(m.commandsSent, deviceID)
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
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
