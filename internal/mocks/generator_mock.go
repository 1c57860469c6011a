package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/example/realmforge/internal/game"
	"github.com/example/realmforge/internal/genclient"
	"github.com/example/realmforge/internal/models"
)

// MockGenerator is a mock type for the game.Generator type
type MockGenerator struct {
	mock.Mock
}

func (_m *MockGenerator) StartGame(ctx context.Context, ch models.Character, st models.StorySettings) (*models.Turn, error) {
	ret := _m.Called(ctx, ch, st)

	var r0 *models.Turn
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.Turn)
	}
	return r0, ret.Error(1)
}

func (_m *MockGenerator) NextTurn(ctx context.Context, history []models.HistoryEntry, action string) (*models.Turn, error) {
	ret := _m.Called(ctx, history, action)

	var r0 *models.Turn
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.Turn)
	}
	return r0, ret.Error(1)
}

func (_m *MockGenerator) GenerateSummary(ctx context.Context, history []models.HistoryEntry, finalStatus models.GameOverStatus, score int, turns int) (*models.Summary, error) {
	ret := _m.Called(ctx, history, finalStatus, score, turns)

	var r0 *models.Summary
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.Summary)
	}
	return r0, ret.Error(1)
}

func (_m *MockGenerator) GenerateImage(ctx context.Context, prompt string) (string, error) {
	ret := _m.Called(ctx, prompt)
	return ret.String(0), ret.Error(1)
}

func (_m *MockGenerator) GenerateSpeech(ctx context.Context, text string) (*genclient.Audio, error) {
	ret := _m.Called(ctx, text)

	var r0 *genclient.Audio
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*genclient.Audio)
	}
	return r0, ret.Error(1)
}

// NewMockGenerator creates a new instance of MockGenerator and registers
// the testing interface on the mock.
func NewMockGenerator(t interface {
	mock.TestingT
	Helper()
}) *MockGenerator {
	m := &MockGenerator{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ game.Generator = (*MockGenerator)(nil)
