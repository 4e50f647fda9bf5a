package games

import (
	"github.com/fadedpez/tucocasino/pkg/entities"
	"github.com/fadedpez/tucocasino/pkg/rng"
	"github.com/stretchr/testify/mock"
)

// MockGame implements Game for testing
type MockGame struct {
	mock.Mock
}

func (m *MockGame) Kind() entities.GameKind {
	args := m.Called()
	return args.Get(0).(entities.GameKind)
}

func (m *MockGame) AutoPlay() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockGame) Choices() []string {
	args := m.Called()
	return args.Get(0).([]string)
}

func (m *MockGame) Validate(sel entities.Selections) error {
	args := m.Called(sel)
	return args.Error(0)
}

func (m *MockGame) Ready(sel entities.Selections) bool {
	args := m.Called(sel)
	return args.Bool(0)
}

func (m *MockGame) Apply(sel entities.Selections, option string) (entities.Selections, error) {
	args := m.Called(sel, option)
	return args.Get(0).(entities.Selections), args.Error(1)
}

func (m *MockGame) Resolve(sel entities.Selections, src rng.Source) (Resolution, error) {
	args := m.Called(sel, src)
	return args.Get(0).(Resolution), args.Error(1)
}
