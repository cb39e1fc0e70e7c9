package mocks

import (
	"github.com/brettbedarf/memfs/config"
	"github.com/stretchr/testify/mock"
)

// MockSettings implements config.Settings for testing across packages
type MockSettings struct {
	mock.Mock
}

var _ config.Settings = (*MockSettings)(nil)

func (m *MockSettings) Get(key string) string {
	args := m.Called(key)
	return args.String(0)
}

func (m *MockSettings) Set(key, value string) {
	m.Called(key, value)
}
