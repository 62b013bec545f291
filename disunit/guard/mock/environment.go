package mock

import (
	context "context"
	reflect "reflect"

	snowflake "github.com/disgoorg/snowflake/v2"
	gomock "go.uber.org/mock/gomock"
)

// MockEnvironment is a mock of Environment interface.
type MockEnvironment struct {
	ctrl     *gomock.Controller
	recorder *MockEnvironmentMockRecorder
	isgomock struct{}
}

// MockEnvironmentMockRecorder is the mock recorder for MockEnvironment.
type MockEnvironmentMockRecorder struct {
	mock *MockEnvironment
}

// NewMockEnvironment creates a new mock instance.
func NewMockEnvironment(ctrl *gomock.Controller) *MockEnvironment {
	mock := &MockEnvironment{ctrl: ctrl}
	mock.recorder = &MockEnvironmentMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockEnvironment) EXPECT() *MockEnvironmentMockRecorder {
	return m.recorder
}

// InExperiment mocks base method.
func (m *MockEnvironment) InExperiment(ctx context.Context, experimentID int, userID snowflake.ID, guildID *snowflake.ID) (bool, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "InExperiment", ctx, experimentID, userID, guildID)
	ret0, _ := ret[0].(bool)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// InExperiment indicates an expected call of InExperiment.
func (mr *MockEnvironmentMockRecorder) InExperiment(ctx, experimentID, userID, guildID any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "InExperiment", reflect.TypeOf((*MockEnvironment)(nil).InExperiment), ctx, experimentID, userID, guildID)
}

// IsBeta mocks base method.
func (m *MockEnvironment) IsBeta(ctx context.Context, userID snowflake.ID, guildID *snowflake.ID) (bool, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "IsBeta", ctx, userID, guildID)
	ret0, _ := ret[0].(bool)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// IsBeta indicates an expected call of IsBeta.
func (mr *MockEnvironmentMockRecorder) IsBeta(ctx, userID, guildID any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "IsBeta", reflect.TypeOf((*MockEnvironment)(nil).IsBeta), ctx, userID, guildID)
}

// IsDeveloper mocks base method.
func (m *MockEnvironment) IsDeveloper(ctx context.Context, userID snowflake.ID) (bool, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "IsDeveloper", ctx, userID)
	ret0, _ := ret[0].(bool)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// IsDeveloper indicates an expected call of IsDeveloper.
func (mr *MockEnvironmentMockRecorder) IsDeveloper(ctx, userID any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "IsDeveloper", reflect.TypeOf((*MockEnvironment)(nil).IsDeveloper), ctx, userID)
}

// IsOwner mocks base method.
func (m *MockEnvironment) IsOwner(ctx context.Context, userID snowflake.ID) (bool, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "IsOwner", ctx, userID)
	ret0, _ := ret[0].(bool)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// IsOwner indicates an expected call of IsOwner.
func (mr *MockEnvironmentMockRecorder) IsOwner(ctx, userID any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "IsOwner", reflect.TypeOf((*MockEnvironment)(nil).IsOwner), ctx, userID)
}

// IsPremium mocks base method.
func (m *MockEnvironment) IsPremium(ctx context.Context, userID snowflake.ID, guildID *snowflake.ID) (bool, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "IsPremium", ctx, userID, guildID)
	ret0, _ := ret[0].(bool)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// IsPremium indicates an expected call of IsPremium.
func (mr *MockEnvironmentMockRecorder) IsPremium(ctx, userID, guildID any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "IsPremium", reflect.TypeOf((*MockEnvironment)(nil).IsPremium), ctx, userID, guildID)
}
