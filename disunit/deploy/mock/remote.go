package mock

import (
	context "context"
	reflect "reflect"

	discord "github.com/disgoorg/disgo/discord"
	snowflake "github.com/disgoorg/snowflake/v2"
	gomock "go.uber.org/mock/gomock"

	deploy "github.com/disgoorg/disunit/disunit/deploy"
)

// MockRemote is a mock of Remote interface.
type MockRemote struct {
	ctrl     *gomock.Controller
	recorder *MockRemoteMockRecorder
	isgomock struct{}
}

// MockRemoteMockRecorder is the mock recorder for MockRemote.
type MockRemoteMockRecorder struct {
	mock *MockRemote
}

// NewMockRemote creates a new mock instance.
func NewMockRemote(ctrl *gomock.Controller) *MockRemote {
	mock := &MockRemote{ctrl: ctrl}
	mock.recorder = &MockRemoteMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockRemote) EXPECT() *MockRemoteMockRecorder {
	return m.recorder
}

// BulkReplace mocks base method.
func (m *MockRemote) BulkReplace(ctx context.Context, scope deploy.Scope, cmds []discord.ApplicationCommandCreate) ([]deploy.RemoteCommand, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "BulkReplace", ctx, scope, cmds)
	ret0, _ := ret[0].([]deploy.RemoteCommand)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// BulkReplace indicates an expected call of BulkReplace.
func (mr *MockRemoteMockRecorder) BulkReplace(ctx, scope, cmds any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "BulkReplace", reflect.TypeOf((*MockRemote)(nil).BulkReplace), ctx, scope, cmds)
}

// Delete mocks base method.
func (m *MockRemote) Delete(ctx context.Context, scope deploy.Scope, id snowflake.ID) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Delete", ctx, scope, id)
	ret0, _ := ret[0].(error)
	return ret0
}

// Delete indicates an expected call of Delete.
func (mr *MockRemoteMockRecorder) Delete(ctx, scope, id any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Delete", reflect.TypeOf((*MockRemote)(nil).Delete), ctx, scope, id)
}

// List mocks base method.
func (m *MockRemote) List(ctx context.Context, scope deploy.Scope) ([]deploy.RemoteCommand, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "List", ctx, scope)
	ret0, _ := ret[0].([]deploy.RemoteCommand)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// List indicates an expected call of List.
func (mr *MockRemoteMockRecorder) List(ctx, scope any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "List", reflect.TypeOf((*MockRemote)(nil).List), ctx, scope)
}

// Upsert mocks base method.
func (m *MockRemote) Upsert(ctx context.Context, scope deploy.Scope, cmd discord.ApplicationCommandCreate) (deploy.RemoteCommand, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Upsert", ctx, scope, cmd)
	ret0, _ := ret[0].(deploy.RemoteCommand)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// Upsert indicates an expected call of Upsert.
func (mr *MockRemoteMockRecorder) Upsert(ctx, scope, cmd any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Upsert", reflect.TypeOf((*MockRemote)(nil).Upsert), ctx, scope, cmd)
}
