package mock

import (
	context "context"
	reflect "reflect"

	gomock "go.uber.org/mock/gomock"

	models "github.com/disgoorg/disunit/disunit/database/models"
	repositories "github.com/disgoorg/disunit/disunit/database/repositories"
)

// MockEntitlementRepository is a mock of EntitlementRepository interface.
type MockEntitlementRepository struct {
	ctrl     *gomock.Controller
	recorder *MockEntitlementRepositoryMockRecorder
	isgomock struct{}
}

// MockEntitlementRepositoryMockRecorder is the mock recorder for MockEntitlementRepository.
type MockEntitlementRepositoryMockRecorder struct {
	mock *MockEntitlementRepository
}

// NewMockEntitlementRepository creates a new mock instance.
func NewMockEntitlementRepository(ctrl *gomock.Controller) *MockEntitlementRepository {
	mock := &MockEntitlementRepository{ctrl: ctrl}
	mock.recorder = &MockEntitlementRepositoryMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockEntitlementRepository) EXPECT() *MockEntitlementRepositoryMockRecorder {
	return m.recorder
}

// Grant mocks base method.
func (m *MockEntitlementRepository) Grant(ctx context.Context, e *models.Entitlement) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Grant", ctx, e)
	ret0, _ := ret[0].(error)
	return ret0
}

// Grant indicates an expected call of Grant.
func (mr *MockEntitlementRepositoryMockRecorder) Grant(ctx, e any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Grant", reflect.TypeOf((*MockEntitlementRepository)(nil).Grant), ctx, e)
}

// Has mocks base method.
func (m *MockEntitlementRepository) Has(ctx context.Context, tier models.Tier, experimentID int, subjects ...repositories.Subject) (bool, error) {
	m.ctrl.T.Helper()
	varargs := []any{ctx, tier, experimentID}
	for _, a := range subjects {
		varargs = append(varargs, a)
	}
	ret := m.ctrl.Call(m, "Has", varargs...)
	ret0, _ := ret[0].(bool)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// Has indicates an expected call of Has.
func (mr *MockEntitlementRepositoryMockRecorder) Has(ctx, tier, experimentID any, subjects ...any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	varargs := append([]any{ctx, tier, experimentID}, subjects...)
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Has", reflect.TypeOf((*MockEntitlementRepository)(nil).Has), varargs...)
}

// List mocks base method.
func (m *MockEntitlementRepository) List(ctx context.Context, tier models.Tier) ([]*models.Entitlement, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "List", ctx, tier)
	ret0, _ := ret[0].([]*models.Entitlement)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// List indicates an expected call of List.
func (mr *MockEntitlementRepositoryMockRecorder) List(ctx, tier any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "List", reflect.TypeOf((*MockEntitlementRepository)(nil).List), ctx, tier)
}

// Revoke mocks base method.
func (m *MockEntitlementRepository) Revoke(ctx context.Context, tier models.Tier, experimentID int, subject repositories.Subject) (int64, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Revoke", ctx, tier, experimentID, subject)
	ret0, _ := ret[0].(int64)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// Revoke indicates an expected call of Revoke.
func (mr *MockEntitlementRepositoryMockRecorder) Revoke(ctx, tier, experimentID, subject any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Revoke", reflect.TypeOf((*MockEntitlementRepository)(nil).Revoke), ctx, tier, experimentID, subject)
}

// MockUnitEventRepository is a mock of UnitEventRepository interface.
type MockUnitEventRepository struct {
	ctrl     *gomock.Controller
	recorder *MockUnitEventRepositoryMockRecorder
	isgomock struct{}
}

// MockUnitEventRepositoryMockRecorder is the mock recorder for MockUnitEventRepository.
type MockUnitEventRepositoryMockRecorder struct {
	mock *MockUnitEventRepository
}

// NewMockUnitEventRepository creates a new mock instance.
func NewMockUnitEventRepository(ctrl *gomock.Controller) *MockUnitEventRepository {
	mock := &MockUnitEventRepository{ctrl: ctrl}
	mock.recorder = &MockUnitEventRepositoryMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockUnitEventRepository) EXPECT() *MockUnitEventRepositoryMockRecorder {
	return m.recorder
}

// Create mocks base method.
func (m *MockUnitEventRepository) Create(ctx context.Context, e *models.UnitEvent) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Create", ctx, e)
	ret0, _ := ret[0].(error)
	return ret0
}

// Create indicates an expected call of Create.
func (mr *MockUnitEventRepositoryMockRecorder) Create(ctx, e any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Create", reflect.TypeOf((*MockUnitEventRepository)(nil).Create), ctx, e)
}

// Recent mocks base method.
func (m *MockUnitEventRepository) Recent(ctx context.Context, limit int) ([]*models.UnitEvent, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Recent", ctx, limit)
	ret0, _ := ret[0].([]*models.UnitEvent)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// Recent indicates an expected call of Recent.
func (mr *MockUnitEventRepositoryMockRecorder) Recent(ctx, limit any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Recent", reflect.TypeOf((*MockUnitEventRepository)(nil).Recent), ctx, limit)
}
