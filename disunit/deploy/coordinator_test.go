package deploy_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/snowflake/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/disgoorg/disunit/disunit/deploy"
	"github.com/disgoorg/disunit/disunit/deploy/mock"
	"github.com/disgoorg/disunit/disunit/errs"
	"github.com/disgoorg/disunit/disunit/unit"
)

type binder struct{}

func (binder) Command(string) (unit.CommandHandler, bool) {
	return func(*handler.CommandEvent) error { return nil }, true
}
func (binder) Component(string) (unit.ComponentHandler, bool) { return nil, false }
func (binder) Event(string) (unit.EventHandler, bool) {
	return func(context.Context, bot.Event) error { return nil }, true
}

func slash(t *testing.T, name string, deployEnabled bool) unit.Deployable {
	t.Helper()
	s, err := unit.NewSlashCommand(&unit.SlashDefinition{
		Common:        unit.Common{Name: name},
		Description:   "test",
		DeployEnabled: &deployEnabled,
	}, "/units/slash/"+name+".toml", binder{})
	require.NoError(t, err)
	return s
}

func userMenu(t *testing.T, name string) unit.Deployable {
	t.Helper()
	c, err := unit.NewContextMenu(&unit.ContextMenuDefinition{
		Common: unit.Common{Name: name},
		Type:   "user",
	}, "/units/context/"+name+".toml", binder{})
	require.NoError(t, err)
	return c
}

// memoryRemote keeps commands per scope the way the remote registry does.
type memoryRemote struct {
	mu     sync.Mutex
	nextID snowflake.ID
	scopes map[string][]deploy.RemoteCommand
}

func newMemoryRemote() *memoryRemote {
	return &memoryRemote{nextID: 1, scopes: map[string][]deploy.RemoteCommand{}}
}

func (m *memoryRemote) record(cmd discord.ApplicationCommandCreate) deploy.RemoteCommand {
	m.nextID++
	return deploy.RemoteCommand{ID: m.nextID, Name: cmd.CommandName(), Type: cmd.Type()}
}

func (m *memoryRemote) List(_ context.Context, scope deploy.Scope) ([]deploy.RemoteCommand, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]deploy.RemoteCommand(nil), m.scopes[scope.String()]...), nil
}

func (m *memoryRemote) Upsert(_ context.Context, scope deploy.Scope, cmd discord.ApplicationCommandCreate) (deploy.RemoteCommand, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rc := m.record(cmd)
	cmds := m.scopes[scope.String()]
	for i, c := range cmds {
		if c.Name == rc.Name && c.Type == rc.Type {
			cmds[i] = rc
			return rc, nil
		}
	}
	m.scopes[scope.String()] = append(cmds, rc)
	return rc, nil
}

func (m *memoryRemote) BulkReplace(_ context.Context, scope deploy.Scope, cmds []discord.ApplicationCommandCreate) ([]deploy.RemoteCommand, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set := make([]deploy.RemoteCommand, 0, len(cmds))
	for _, c := range cmds {
		set = append(set, m.record(c))
	}
	m.scopes[scope.String()] = set
	return set, nil
}

func (m *memoryRemote) Delete(_ context.Context, scope deploy.Scope, id snowflake.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cmds := m.scopes[scope.String()]
	for i, c := range cmds {
		if c.ID == id {
			m.scopes[scope.String()] = append(cmds[:i], cmds[i+1:]...)
			return nil
		}
	}
	return errors.New("unknown command")
}

func names(cmds []deploy.RemoteCommand) []string {
	out := make([]string, 0, len(cmds))
	for _, c := range cmds {
		out = append(out, c.Name)
	}
	return out
}

func TestDeployAllIntoEmptyRemote(t *testing.T) {
	remote := newMemoryRemote()
	c := deploy.NewCoordinator(remote, nil, 0)

	units := []unit.Deployable{slash(t, "ping", true), slash(t, "ban", true), userMenu(t, "profile")}
	reports, err := c.DeployAll(context.Background(), units)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, []string{"ban", "ping", "profile"}, reports[0].Created)
	assert.Empty(t, reports[0].Removed)

	cmds, _ := remote.List(context.Background(), deploy.Global())
	assert.Len(t, cmds, 3)
}

func TestDeployAllRemovesStaleAndSkipsDisabled(t *testing.T) {
	remote := newMemoryRemote()
	remote.scopes["global"] = []deploy.RemoteCommand{
		{ID: 10, Name: "ping", Type: discord.ApplicationCommandTypeSlash},
		{ID: 11, Name: "old", Type: discord.ApplicationCommandTypeSlash},
		{ID: 12, Name: "ping", Type: discord.ApplicationCommandTypeUser},
	}
	c := deploy.NewCoordinator(remote, nil, 0)

	reports, err := c.DeployAll(context.Background(), []unit.Deployable{slash(t, "ping", true), slash(t, "secret", false)})
	require.NoError(t, err)
	assert.Equal(t, []string{"ping"}, reports[0].Updated)
	assert.Equal(t, []string{"old", "ping"}, reports[0].Removed, "user command named ping is a different record")
	assert.Empty(t, reports[0].Created)

	cmds, _ := remote.List(context.Background(), deploy.Global())
	assert.Equal(t, []string{"ping"}, names(cmds))
}

func TestDeployAllPerGuild(t *testing.T) {
	remote := newMemoryRemote()
	c := deploy.NewCoordinator(remote, []snowflake.ID{2, 1}, 2)

	reports, err := c.DeployAll(context.Background(), []unit.Deployable{slash(t, "ping", true)})
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, "guild:1", reports[0].Scope.String())
	assert.Equal(t, "guild:2", reports[1].Scope.String())
	assert.Empty(t, remote.scopes["global"])
}

func TestPlanDoesNotWrite(t *testing.T) {
	remote := newMemoryRemote()
	remote.scopes["global"] = []deploy.RemoteCommand{{ID: 10, Name: "old", Type: discord.ApplicationCommandTypeSlash}}
	c := deploy.NewCoordinator(remote, nil, 0)

	reports, err := c.Plan(context.Background(), []unit.Deployable{slash(t, "ping", true)})
	require.NoError(t, err)
	assert.True(t, reports[0].DryRun)
	assert.True(t, reports[0].Changed())
	assert.Equal(t, []string{"ping"}, reports[0].Created)
	assert.Equal(t, []string{"old"}, reports[0].Removed)

	cmds, _ := remote.List(context.Background(), deploy.Global())
	assert.Equal(t, []string{"old"}, names(cmds))
}

func TestDeployAllRejectsDuplicates(t *testing.T) {
	c := deploy.NewCoordinator(newMemoryRemote(), nil, 0)
	_, err := c.DeployAll(context.Background(), []unit.Deployable{slash(t, "ping", true), slash(t, "ping", true)})

	var verr *errs.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestDeploySingle(t *testing.T) {
	remote := newMemoryRemote()
	c := deploy.NewCoordinator(remote, nil, 0)

	require.NoError(t, c.Deploy(context.Background(), slash(t, "ping", true)))
	require.NoError(t, c.Deploy(context.Background(), slash(t, "ping", true)))
	cmds, _ := remote.List(context.Background(), deploy.Global())
	assert.Len(t, cmds, 1)

	err := c.Deploy(context.Background(), slash(t, "hidden", false))
	var disabled *errs.DeployDisabledError
	require.ErrorAs(t, err, &disabled)
	assert.Equal(t, "hidden", disabled.Name)
}

func TestUndeploy(t *testing.T) {
	remote := newMemoryRemote()
	remote.scopes["global"] = []deploy.RemoteCommand{
		{ID: 10, Name: "ping", Type: discord.ApplicationCommandTypeSlash},
		{ID: 11, Name: "ping", Type: discord.ApplicationCommandTypeUser},
	}
	c := deploy.NewCoordinator(remote, nil, 0)

	n, err := c.Undeploy(context.Background(), "ping", discord.ApplicationCommandTypeSlash)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	cmds, _ := remote.List(context.Background(), deploy.Global())
	require.Len(t, cmds, 1)
	assert.Equal(t, discord.ApplicationCommandTypeUser, cmds[0].Type)
}

func TestDeployAllRemoteFailure(t *testing.T) {
	remote := mock.NewMockRemote(gomock.NewController(t))
	guild := deploy.Guild(1)
	remote.EXPECT().List(gomock.Any(), guild).Return(nil, nil)
	remote.EXPECT().
		BulkReplace(gomock.Any(), guild, gomock.Len(1)).
		Return(nil, errors.New("429 too many requests"))

	c := deploy.NewCoordinator(remote, []snowflake.ID{1}, 0)
	_, err := c.DeployAll(context.Background(), []unit.Deployable{slash(t, "ping", true)})

	var rerr *errs.RemoteError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "guild:1", rerr.Scope)
	assert.Contains(t, err.Error(), "429")
}

func TestDeployAllPartialFailure(t *testing.T) {
	remote := mock.NewMockRemote(gomock.NewController(t))
	remote.EXPECT().List(gomock.Any(), deploy.Guild(1)).Return(nil, errors.New("missing access"))
	remote.EXPECT().List(gomock.Any(), deploy.Guild(2)).Return(nil, nil)
	remote.EXPECT().BulkReplace(gomock.Any(), deploy.Guild(2), gomock.Any()).Return(nil, nil)

	c := deploy.NewCoordinator(remote, []snowflake.ID{1, 2}, 0)
	reports, err := c.DeployAll(context.Background(), []unit.Deployable{slash(t, "ping", true)})

	var batch *errs.BatchError
	require.ErrorAs(t, err, &batch)
	assert.Equal(t, []string{"guild:1"}, batch.Keys())
	require.Len(t, reports, 1)
	assert.Equal(t, "guild:2", reports[0].Scope.String())
}
