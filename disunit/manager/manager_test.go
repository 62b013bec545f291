package manager

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/disgoorg/disunit/disunit/deploy"
	"github.com/disgoorg/disunit/disunit/deploy/mock"
	"github.com/disgoorg/disunit/disunit/errs"
	"github.com/disgoorg/disunit/disunit/handlers"
	"github.com/disgoorg/disunit/disunit/loader"
	"github.com/disgoorg/disunit/disunit/unit"
)

type fixture struct {
	root  string
	table *handlers.Table
	mgr   *Manager

	mu    sync.Mutex
	names []string
	ready int
}

func (f *fixture) record(n Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.names = append(f.names, n.Name+":"+n.UnitName)
}

func (f *fixture) notifications() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.names...)
}

func (f *fixture) write(t *testing.T, rel string, content string) string {
	t.Helper()
	path := filepath.Join(f.root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newFixture(t *testing.T, coordinator *deploy.Coordinator) *fixture {
	t.Helper()
	f := &fixture{root: t.TempDir(), table: handlers.New()}
	noop := func(*handler.CommandEvent) error { return nil }
	f.table.
		HandleCommand("ping", noop).
		HandleCommand("profile", noop).
		HandleCommand("vote", noop).
		HandleComponent("vote", func(*handler.ComponentEvent) error { return nil }).
		HandleEvent("ready", func(context.Context, bot.Event) error {
			f.mu.Lock()
			f.ready++
			f.mu.Unlock()
			return nil
		})

	f.mgr = New(Config{
		Loader: loader.New(loader.NewFileSource(), 64),
		Binder: f.table,
		Roots: Roots{
			Slash:       filepath.Join(f.root, "slash"),
			ContextMenu: filepath.Join(f.root, "context"),
			Events:      filepath.Join(f.root, "events"),
		},
		Coordinator: coordinator,
	})
	f.mgr.AddListener(ListenerFunc(f.record))
	return f
}

func (f *fixture) seed(t *testing.T) {
	t.Helper()
	f.write(t, "slash/general/ping.toml", "kind = \"slash\"\nname = \"ping\"\ndescription = \"Replies with pong\"\ncooldown = 5\n")
	f.write(t, "context/profile.yaml", "kind: contextMenu\nname: profile\ntype: user\n")
	f.write(t, "events/ready.toml", "kind = \"event\"\nname = \"ready\"\nonce = true\n")
}

func TestQualifiedNotifications(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(t)
	ctx := context.Background()

	require.NoError(t, f.mgr.LoadAll(ctx))
	assert.ElementsMatch(t, []string{
		"slashCommandLoad:ping",
		"contextMenuLoad:profile",
		"eventLoad:ready",
	}, f.notifications())

	var unloaded Notification
	f.mgr.On("slashCommandUnload", func(n Notification) { unloaded = n })

	_, err := f.mgr.Slash.Reload(ctx, "ping")
	require.NoError(t, err)
	require.NoError(t, f.mgr.Slash.Unload(ctx, "ping"))

	got := f.notifications()
	assert.Equal(t, []string{"slashCommandReload:ping", "slashCommandUnload:ping"}, got[len(got)-2:])
	assert.Equal(t, "ping", unloaded.UnitName)
	assert.Nil(t, unloaded.Unit)
}

func TestUnitsAndLookup(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(t)
	ctx := context.Background()
	require.NoError(t, f.mgr.LoadAll(ctx))

	units := f.mgr.Units()
	require.Len(t, units, 3)
	assert.Equal(t, unit.KindSlash, units[0].Kind())
	assert.Equal(t, unit.KindEvent, units[2].Kind())

	u, ok := f.mgr.Lookup(unit.KindContextMenu, "profile")
	require.True(t, ok)
	assert.Equal(t, "profile", u.Name())

	found, ok := f.mgr.FindByLocation(filepath.Join(f.root, "slash", "general", "ping.toml"))
	require.True(t, ok)
	assert.Equal(t, "ping", found.Name())

	assert.Equal(t, 3, f.mgr.UnloadAll(ctx))
	assert.Empty(t, f.mgr.Units())
}

func TestLoadPathRoutesByKind(t *testing.T) {
	f := newFixture(t, nil)
	path := f.write(t, "anywhere/profile.toml", "kind = \"contextMenu\"\nname = \"profile\"\ntype = \"message\"\n")

	u, err := f.mgr.LoadPath(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, unit.KindContextMenu, u.Kind())
	assert.Equal(t, 1, f.mgr.ContextMenu.Len())

	_, err = f.mgr.LoadPath(context.Background(), f.write(t, "broken.toml", "kind = \"slash\"\nname = \"nope\"\n"))
	var verr *errs.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestReloadClearsCooldowns(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(t)
	ctx := context.Background()
	require.NoError(t, f.mgr.LoadAll(ctx))

	cooldowns := f.mgr.Evaluator().Cooldowns()
	cooldowns.Acquire("slash:ping", snowflake.ID(1), time.Minute)
	cooldowns.Acquire("contextMenu:profile", snowflake.ID(1), time.Minute)

	_, err := f.mgr.Reload(ctx, unit.KindSlash, "ping")
	require.NoError(t, err)
	assert.Equal(t, 1, cooldowns.Len())

	require.NoError(t, f.mgr.Unload(ctx, unit.KindContextMenu, "profile"))
	assert.Equal(t, 0, cooldowns.Len())
}

func TestOnceEventFiresOnce(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(t)
	ctx := context.Background()
	require.NoError(t, f.mgr.LoadAll(ctx))

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.mgr.dispatchEvent(ctx, &events.Ready{})
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, f.ready)
	assert.Equal(t, 0, f.mgr.Events.Len())
	assert.Contains(t, f.notifications(), "eventUnload:ready")
}

func TestResolve(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(t)
	f.write(t, "slash/vote.toml", "kind = \"slash\"\nname = \"vote\"\ndescription = \"Start a vote\"\ncustom_id = \"vote:\"\n")
	require.NoError(t, f.mgr.LoadAll(context.Background()))

	u, ok := f.mgr.resolveCommand(discord.ApplicationCommandTypeSlash, "ping")
	require.True(t, ok)
	assert.Equal(t, "ping", u.Name())

	_, ok = f.mgr.resolveCommand(discord.ApplicationCommandTypeMessage, "profile")
	assert.False(t, ok, "profile is a user command")

	u, ok = f.mgr.resolveComponent("vote:yes:123")
	require.True(t, ok)
	assert.Equal(t, "vote", u.Name())

	_, ok = f.mgr.resolveComponent("paginator:next")
	assert.False(t, ok)
}

func TestDeployAllNotifies(t *testing.T) {
	remote := mock.NewMockRemote(gomock.NewController(t))
	remote.EXPECT().List(gomock.Any(), deploy.Global()).Return([]deploy.RemoteCommand{
		{ID: 1, Name: "stale", Type: discord.ApplicationCommandTypeSlash},
	}, nil)
	remote.EXPECT().BulkReplace(gomock.Any(), deploy.Global(), gomock.Len(2)).Return(nil, nil)

	f := newFixture(t, deploy.NewCoordinator(remote, nil, 0))
	f.seed(t)
	ctx := context.Background()
	require.NoError(t, f.mgr.LoadAll(ctx))

	reports, err := f.mgr.Slash.DeployAll(ctx)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, []string{"ping", "profile"}, reports[0].Created)
	assert.Equal(t, []string{"stale"}, reports[0].Removed)

	assert.Contains(t, f.notifications(), "slashCommandDeploy:ping")
	assert.Contains(t, f.notifications(), "contextMenuDeploy:profile")
}

func TestDeployFailureDoesNotNotify(t *testing.T) {
	remote := mock.NewMockRemote(gomock.NewController(t))
	remote.EXPECT().Upsert(gomock.Any(), deploy.Global(), gomock.Any()).
		Return(deploy.RemoteCommand{}, errors.New("401 unauthorized"))

	f := newFixture(t, deploy.NewCoordinator(remote, nil, 0))
	f.seed(t)
	ctx := context.Background()
	require.NoError(t, f.mgr.LoadAll(ctx))

	err := f.mgr.Slash.Deploy(ctx, "ping")
	var rerr *errs.RemoteError
	require.ErrorAs(t, err, &rerr)
	assert.NotContains(t, f.notifications(), "slashCommandDeploy:ping")

	err = f.mgr.Slash.Deploy(ctx, "pong")
	assert.True(t, errs.IsNotFound(err))
}

func TestDeployNotConfigured(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.mgr.DeployAll(context.Background())
	assert.ErrorIs(t, err, ErrDeployNotConfigured)
	assert.ErrorIs(t, f.mgr.Slash.Deploy(context.Background(), "ping"), ErrDeployNotConfigured)
}

func TestEventName(t *testing.T) {
	assert.Equal(t, "ready", EventName(&events.Ready{}))
	assert.Equal(t, "messageCreate", EventName(&events.MessageCreate{}))
	assert.Equal(t, "guildMemberJoin", EventName(&events.GuildMemberJoin{}))
	assert.Equal(t, "", EventName(nil))
}

func TestDenialMessage(t *testing.T) {
	msg := DenialMessage(&errs.GuardDenied{Unit: "ping", Reason: errs.ReasonCooldown, Remaining: 1500 * time.Millisecond})
	assert.Equal(t, "Slow down! Try again in 1.5s.", msg)

	msg = DenialMessage(&errs.GuardDenied{Unit: "ban", Reason: errs.ReasonUserPermissions, Missing: []string{"BanMembers"}})
	assert.Contains(t, msg, "BanMembers")
}

type response struct {
	kind    discord.InteractionResponseType
	content string
}

func commandInteraction(t *testing.T, name string) *events.InteractionCreate {
	t.Helper()
	payload := fmt.Sprintf(`{
		"id": "1", "application_id": "2", "type": 2, "token": "tok", "version": 1,
		"guild_id": "10",
		"channel": {"id": "20", "type": 0, "guild_id": "10", "name": "general", "permissions": "0"},
		"member": {"user": {"id": "30", "username": "mika"}, "roles": [], "joined_at": "2024-01-01T00:00:00Z", "permissions": "0"},
		"app_permissions": "0",
		"data": {"id": "40", "name": %q, "type": 1}
	}`, name)
	i, err := discord.UnmarshalInteraction([]byte(payload))
	require.NoError(t, err)
	return &events.InteractionCreate{GenericEvent: events.NewGenericEvent(nil, 0, 0), Interaction: i}
}

func TestOnEventRoutesCommands(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(t)
	var ran int
	f.table.HandleCommand("echo", func(e *handler.CommandEvent) error {
		assert.NotNil(t, e.Ctx)
		ran++
		return nil
	})
	f.write(t, "slash/echo.toml", "kind = \"slash\"\nname = \"echo\"\ndescription = \"Echo\"\ncooldown = 5\ndefer = true\nephemeral = true\n")
	require.NoError(t, f.mgr.LoadAll(context.Background()))

	var responses []response
	invoke := func() {
		ev := commandInteraction(t, "echo")
		ev.Respond = func(kind discord.InteractionResponseType, data discord.InteractionResponseData, _ ...rest.RequestOpt) error {
			r := response{kind: kind}
			if msg, ok := data.(discord.MessageCreate); ok {
				r.content = msg.Content
			}
			responses = append(responses, r)
			return nil
		}
		f.mgr.OnEvent(ev)
	}

	invoke()
	require.Equal(t, 1, ran)
	require.Len(t, responses, 1)
	assert.Equal(t, discord.InteractionResponseTypeDeferredCreateMessage, responses[0].kind)

	// the second call within the cooldown never reaches the handler
	invoke()
	assert.Equal(t, 1, ran)
	require.Len(t, responses, 2)
	assert.Equal(t, discord.InteractionResponseTypeCreateMessage, responses[1].kind)
	assert.Contains(t, responses[1].content, "Slow down")

	// commands without a cached unit are ignored
	f.mgr.OnEvent(commandInteraction(t, "missing"))
	assert.Len(t, responses, 2)
}
