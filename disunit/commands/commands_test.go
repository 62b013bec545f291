package commands

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/disgoorg/disunit/disunit"
	"github.com/disgoorg/disunit/disunit/deploy"
	"github.com/disgoorg/disunit/disunit/deploy/mock"
	"github.com/disgoorg/disunit/disunit/errs"
	"github.com/disgoorg/disunit/disunit/handlers"
	"github.com/disgoorg/disunit/disunit/loader"
	"github.com/disgoorg/disunit/disunit/manager"
	"github.com/disgoorg/disunit/disunit/unit"
)

func noopCommand(*handler.CommandEvent) error    { return nil }
func noopEvent(context.Context, bot.Event) error { return nil }

func TestRegister(t *testing.T) {
	table := handlers.New()
	Register(table, disunit.New(disunit.DefaultConfig(), "dev", "unknown"))

	cmds, components, evs := table.IDs()
	assert.Equal(t, []string{"deploy", "ping", "profile", "reload", "units", "version"}, cmds)
	assert.Empty(t, components)
	assert.Equal(t, []string{"ready"}, evs)
}

func TestBundledUnitsBind(t *testing.T) {
	table := handlers.New()
	b := disunit.New(disunit.DefaultConfig(), "dev", "unknown")
	Register(table, b)

	root := filepath.Join("..", "..", "units")
	m := manager.New(manager.Config{
		Loader: loader.New(loader.NewFileSource(), 64),
		Binder: table,
		Roots: manager.Roots{
			Slash:       filepath.Join(root, "slash"),
			ContextMenu: filepath.Join(root, "context"),
			Events:      filepath.Join(root, "events"),
		},
	})
	require.NoError(t, m.LoadAll(context.Background()))

	assert.ElementsMatch(t, []string{"deploy", "ping", "reload", "units", "version"}, m.Slash.Names())
	assert.Equal(t, []string{"Profile"}, m.ContextMenu.Names())
	assert.Equal(t, []string{"ready"}, m.Events.Names())

	reload, ok := m.Slash.Get("reload")
	require.True(t, ok)
	assert.True(t, reload.Guards().DevOnly)
	assert.Equal(t, "system", reload.Category())
}

func newUnits(t *testing.T) []unit.Unit {
	t.Helper()
	table := handlers.New().
		HandleCommand("cmd", noopCommand).
		HandleEvent("evt", noopEvent)

	disabled := false
	ping, err := unit.NewSlashCommand(&unit.SlashDefinition{
		Common:      unit.Common{Kind: "slash", Name: "ping", Handler: "cmd"},
		Description: "Pong",
	}, "units/slash/system/ping.toml", table)
	require.NoError(t, err)
	secret, err := unit.NewSlashCommand(&unit.SlashDefinition{
		Common:      unit.Common{Kind: "slash", Name: "secret", Handler: "cmd", Enabled: &disabled},
		Description: "Hidden",
		Hidden:      true,
	}, "secret.toml", table)
	require.NoError(t, err)
	ready, err := unit.NewEvent(&unit.EventDefinition{
		Common: unit.Common{Kind: "event", Name: "startup", Handler: "evt"},
		Event:  "ready",
		Once:   true,
	}, "units/events/startup.toml", table)
	require.NoError(t, err)
	return []unit.Unit{ping, secret, ready}
}

func TestUnitLine(t *testing.T) {
	units := newUnits(t)
	assert.Equal(t, "✅ `/ping` • slash command • system", unitLine(units[0]))
	assert.Equal(t, "⛔ `/secret (hidden)` • slash command", unitLine(units[1]))
	assert.Equal(t, "✅ `startup → ready (once)` • event • events", unitLine(units[2]))
}

func TestFilterKind(t *testing.T) {
	units := newUnits(t)
	evs := filterKind(units, unit.KindEvent)
	require.Len(t, evs, 1)
	assert.Equal(t, "startup", evs[0].Name())
	// filtering must not clobber the input
	assert.Len(t, units, 3)
	assert.Equal(t, "ping", units[0].Name())
}

func TestPageText(t *testing.T) {
	lines := make([]string, 23)
	for i := range lines {
		lines[i] = fmt.Sprint(i)
	}
	assert.Equal(t, "0\n1\n2\n3\n4\n5\n6\n7\n8\n9", pageText(lines, 0))
	assert.Equal(t, "20\n21\n22", pageText(lines, 2))
	assert.Empty(t, pageText(lines, 3))
}

func TestParseKind(t *testing.T) {
	k, err := parseKind("contextMenu")
	require.NoError(t, err)
	assert.Equal(t, unit.KindContextMenu, k)

	_, err = parseKind("button")
	assert.Error(t, err)
}

func TestReloadEmbed(t *testing.T) {
	ok := reloadEmbed(unit.KindSlash, "ping", nil, 12*time.Millisecond)
	assert.Equal(t, SuccessColor, ok.Color)
	assert.Equal(t, "Reloaded slash command `ping` in 12ms.", ok.Description)

	missing := reloadEmbed(unit.KindSlash, "pnig", &errs.NotFoundError{
		Kind:        "slash",
		Name:        "pnig",
		Suggestions: []string{"ping", "pin"},
	}, 0)
	assert.Equal(t, WarningColor, missing.Color)
	assert.Contains(t, missing.Description, "Did you mean `ping`, `pin`?")

	batch := reloadEmbed(unit.KindEvent, "", errs.Batch("reload", map[string]error{
		"ready": errors.New("boom"),
	}), 0)
	assert.Equal(t, ErrorColor, batch.Color)
	assert.Equal(t, "Failed to reload 1 of every event", batch.Title)
	assert.Contains(t, batch.Description, "`ready`: boom")

	other := reloadEmbed(unit.KindEvent, "ready", errors.New("disk on fire"), 0)
	assert.Equal(t, ErrorColor, other.Color)
	assert.Contains(t, other.Description, "disk on fire")
}

func TestReportEmbed(t *testing.T) {
	reports := []deploy.Report{
		{Scope: deploy.Global(), Created: []string{"ping"}, Removed: []string{"old"}},
		{Scope: deploy.Guild(5)},
	}

	e := reportEmbed(reports, true)
	assert.Equal(t, "Deployment plan", e.Title)
	require.Len(t, e.Fields, 2)
	assert.Equal(t, "global", e.Fields[0].Name)
	assert.Equal(t, "+ ping\n- old", e.Fields[0].Value)
	assert.Equal(t, "guild:5", e.Fields[1].Name)
	assert.Equal(t, "no changes", e.Fields[1].Value)
	assert.Empty(t, e.Description)

	e = reportEmbed(reports[1:], false)
	assert.Equal(t, "Deployed commands", e.Title)
	assert.Equal(t, "Everything is up to date.", e.Description)
}

func TestVersionText(t *testing.T) {
	b := disunit.New(disunit.DefaultConfig(), "1.2.3", "abc123")
	text := versionText(b, b.Started.Add(90*time.Second))
	assert.Equal(t, "Version: 1.2.3\nCommit: abc123\nUptime: 1m30s", text)
}

func TestPresenceText(t *testing.T) {
	assert.Equal(t, "1 unit", presenceText(1))
	assert.Equal(t, "7 units", presenceText(7))
}

func TestUndeployEmbed(t *testing.T) {
	ctx := context.Background()

	embed := undeploy(ctx, nil, "ping")
	assert.Equal(t, WarningColor, embed.Color)

	remote := mock.NewMockRemote(gomock.NewController(t))
	remote.EXPECT().List(gomock.Any(), deploy.Global()).Return([]deploy.RemoteCommand{
		{ID: 7, Name: "ping", Type: discord.ApplicationCommandTypeSlash},
	}, nil).Times(2)
	remote.EXPECT().Delete(gomock.Any(), deploy.Global(), gomock.Any()).Return(nil)
	c := deploy.NewCoordinator(remote, nil, 0)

	embed = undeploy(ctx, c, "ping")
	assert.Equal(t, SuccessColor, embed.Color)
	assert.Equal(t, "Removed `/ping` from 1 scope(s).", embed.Description)

	embed = undeploy(ctx, c, "units")
	assert.Equal(t, "`/units` is not deployed anywhere.", embed.Description)
}
