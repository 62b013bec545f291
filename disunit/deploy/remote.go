package deploy

import (
	"context"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
)

// Scope is a deployment target: one guild, or global when GuildID is nil.
type Scope struct {
	GuildID *snowflake.ID
}

func Global() Scope {
	return Scope{}
}

func Guild(id snowflake.ID) Scope {
	return Scope{GuildID: &id}
}

func (s Scope) String() string {
	if s.GuildID == nil {
		return "global"
	}
	return "guild:" + s.GuildID.String()
}

// RemoteCommand is the part of a remote command record the coordinator diffs on.
type RemoteCommand struct {
	ID   snowflake.ID
	Name string
	Type discord.ApplicationCommandType
}

// Remote is the remote command registry.
type Remote interface {
	List(ctx context.Context, scope Scope) ([]RemoteCommand, error)
	Upsert(ctx context.Context, scope Scope, cmd discord.ApplicationCommandCreate) (RemoteCommand, error)
	BulkReplace(ctx context.Context, scope Scope, cmds []discord.ApplicationCommandCreate) ([]RemoteCommand, error)
	Delete(ctx context.Context, scope Scope, id snowflake.ID) error
}

// RestRemote implements Remote over the Discord REST API.
type RestRemote struct {
	rest          rest.Applications
	applicationID snowflake.ID
}

var _ Remote = (*RestRemote)(nil)

func NewRestRemote(client rest.Applications, applicationID snowflake.ID) *RestRemote {
	return &RestRemote{rest: client, applicationID: applicationID}
}

func toRemote(cmd discord.ApplicationCommand) RemoteCommand {
	return RemoteCommand{ID: cmd.ID(), Name: cmd.Name(), Type: cmd.Type()}
}

func toRemotes(cmds []discord.ApplicationCommand) []RemoteCommand {
	out := make([]RemoteCommand, 0, len(cmds))
	for _, c := range cmds {
		out = append(out, toRemote(c))
	}
	return out
}

func (r *RestRemote) List(ctx context.Context, scope Scope) ([]RemoteCommand, error) {
	var (
		cmds []discord.ApplicationCommand
		err  error
	)
	if scope.GuildID == nil {
		cmds, err = r.rest.GetGlobalCommands(r.applicationID, false, rest.WithCtx(ctx))
	} else {
		cmds, err = r.rest.GetGuildCommands(r.applicationID, *scope.GuildID, false, rest.WithCtx(ctx))
	}
	if err != nil {
		return nil, err
	}
	return toRemotes(cmds), nil
}

// Upsert creates cmd, replacing any command with the same name and type.
func (r *RestRemote) Upsert(ctx context.Context, scope Scope, cmd discord.ApplicationCommandCreate) (RemoteCommand, error) {
	var (
		created discord.ApplicationCommand
		err     error
	)
	if scope.GuildID == nil {
		created, err = r.rest.CreateGlobalCommand(r.applicationID, cmd, rest.WithCtx(ctx))
	} else {
		created, err = r.rest.CreateGuildCommand(r.applicationID, *scope.GuildID, cmd, rest.WithCtx(ctx))
	}
	if err != nil {
		return RemoteCommand{}, err
	}
	return toRemote(created), nil
}

func (r *RestRemote) BulkReplace(ctx context.Context, scope Scope, cmds []discord.ApplicationCommandCreate) ([]RemoteCommand, error) {
	var (
		set []discord.ApplicationCommand
		err error
	)
	if scope.GuildID == nil {
		set, err = r.rest.SetGlobalCommands(r.applicationID, cmds, rest.WithCtx(ctx))
	} else {
		set, err = r.rest.SetGuildCommands(r.applicationID, *scope.GuildID, cmds, rest.WithCtx(ctx))
	}
	if err != nil {
		return nil, err
	}
	return toRemotes(set), nil
}

func (r *RestRemote) Delete(ctx context.Context, scope Scope, id snowflake.ID) error {
	if scope.GuildID == nil {
		return r.rest.DeleteGlobalCommand(r.applicationID, id, rest.WithCtx(ctx))
	}
	return r.rest.DeleteGuildCommand(r.applicationID, *scope.GuildID, id, rest.WithCtx(ctx))
}
