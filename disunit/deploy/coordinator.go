package deploy

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/disgoorg/disunit/disunit/errs"
	"github.com/disgoorg/disunit/disunit/logger"
	"github.com/disgoorg/disunit/disunit/unit"
)

const DefaultConcurrency = 4

// Report describes what a reconciliation changed (or would change) in one scope.
type Report struct {
	Scope   Scope
	Created []string
	Updated []string
	Removed []string
	DryRun  bool
}

func (r Report) Changed() bool {
	return len(r.Created)+len(r.Removed) > 0
}

// Coordinator reconciles local units with the remote registry. Work on one scope is
// serialized; different scopes run concurrently up to the configured limit.
type Coordinator struct {
	remote Remote
	scopes []Scope
	locks  map[string]*sync.Mutex
	sem    *semaphore.Weighted
}

// NewCoordinator targets every guild in guildIDs, or the global scope when there are none.
func NewCoordinator(remote Remote, guildIDs []snowflake.ID, concurrency int) *Coordinator {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	scopes := make([]Scope, 0, len(guildIDs))
	for _, id := range guildIDs {
		scopes = append(scopes, Guild(id))
	}
	if len(scopes) == 0 {
		scopes = append(scopes, Global())
	}

	locks := make(map[string]*sync.Mutex, len(scopes))
	for _, s := range scopes {
		locks[s.String()] = &sync.Mutex{}
	}
	return &Coordinator{
		remote: remote,
		scopes: scopes,
		locks:  locks,
		sem:    semaphore.NewWeighted(int64(concurrency)),
	}
}

func (c *Coordinator) Scopes() []Scope {
	return append([]Scope(nil), c.scopes...)
}

// Remote lists the commands currently deployed in scope.
func (c *Coordinator) Remote(ctx context.Context, scope Scope) ([]RemoteCommand, error) {
	cmds, err := c.remote.List(ctx, scope)
	if err != nil {
		return nil, &errs.RemoteError{Operation: "list", Scope: scope.String(), Err: err}
	}
	return cmds, nil
}

// eachScope runs fn for every scope holding that scope's lock. Failures are keyed by scope.
func (c *Coordinator) eachScope(ctx context.Context, fn func(ctx context.Context, scope Scope) error) error {
	var (
		mu       sync.Mutex
		failures = make(map[string]error)
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, scope := range c.scopes {
		g.Go(func() error {
			if err := c.sem.Acquire(gctx, 1); err != nil {
				mu.Lock()
				failures[scope.String()] = err
				mu.Unlock()
				return nil
			}
			defer c.sem.Release(1)

			lock := c.locks[scope.String()]
			lock.Lock()
			defer lock.Unlock()

			if err := fn(gctx, scope); err != nil {
				mu.Lock()
				failures[scope.String()] = err
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(c.scopes) == 1 {
		for _, err := range failures {
			return err
		}
	}
	return errs.Batch("deploy", failures)
}

// Deploy upserts a single unit into every scope.
func (c *Coordinator) Deploy(ctx context.Context, u unit.Deployable) error {
	if !u.DeployEnabled() {
		return &errs.DeployDisabledError{Kind: string(u.Kind()), Name: u.Name()}
	}
	cmd := u.Command()
	return c.eachScope(ctx, func(ctx context.Context, scope Scope) error {
		start := time.Now()
		if _, err := c.remote.Upsert(ctx, scope, cmd); err != nil {
			return &errs.RemoteError{Operation: "upsert " + u.Name(), Scope: scope.String(), Err: err}
		}
		slog.Info("Command upserted",
			slog.String("type", "deploy"),
			slog.String("name", u.Name()),
			slog.String("scope", scope.String()),
			slog.Duration("took", time.Since(start)),
		)
		return nil
	})
}

type commandKey struct {
	t    discord.ApplicationCommandType
	name string
}

// DeployAll replaces the remote set of every scope with the deploy-enabled units given.
// Remote commands without a local counterpart are removed.
func (c *Coordinator) DeployAll(ctx context.Context, units []unit.Deployable) ([]Report, error) {
	return c.reconcile(ctx, units, false)
}

// Plan computes what DeployAll would change without touching the remote set.
func (c *Coordinator) Plan(ctx context.Context, units []unit.Deployable) ([]Report, error) {
	return c.reconcile(ctx, units, true)
}

func (c *Coordinator) reconcile(ctx context.Context, units []unit.Deployable, dryRun bool) ([]Report, error) {
	local := make(map[commandKey]struct{}, len(units))
	records := make([]discord.ApplicationCommandCreate, 0, len(units))
	for _, u := range units {
		if !u.DeployEnabled() {
			continue
		}
		key := commandKey{t: u.CommandType(), name: u.Name()}
		if _, dup := local[key]; dup {
			return nil, &errs.ValidationError{Kind: string(u.Kind()), Name: u.Name(), Reason: "duplicate command in deployment set"}
		}
		local[key] = struct{}{}
		records = append(records, u.Command())
	}

	var (
		mu      sync.Mutex
		reports = make([]Report, 0, len(c.scopes))
	)
	err := c.eachScope(ctx, func(ctx context.Context, scope Scope) error {
		start := time.Now()
		existing, err := c.remote.List(ctx, scope)
		if err != nil {
			return &errs.RemoteError{Operation: "list", Scope: scope.String(), Err: err}
		}

		report := diff(scope, local, existing)
		report.DryRun = dryRun
		if !dryRun {
			if _, err = c.remote.BulkReplace(ctx, scope, records); err != nil {
				return &errs.RemoteError{Operation: "bulk replace", Scope: scope.String(), Err: err}
			}
			logger.LogDeploy(scope.String(), len(report.Created), len(report.Updated), len(report.Removed), time.Since(start))
		}

		mu.Lock()
		reports = append(reports, report)
		mu.Unlock()
		return nil
	})

	sort.Slice(reports, func(i, j int) bool { return reports[i].Scope.String() < reports[j].Scope.String() })
	return reports, err
}

func diff(scope Scope, local map[commandKey]struct{}, existing []RemoteCommand) Report {
	report := Report{Scope: scope}
	remote := make(map[commandKey]struct{}, len(existing))
	for _, cmd := range existing {
		key := commandKey{t: cmd.Type, name: cmd.Name}
		remote[key] = struct{}{}
		if _, ok := local[key]; !ok {
			report.Removed = append(report.Removed, cmd.Name)
		}
	}
	for key := range local {
		if _, ok := remote[key]; ok {
			report.Updated = append(report.Updated, key.name)
		} else {
			report.Created = append(report.Created, key.name)
		}
	}
	sort.Strings(report.Created)
	sort.Strings(report.Updated)
	sort.Strings(report.Removed)
	return report
}

// Undeploy deletes every remote command named name of type t and returns how many were removed.
func (c *Coordinator) Undeploy(ctx context.Context, name string, t discord.ApplicationCommandType) (int, error) {
	var (
		mu      sync.Mutex
		removed int
	)
	err := c.eachScope(ctx, func(ctx context.Context, scope Scope) error {
		existing, err := c.remote.List(ctx, scope)
		if err != nil {
			return &errs.RemoteError{Operation: "list", Scope: scope.String(), Err: err}
		}
		for _, cmd := range existing {
			if cmd.Name != name || cmd.Type != t {
				continue
			}
			if err = c.remote.Delete(ctx, scope, cmd.ID); err != nil {
				return &errs.RemoteError{Operation: fmt.Sprintf("delete %s", name), Scope: scope.String(), Err: err}
			}
			mu.Lock()
			removed++
			mu.Unlock()
		}
		return nil
	})
	return removed, err
}
