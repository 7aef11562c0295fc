package replay

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/willr196/vergo-db-sub002/internal/client/api"
	"github.com/willr196/vergo-db-sub002/internal/client/offline"
)

// Connectivity is the slice of the monitor the replayer needs.
type Connectivity interface {
	Online() bool
	Subscribe(fn func(online bool)) func()
}

// Replayer drains the pending-action queue against the backend. Actions
// are attempted in insertion order and removed only after the backend
// confirms success; the first failure stops the pass, so ordering is
// preserved and every action is delivered at least once.
type Replayer struct {
	queue *offline.Store
	api   *api.Client
	log   zerolog.Logger
}

func New(queue *offline.Store, client *api.Client, log zerolog.Logger) *Replayer {
	return &Replayer{queue: queue, api: client, log: log}
}

// Attach subscribes to connectivity changes and replays the queue whenever
// the connection comes back. Returns the unsubscribe function.
func (r *Replayer) Attach(ctx context.Context, conn Connectivity) func() {
	return conn.Subscribe(func(online bool) {
		if !online {
			return
		}
		if _, err := r.ReplayAll(ctx); err != nil {
			r.log.Warn().Err(err).Msg("queue replay stopped")
		}
	})
}

// ReplayAll attempts every pending action in order and reports how many
// were delivered. It stops at the first failure, leaving that action and
// everything behind it queued.
func (r *Replayer) ReplayAll(ctx context.Context) (int, error) {
	actions, err := r.queue.List(ctx)
	if err != nil {
		return 0, err
	}
	done := 0
	for _, a := range actions {
		if err := r.replayOne(ctx, a); err != nil {
			return done, fmt.Errorf("replay %s action %s: %w", a.Type, a.ID, err)
		}
		if err := r.queue.Remove(ctx, a.ID); err != nil {
			return done, err
		}
		done++
		r.log.Info().Str("type", a.Type).Str("id", a.ID).Msg("queued action delivered")
	}
	return done, nil
}

// applyPayload and withdrawPayload mirror what the CLI enqueues.
type applyPayload struct {
	JobID string `json:"job_id"`
}

type withdrawPayload struct {
	ApplicationID string `json:"application_id"`
}

func (r *Replayer) replayOne(ctx context.Context, a offline.Action) error {
	switch a.Type {
	case offline.ActionApply:
		var p applyPayload
		if err := json.Unmarshal(a.Payload, &p); err != nil {
			return err
		}
		return r.api.Post(ctx, "/api/v1/jobs/"+p.JobID+"/apply", nil, nil)
	case offline.ActionWithdraw:
		var p withdrawPayload
		if err := json.Unmarshal(a.Payload, &p); err != nil {
			return err
		}
		return r.api.Delete(ctx, "/api/v1/applications/"+p.ApplicationID, nil)
	default:
		return fmt.Errorf("unknown action type %q", a.Type)
	}
}
