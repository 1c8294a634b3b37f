package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
)

type Job interface{ Run(ctx context.Context) }

type FuncJob func(ctx context.Context)

func (f FuncJob) Run(ctx context.Context) { f(ctx) }

type Cron struct {
	c   *cron.Cron
	loc *time.Location
}

func NewCron(loc *time.Location) *Cron {
	if loc == nil {
		loc = time.Local
	}
	c := cron.New(cron.WithLocation(loc), cron.WithChain(cron.Recover(cron.DefaultLogger)))
	return &Cron{c: c, loc: loc}
}

func (cr *Cron) Start() { cr.c.Start() }
func (cr *Cron) Stop()  { ctx := cr.c.Stop(); <-ctx.Done() }

func (cr *Cron) Add(expr string, job Job) (cron.EntryID, error) {
	return cr.c.AddFunc(expr, func() { job.Run(context.Background()) })
}

func (cr *Cron) Entries() []cron.Entry { return cr.c.Entries() }
