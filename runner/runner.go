// Package runner answers batches of questions against an Advisor with
// bounded concurrency.
package runner

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sweetpotato0/agri-advisor/answer"
	"golang.org/x/sync/semaphore"
)

// DefaultConcurrency is used when a non-positive limit is given.
const DefaultConcurrency = 4

// Advisor answers one question. *advisory.Service implements it.
type Advisor interface {
	Advise(ctx context.Context, query, language string) answer.Response
}

// AdvisorFunc adapts a function to Advisor.
type AdvisorFunc func(ctx context.Context, query, language string) answer.Response

func (f AdvisorFunc) Advise(ctx context.Context, query, language string) answer.Response {
	return f(ctx, query, language)
}

// Task is one question of a batch.
type Task struct {
	ID       string `json:"id,omitempty"`
	Query    string `json:"query"`
	Language string `json:"language,omitempty"`
}

// Result is the outcome of one task. Error is set, and Response nil, when
// the task was cancelled before it started or the advisor panicked.
type Result struct {
	TaskID   string           `json:"id"`
	Query    string           `json:"query"`
	Response *answer.Response `json:"response,omitempty"`
	Error    error            `json:"-"`
}

// NewTasks turns plain questions into tasks with generated IDs.
func NewTasks(language string, queries ...string) []*Task {
	tasks := make([]*Task, len(queries))
	for i, q := range queries {
		tasks[i] = &Task{ID: uuid.NewString(), Query: q, Language: language}
	}
	return tasks
}

// Pool limits how many Advise calls run at once. It is safe for
// concurrent use and may be shared by many batches.
type Pool struct {
	advisor Advisor
	sem     *semaphore.Weighted
	size    int
}

// NewPool returns a pool running at most size questions at once.
func NewPool(advisor Advisor, size int) *Pool {
	if size <= 0 {
		size = DefaultConcurrency
	}
	return &Pool{advisor: advisor, sem: semaphore.NewWeighted(int64(size)), size: size}
}

// Size is the concurrency limit.
func (p *Pool) Size() int { return p.size }

// Do answers t once a slot is free.
func (p *Pool) Do(ctx context.Context, t *Task) (res *Result) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	res = &Result{TaskID: t.ID, Query: t.Query}
	if err := p.sem.Acquire(ctx, 1); err != nil {
		res.Error = err
		return res
	}
	defer p.sem.Release(1)

	defer func() {
		if v := recover(); v != nil {
			res.Response = nil
			res.Error = fmt.Errorf("task %s panicked: %v", t.ID, v)
		}
	}()
	resp := p.advisor.Advise(ctx, t.Query, t.Language)
	res.Response = &resp
	return res
}

// Batch answers all tasks and returns their results in task order.
func (p *Pool) Batch(ctx context.Context, tasks []*Task) []*Result {
	out := make([]*Result, len(tasks))
	var wg sync.WaitGroup
	for i, t := range tasks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out[i] = p.Do(ctx, t)
		}()
	}
	wg.Wait()
	return out
}

// Stream answers tasks concurrently but hands results to emit one at a
// time in task order, as soon as each is ready. It stops at the first emit
// error; tasks still running are cancelled and awaited.
func (p *Pool) Stream(ctx context.Context, tasks []*Task, emit func(*Result) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ready := make([]chan *Result, len(tasks))
	var wg sync.WaitGroup
	for i, t := range tasks {
		ready[i] = make(chan *Result, 1)
		wg.Add(1)
		go func() {
			defer wg.Done()
			ready[i] <- p.Do(ctx, t)
		}()
	}
	defer wg.Wait()

	for _, ch := range ready {
		if err := emit(<-ch); err != nil {
			cancel()
			return err
		}
	}
	return nil
}
