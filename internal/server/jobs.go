package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/oblinof/AI-Sampler-Sequencer/internal/audio"
	"github.com/oblinof/AI-Sampler-Sequencer/internal/cache"
	"github.com/oblinof/AI-Sampler-Sequencer/internal/engine"
	"github.com/oblinof/AI-Sampler-Sequencer/internal/gen"
	"github.com/oblinof/AI-Sampler-Sequencer/internal/workspace"
)

// Job status constants
type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusProcessing JobStatus = "processing"
	StatusComplete   JobStatus = "complete"
	StatusFailed     JobStatus = "failed"
)

// Job represents one generation request
type Job struct {
	ID        string
	Status    JobStatus
	Stage     string
	Prompt    string
	BPM       float64
	LoopPath  string
	Partial   bool
	Error     string
	Updates   chan string
	CreatedAt time.Time

	ws *workspace.Workspace
}

// JobManager runs generation jobs against the backend
type JobManager struct {
	jobs   map[string]*Job
	mu     sync.RWMutex
	client *gen.Client
	eng    *engine.Engine
	logger *slog.Logger
	loops  *cache.LoopCache
}

// NewJobManager creates a new job manager
func NewJobManager(client *gen.Client, eng *engine.Engine, logger *slog.Logger) *JobManager {
	loops, err := cache.New()
	if err != nil {
		logger.Warn("loop cache unavailable", slog.Any("error", err))
	}
	return &JobManager{
		jobs:   make(map[string]*Job),
		client: client,
		eng:    eng,
		logger: logger,
		loops:  loops,
	}
}

// Create creates a new job
func (m *JobManager) Create(prompt string, bpm float64) *Job {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := fmt.Sprintf("%d", time.Now().UnixNano())
	job := &Job{
		ID:        id,
		Status:    StatusPending,
		Stage:     "Queued...",
		Prompt:    prompt,
		BPM:       bpm,
		Updates:   make(chan string, 10),
		CreatedAt: time.Now(),
	}
	m.jobs[id] = job
	return job
}

// Get retrieves a job by ID
func (m *JobManager) Get(id string) *Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.jobs[id]
}

// Process runs the generation pipeline for a job
func (m *JobManager) Process(job *Job) {
	defer close(job.Updates)
	defer func() {
		// Cleanup after 10 minutes
		time.AfterFunc(10*time.Minute, func() {
			if job.ws != nil {
				job.ws.Cleanup()
			}
			m.mu.Lock()
			delete(m.jobs, job.ID)
			m.mu.Unlock()
		})
	}()

	job.Status = StatusProcessing

	fail := func(stage string, err error) {
		job.Status = StatusFailed
		job.Error = err.Error()
		job.Updates <- fmt.Sprintf("Error: %s", err)
		m.logger.Error("generation failed", slog.String("stage", stage), slog.Any("error", err))
	}

	ws, err := workspace.Create()
	if err != nil {
		fail("workspace", err)
		return
	}
	job.ws = ws

	// Cached loop: skip the backend entirely
	key := cache.Key(job.Prompt, job.BPM)
	if m.loops != nil {
		if hit, ok := m.loops.Get(key); ok {
			job.Stage = "Loading cached loop..."
			job.Updates <- job.Stage
			buf, err := audio.LoadWAV(hit.Path)
			if err == nil {
				m.install(job, buf, hit.Path)
				return
			}
			m.logger.Warn("bad cache entry", slog.String("key", key), slog.Any("error", err))
		}
	}

	// Stage 1: stream from the backend
	job.Stage = "Generating loop..."
	job.Updates <- job.Stage

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	res, err := m.client.Generate(ctx, job.Prompt, job.BPM)
	if err != nil {
		fail("stream", err)
		return
	}
	job.Partial = res.Partial
	job.Updates <- fmt.Sprintf("Received %d chunks (%.1fs of audio)", res.Chunks, res.Buffer.Duration())
	if res.Partial {
		job.Updates <- "Stream ended early; keeping what arrived"
	}

	// Stage 2: save and cache
	job.Stage = "Saving loop..."
	job.Updates <- job.Stage

	if err := audio.SaveWAV(ws.LoopWAV(), res.Buffer); err != nil {
		fail("save", err)
		return
	}
	if m.loops != nil && !res.Partial {
		if _, err := m.loops.Put(key, ws.LoopWAV()); err != nil {
			m.logger.Warn("loop not cached", slog.Any("error", err))
		}
	}

	m.install(job, res.Buffer, ws.LoopWAV())
}

// install hands the loop to the engine and completes the job
func (m *JobManager) install(job *Job, buf *audio.Buffer, path string) {
	m.eng.SetLoop(buf)
	job.LoopPath = path
	job.Status = StatusComplete
	job.Stage = "Complete!"
	job.Updates <- job.Stage
}
