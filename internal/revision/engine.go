package revision

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/dreamcraft-ai/dreamcraft/internal/ai"
	"github.com/dreamcraft-ai/dreamcraft/internal/project"
	"github.com/dreamcraft-ai/dreamcraft/internal/template"
)

// Synthetic chat messages appended by the engine.
const (
	ackMessage     = "I've updated the app based on your request. Check out the preview!"
	failureMessage = "Sorry, I encountered an error while generating the code. Please try again."
)

var (
	ErrInFlight         = errors.New("revision: a revision is already in flight for this project")
	ErrEmptyInstruction = errors.New("revision: instruction is empty")
)

// Outcome describes one finished revision request. ResultMessage is the
// assistant acknowledgement on success or the system error notice on failure.
type Outcome struct {
	Project       *project.Project
	UserMessage   *project.ChatMessage
	ResultMessage *project.ChatMessage
	Applied       bool
	Persisted     bool
}

// Engine runs the instruction -> code-artifact cycle: exactly one generation
// call per request, an optimistic user message, and either an applied document
// plus assistant ack or an untouched document plus system error message. At
// most one revision is in flight per project.
type Engine struct {
	projects *project.Service
	jobs     *JobRepo
	registry *ai.Registry

	providerName string
	model        string

	local  *memoryLocks
	shared Locker
}

func NewEngine(projects *project.Service, jobs *JobRepo, registry *ai.Registry, providerName, model string) *Engine {
	return &Engine{
		projects:     projects,
		jobs:         jobs,
		registry:     registry,
		providerName: providerName,
		model:        model,
		local:        newMemoryLocks(),
	}
}

// UseSharedLocks adds a cross-process lock (redis) on top of the in-process
// one, so the single-pending-revision invariant holds across api and worker.
func (e *Engine) UseSharedLocks(l Locker) {
	e.shared = l
}

// Request runs one revision. The user message is appended before the
// generation call resolves; on any generation failure the project code is left
// untouched and a single system message is appended instead.
func (e *Engine) Request(ctx context.Context, userID uint64, projectID, instruction string) (*Outcome, error) {
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		return nil, ErrEmptyInstruction
	}

	locked, _ := e.local.TryLock(ctx, projectID)
	if !locked {
		return nil, ErrInFlight
	}
	defer e.local.Unlock(ctx, projectID)

	if e.shared != nil {
		got, lockErr := e.shared.TryLock(ctx, projectID)
		switch {
		case lockErr != nil:
			// shared lock unavailable; the in-process lock still holds
			log.Printf("shared revision lock unavailable project=%s err=%v", projectID, lockErr)
		case !got:
			return nil, ErrInFlight
		default:
			defer e.shared.Unlock(context.WithoutCancel(ctx), projectID)
		}
	}

	// loaded under the lock so the document reflects any revision that
	// finished while this request was racing for it
	p, err := e.projects.Get(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}

	userMsg := &project.ChatMessage{
		ProjectID: projectID,
		Role:      project.RoleUser,
		Content:   instruction,
	}
	e.projects.Repo().AppendMessage(ctx, userMsg)

	// The unmodified placeholder counts as "no prior code".
	priorCode := p.Code
	if template.IsInitialCode(priorCode) {
		priorCode = ""
	}

	doc, genErr := e.generate(ctx, instruction, priorCode)
	if genErr != nil {
		sysMsg := &project.ChatMessage{
			ProjectID: projectID,
			Role:      project.RoleSystem,
			Content:   failureMessage,
		}
		e.projects.Repo().AppendMessage(ctx, sysMsg)
		out := &Outcome{Project: p, UserMessage: userMsg, ResultMessage: sysMsg}
		return out, fmt.Errorf("revision: %w", genErr)
	}

	p.Code = doc
	persisted := e.projects.Repo().Save(ctx, p)

	ack := &project.ChatMessage{
		ProjectID: projectID,
		Role:      project.RoleAssistant,
		Content:   ackMessage,
	}
	e.projects.Repo().AppendMessage(ctx, ack)

	return &Outcome{
		Project:       p,
		UserMessage:   userMsg,
		ResultMessage: ack,
		Applied:       true,
		Persisted:     persisted,
	}, nil
}

// generate issues the single external call and normalizes the response.
func (e *Engine) generate(ctx context.Context, instruction, priorCode string) (string, error) {
	provider, err := e.registry.Get(ctx, e.providerName, e.model)
	if err != nil {
		return "", err
	}
	raw, err := provider.Chat(ctx, ai.BuildMessages(instruction, priorCode))
	if err != nil {
		return "", err
	}
	doc := Normalize(raw)
	if err := ValidateDocument(doc); err != nil {
		return "", err
	}
	return doc, nil
}

// CreateJob enqueues the async form of Request with optional idempotency.
func (e *Engine) CreateJob(ctx context.Context, job *Job) (*Job, bool, error) {
	return e.jobs.CreateOrGetExisting(ctx, job)
}

func (e *Engine) GetJob(ctx context.Context, jobID string) (*Job, error) {
	return e.jobs.GetByID(ctx, jobID)
}

// RunJob executes a queued job. Generation failures mark the job failed; the
// system error message has already been appended to the project history by
// Request. The queue delivers at least once, so a job that already left the
// queued state is acknowledged without running again.
func (e *Engine) RunJob(ctx context.Context, jobID string) error {
	started, err := e.jobs.MarkRunning(ctx, jobID)
	if err != nil {
		return err
	}
	if !started {
		return nil
	}

	j, err := e.jobs.GetByID(ctx, jobID)
	if err != nil {
		return err
	}

	out, err := e.Request(ctx, j.UserID, j.ProjectID, j.Instruction)
	if err != nil {
		_ = e.jobs.MarkFailed(ctx, jobID, err.Error())
		return err
	}

	var msgID uint64
	if out.ResultMessage != nil {
		msgID = out.ResultMessage.ID
	}
	return e.jobs.MarkSucceeded(ctx, jobID, msgID)
}
