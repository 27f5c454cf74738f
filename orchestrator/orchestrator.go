// ABOUTME: Orchestrator: boots the shared infrastructure, creates one AgentRuntime per role,
// ABOUTME: dispatches the root task to the user agent, and blocks on delivery. Mirrors orchestrator.py's Orchestrator.run().
package orchestrator

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/BillChan226/multiagent-gen/agent"
	"github.com/BillChan226/multiagent-gen/bus"
	"github.com/BillChan226/multiagent-gen/core"
	"github.com/BillChan226/multiagent-gen/llm"
	"github.com/BillChan226/multiagent-gen/orchestrator/checkpoint"
	"github.com/BillChan226/multiagent-gen/process"
	"github.com/BillChan226/multiagent-gen/workspace"
)

// writeRoots mirrors workspace_manager.py's AGENT_WRITE_DIRS: each role's
// single bound write-root, "" meaning read-only.
var writeRoots = map[string]string{
	"user":     "",
	"design":   "design",
	"database": filepath.Join("app", "database"),
	"backend":  filepath.Join("app", "backend"),
	"frontend": filepath.Join("app", "frontend"),
	"task":     "",
}

// deliveryTimeout bounds how long the Orchestrator waits for the user agent
// to call deliver_project, mirroring orchestrator.py's 7200-second wait.
const deliveryTimeout = 2 * time.Hour

// Config is the input to a single generation run.
type Config struct {
	Name            string
	OutputDir       string
	Goal            string
	Requirements    []string
	ReferenceImages []string
	Resume          bool
}

// Result is what a run produces, mirroring orchestrator.py's GenerationResult.
type Result struct {
	Success         bool
	ProjectPath     string
	PhasesCompleted []string
	Duration        time.Duration
	Summary         string
}

// ClientFactory builds the LLM client bound to one agent role; the
// Orchestrator doesn't construct provider adapters itself (that's the CLI
// entrypoint's job), it only asks for one client per role so each agent can
// be given an independent profile/session pair.
type ClientFactory func(role string) (*llm.Client, agent.ProviderProfile)

// Orchestrator ties every component together for one generation run:
// GenerationContext (ports + preflight), the Workspace Manager, the
// Message Bus, the Process Manager, the checkpoint store, and one
// AgentRuntime per role.
type Orchestrator struct {
	cfg     Config
	clients ClientFactory
	events  *EventEmitter

	ctx       GenerationContext
	ports     *PortAllocator
	workspace *workspace.Manager
	bus       *bus.Bus
	processes *process.Manager
	store     *checkpoint.Store

	runtimes    map[string]*AgentRuntime
	gates       map[string]*agent.PlanGate
	wg          sync.WaitGroup
	cancelAgents context.CancelFunc

	delivered   chan string
	deliverOnce sync.Once
}

// readyTimeout bounds how long the Orchestrator waits for each agent's
// runtime to start draining its mailbox. Mirrors spec §4.5 step 6: "wait
// for every ready with a bounded timeout. Failure to become ready is fatal."
const readyTimeout = 10 * time.Second

// shutdownJoinTimeout bounds how long stopAgents waits for every agent loop
// to exit after RequestShutdown, per spec §4.5 step 9: "join their loops
// with a bounded timeout, force-cancel on exceed."
const shutdownJoinTimeout = 30 * time.Second

// New constructs an Orchestrator for one run. clients supplies the LLM
// client/profile pair for each agent role, letting the caller wire real
// provider adapters without the Orchestrator needing to know about them.
func New(cfg Config, clients ClientFactory, events *EventEmitter) (*Orchestrator, error) {
	if events == nil {
		events = NewEventEmitter()
	}

	ports := NewPortAllocator()
	ports.ResetAllocatedPorts()

	apiPort, err := ports.FindFreePort([]int{3000, 3001}, 8000, 9000)
	if err != nil {
		return nil, fmt.Errorf("allocating api port: %w", err)
	}
	uiPort, err := ports.FindFreePort([]int{8080, 8081}, 8000, 9000)
	if err != nil {
		return nil, fmt.Errorf("allocating ui port: %w", err)
	}
	dbPort, err := ports.FindFreePort([]int{5432, 5433}, 8000, 9000)
	if err != nil {
		return nil, fmt.Errorf("allocating db port: %w", err)
	}
	backendInternalPort, err := ports.FindFreePort([]int{8080}, 8080, 8100)
	if err != nil {
		return nil, fmt.Errorf("allocating backend internal port: %w", err)
	}

	ws, err := workspace.NewManager(cfg.OutputDir, writeRoots)
	if err != nil {
		return nil, err
	}

	store, err := checkpoint.Open(filepath.Join(cfg.OutputDir, ".checkpoint", "runs.db"))
	if err != nil {
		return nil, err
	}

	return &Orchestrator{
		cfg:     cfg,
		clients: clients,
		events:  events,
		ctx: GenerationContext{
			Name:                cfg.Name,
			APIPort:             apiPort,
			UIPort:              uiPort,
			DBPort:              dbPort,
			BackendInternalPort: backendInternalPort,
		},
		ports:     ports,
		workspace: ws,
		bus:       bus.NewBus(),
		processes: process.NewManager(),
		store:     store,
		runtimes:  make(map[string]*AgentRuntime),
		gates:     make(map[string]*agent.PlanGate),
		delivered: make(chan string, 1),
	}, nil
}

// createAgents builds one AgentRuntime per DefaultAgentRoles entry, wiring
// its profile's tool registry with the communication tools, the process
// tools, and the plan-gated termination tools. Mirrors
// orchestrator.py's _create_agents.
func (o *Orchestrator) createAgents() error {
	roster := make(agent.Roster, len(DefaultAgentRoles))
	for _, role := range DefaultAgentRoles {
		roster[role] = agent.AgentDescriptor{ID: role, Name: NewAgentConfig(role).AgentName, Role: role}
	}

	for _, role := range DefaultAgentRoles {
		client, profile := o.clients(role)
		registry := profile.ToolRegistry()

		if err := agent.RegisterCommunicationTools(registry, o.bus, role, roster, 2*time.Minute); err != nil {
			return fmt.Errorf("registering communication tools for %s: %w", role, err)
		}
		if err := agent.RegisterProcessTools(registry, o.processes, o.workspace.Root()); err != nil {
			return fmt.Errorf("registering process tools for %s: %w", role, err)
		}

		gate := agent.NewPlanGate()
		o.gates[role] = gate
		registry.Register(agent.NewSubmitPlanTool(gate))
		registry.Register(agent.NewFinishTool(gate, func(summary string) {
			o.emit(EventAgentStatus, map[string]any{"status": string(AgentDone), "agent_id": role, "summary": summary})
		}))
		if role == "user" {
			registry.Register(agent.NewDeliverProjectTool(gate, func(summary string) {
				o.deliverOnce.Do(func() { o.delivered <- summary })
			}))
		}

		// Filter the registry to this role's tool-category whitelist now that
		// every category of tool (core, communication, process, termination)
		// has been registered. A disallowed tool becomes unreachable both
		// from the LLM's tool catalogue and from dispatch.
		registry.SetAllowedCategories(NewAgentConfig(role).ToolCategories)

		env := newWorkspaceExecEnv(o.workspace, role)
		session := agent.NewSession(agent.DefaultSessionConfig())
		runtime := NewAgentRuntime(role, o.bus, session, profile, env, client, o.events)
		o.runtimes[role] = runtime
		o.emit(EventAgentSpawned, map[string]any{"agent_id": role})
	}
	return nil
}

// startAgents launches each AgentRuntime's inbox loop in its own
// wg-tracked goroutine, then waits for every runtime to become ready
// (its Run call has started draining the mailbox) with a bounded
// timeout. An agent that never becomes ready is a fatal boot failure:
// startAgents returns an error and the caller must not proceed to dispatch
// work to a roster that isn't fully up.
func (o *Orchestrator) startAgents(ctx context.Context) error {
	agentsCtx, cancel := context.WithCancel(ctx)
	o.cancelAgents = cancel

	for role, runtime := range o.runtimes {
		o.wg.Add(1)
		go func(role string, runtime *AgentRuntime) {
			defer o.wg.Done()
			runtime.Run(agentsCtx)
		}(role, runtime)
	}

	var notReady []string
	for role, runtime := range o.runtimes {
		select {
		case <-runtime.Ready():
			o.emit(EventAgentStatus, map[string]any{"status": string(AgentWaiting), "agent_id": role})
		case <-time.After(readyTimeout):
			notReady = append(notReady, role)
		}
	}
	if len(notReady) > 0 {
		return fmt.Errorf("agents failed to become ready within %s: %v", readyTimeout, notReady)
	}
	return nil
}

// RequestShutdown delivers an urgent shutdown message to every agent's
// mailbox, asking its Run loop to exit at its next Pop. It does not block
// on the agents actually exiting; stopAgents does that with a bounded join.
func (o *Orchestrator) RequestShutdown() {
	for role := range o.runtimes {
		if err := o.bus.Shutdown("orchestrator", role); err != nil {
			log.Printf("orchestrator: requesting shutdown of %s: %v", role, err)
		}
	}
}

// stopAgents asks every agent to shut down, joins their Run goroutines with
// a bounded timeout (force-closing mailboxes to unblock any loop still
// waiting on Pop if the deadline is exceeded), and stops every process
// still tracked by the Process Manager.
func (o *Orchestrator) stopAgents() {
	o.RequestShutdown()

	joined := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(joined)
	}()

	select {
	case <-joined:
	case <-time.After(shutdownJoinTimeout):
		log.Printf("orchestrator: shutdown join timed out after %s, force-cancelling remaining agent loops", shutdownJoinTimeout)
		for _, runtime := range o.runtimes {
			runtime.Mailbox.Close()
		}
		if o.cancelAgents != nil {
			o.cancelAgents()
		}
		<-joined
	}

	o.bus.Close()
	o.processes.CleanupAll()
}

// Run executes one full generation: pre-flight, compose descriptor,
// dispatch to the user agent, wait for delivery, checkpoint, teardown.
// Mirrors orchestrator.py's run().
func (o *Orchestrator) Run(ctx context.Context) (Result, error) {
	start := time.Now()
	runID := core.NewULID()

	candidatePorts := []int{o.ctx.APIPort, o.ctx.UIPort, o.ctx.DBPort, 3000, 5432, 8080, 8083}
	o.ctx.Preflight = RunPreflight(ctx, candidatePorts)
	if !o.ctx.Preflight.ContainerRuntime.Available || !o.ctx.Preflight.JSRuntime.Available {
		o.emit(EventPreflightFailed, map[string]any{
			"docker": o.ctx.Preflight.ContainerRuntime.Message,
			"node":   o.ctx.Preflight.JSRuntime.Message,
		})
	}

	if err := WriteComposeFile(o.cfg.OutputDir, BuildComposeSpec(o.ctx)); err != nil {
		return Result{}, fmt.Errorf("writing docker-compose.yml: %w", err)
	}

	rec := checkpoint.Record{RunID: runID, Name: o.cfg.Name, Goal: o.cfg.Goal, StartedAt: start, Phase: "requirements"}
	if o.cfg.Resume {
		if loaded, ok, err := o.store.Load(runID); err == nil && ok {
			rec = loaded
		}
	}
	if err := o.store.Save(rec); err != nil {
		return Result{}, fmt.Errorf("saving initial checkpoint: %w", err)
	}
	o.emit(EventCheckpointSaved, map[string]any{"phase": rec.Phase})

	if err := o.createAgents(); err != nil {
		return Result{}, fmt.Errorf("creating agents: %w", err)
	}
	if err := o.startAgents(ctx); err != nil {
		return Result{}, fmt.Errorf("starting agents: %w", err)
	}
	defer o.stopAgents()

	o.emit(EventRunStarted, map[string]any{"name": o.cfg.Name, "goal": o.cfg.Goal})

	rawRequirements := o.cfg.Goal
	for _, req := range o.cfg.Requirements {
		rawRequirements += "\n" + req
	}

	if err := o.bus.Tell("orchestrator", "user", rawRequirements, bus.MessageTask, map[string]any{
		"reference_images": o.cfg.ReferenceImages,
		"workflow":         "full",
	}); err != nil {
		return Result{}, fmt.Errorf("dispatching root task: %w", err)
	}

	var phasesCompleted []string
	var summary string
	success := false

	waitCtx, cancel := context.WithTimeout(ctx, deliveryTimeout)
	defer cancel()

	select {
	case summary = <-o.delivered:
		phasesCompleted = []string{"requirements", "design", "code", "docker", "testing"}
		success = true
		rec.Phase = "testing"
		rec.PhasesCompleted = phasesCompleted
		rec.Outcome = "success"
		o.store.Save(rec)
		o.emit(EventCheckpointSaved, map[string]any{"phase": rec.Phase})
		o.emit(EventDeliveryReceived, map[string]any{"summary": summary})
		o.emit(EventRunCompleted, map[string]any{"name": o.cfg.Name})
	case <-waitCtx.Done():
		rec.Outcome = "failed"
		o.store.Save(rec)
		o.emit(EventCheckpointSaved, map[string]any{"phase": rec.Phase})
		o.emit(EventRunFailed, map[string]any{"error": waitCtx.Err().Error()})
	}

	duration := time.Since(start)
	return Result{
		Success:         success,
		ProjectPath:     o.cfg.OutputDir,
		PhasesCompleted: phasesCompleted,
		Duration:        duration,
		Summary:         summary,
	}, nil
}

// Status is a point-in-time snapshot, mirroring orchestrator.py's get_status.
type Status struct {
	Name string
	Ports map[string]int
}

// GetStatus returns the run's current name and allocated ports.
func (o *Orchestrator) GetStatus() Status {
	return Status{
		Name: o.ctx.Name,
		Ports: map[string]int{
			"api": o.ctx.APIPort,
			"ui":  o.ctx.UIPort,
			"db":  o.ctx.DBPort,
		},
	}
}

// Close releases the checkpoint store's database handle.
func (o *Orchestrator) Close() error {
	return o.store.Close()
}

func (o *Orchestrator) emit(kind EventKind, data map[string]any) {
	o.events.Emit(Event{Kind: kind, Timestamp: time.Now(), Data: data})
}
