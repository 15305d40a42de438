package stream

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/utkarsh5026/streamsim/internal/backoff"
	"github.com/utkarsh5026/streamsim/queue"
)

// State is the service lifecycle state.
type State int32

const (
	StateCreated State = iota
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// ServiceOption configures a Service's collaborators.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	sink     Sink[Frame]
	decoder  Decoder[Frame, Frame]
	source   FrameSource
	logger   *zap.Logger
	observer Observer
}

// WithSink sets where rendered frames go. By default they are discarded.
func WithSink(s Sink[Frame]) ServiceOption {
	return func(o *serviceOptions) { o.sink = s }
}

// WithDecoder replaces the HalvingDecoder built from Config.DecodeLatency.
func WithDecoder(d Decoder[Frame, Frame]) ServiceOption {
	return func(o *serviceOptions) { o.decoder = d }
}

// WithFrameSource replaces RandomFrames.
func WithFrameSource(src FrameSource) ServiceOption {
	return func(o *serviceOptions) { o.source = src }
}

// WithLogger sets the service logger. Stages log through named children.
func WithLogger(l *zap.Logger) ServiceOption {
	return func(o *serviceOptions) { o.logger = l }
}

// WithObserver reports frame events from every producer and stage to obs.
func WithObserver(obs Observer) ServiceOption {
	return func(o *serviceOptions) { o.observer = obs }
}

// Stats is a point-in-time view of a service.
type Stats struct {
	Produced      uint64 // frames accepted by the input handler
	InputDropped  uint64 // frames producers gave up on
	Decoded       uint64 // frames written to the decoded queue
	DecodeDropped uint64 // decoded frames lost to a full decoded queue
	Rendered      uint64 // frames handed to the sink
	Decodable     int    // frames waiting in the decodable queue
	DecodedQueued int    // frames waiting in the decoded queue
	PoolOverflow  int    // pool strategy: tasks in the overflow queue
	Elapsed       time.Duration
}

// pipeline holds the stages built by Run.
type pipeline struct {
	input  InputHandler[Frame]
	decode Stage
	pool   *PoolDecodeStage[Frame, Frame]
	render *RenderStage[Frame]
}

// Service owns the decodable and decoded queues, the decode and render
// stages, and the simulated producers. Its lifecycle is
// Created -> Running -> Stopped.
type Service struct {
	id   uuid.UUID
	cfg  Config
	opts serviceOptions
	log  *zap.Logger

	decodable *queue.BoundedQueue[Frame]
	decoded   *queue.BoundedQueue[Frame]

	mu        sync.Mutex // serializes Run and Shutdown
	state     atomic.Int32
	stages    atomic.Pointer[pipeline]
	producers *errgroup.Group
	cancel    context.CancelFunc
	started   atomic.Int64 // unix nanos
	elapsed   atomic.Int64

	produced     atomic.Uint64
	inputDropped atomic.Uint64
}

// NewService validates cfg and builds the queues. Stages and producers are
// created by Run.
func NewService(cfg Config, opts ...ServiceOption) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := serviceOptions{
		sink:     SinkFunc[Frame](func(Frame) {}),
		decoder:  HalvingDecoder{Latency: cfg.DecodeLatency},
		source:   RandomFrames,
		logger:   zap.NewNop(),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.sink == nil || o.decoder == nil || o.source == nil || o.logger == nil || o.observer == nil {
		panic("stream: nil service collaborator")
	}

	id := uuid.New()
	return &Service{
		id:        id,
		cfg:       cfg,
		opts:      o,
		log:       o.logger.With(zap.String("service_id", id.String())),
		decodable: queue.New[Frame](cfg.QueueCapacity, queue.WithWaitTimeout(cfg.WaitTimeout)),
		decoded:   queue.New[Frame](cfg.QueueCapacity, queue.WithWaitTimeout(cfg.WaitTimeout)),
	}, nil
}

// ID identifies this service instance in logs.
func (s *Service) ID() uuid.UUID { return s.id }

// State returns the current lifecycle state.
func (s *Service) State() State { return State(s.state.Load()) }

// Config returns the configuration the service was built with.
func (s *Service) Config() Config { return s.cfg }

// DecodableLen returns the number of frames waiting to be decoded.
func (s *Service) DecodableLen() int { return s.decodable.Count() }

// DecodedLen returns the number of frames waiting to be rendered.
func (s *Service) DecodedLen() int { return s.decoded.Count() }

// Run starts the producers, then the decode stage, then the render stage.
// Producers stop on their own after Config.RunDuration; cancelling ctx
// stops them early, truncating input.
func (s *Service) Run(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.State() {
	case StateRunning:
		return ErrAlreadyRunning
	case StateStopped:
		return ErrStopped
	}

	p := s.buildPipeline()
	s.stages.Store(p)

	ctx, cancel := context.WithCancel(ctx)
	g := new(errgroup.Group)
	for i := range s.cfg.Producers {
		pr := s.newProducer(i, p.input)
		g.Go(func() error { return pr.run(ctx) })
	}

	if err := p.decode.Run(); err != nil {
		cancel()
		_ = g.Wait()
		return fmt.Errorf("start decode stage: %w", err)
	}
	if err := p.render.Run(); err != nil {
		cancel()
		_ = g.Wait()
		p.decode.Shutdown()
		return fmt.Errorf("start render stage: %w", err)
	}

	s.producers = g
	s.cancel = cancel
	s.started.Store(time.Now().UnixNano())
	s.state.Store(int32(StateRunning))

	s.log.Info("service started",
		zap.String("strategy", string(s.cfg.Strategy)),
		zap.Int("producers", s.cfg.Producers),
		zap.Duration("run_duration", s.cfg.RunDuration),
	)
	return nil
}

// Shutdown waits for the producers to finish, then drains and stops the
// decode stage, then the render stage. Once it returns both queues are
// empty. It does nothing if the service is not running and is safe to call
// concurrently.
func (s *Service) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.State() != StateRunning {
		return
	}

	_ = s.producers.Wait()
	s.cancel()

	p := s.stages.Load()
	p.decode.Shutdown()
	p.render.Shutdown()

	s.elapsed.Store(int64(time.Since(time.Unix(0, s.started.Load()))))
	s.state.Store(int32(StateStopped))

	st := s.Stats()
	s.log.Info("service stopped",
		zap.Uint64("produced", st.Produced),
		zap.Uint64("decoded", st.Decoded),
		zap.Uint64("rendered", st.Rendered),
		zap.Uint64("dropped", st.InputDropped+st.DecodeDropped),
		zap.Duration("elapsed", st.Elapsed),
	)
}

// Stats returns the current counters. It may be called at any time.
func (s *Service) Stats() Stats {
	st := Stats{
		Produced:      s.produced.Load(),
		InputDropped:  s.inputDropped.Load(),
		Decodable:     s.decodable.Count(),
		DecodedQueued: s.decoded.Count(),
	}

	if p := s.stages.Load(); p != nil {
		ds := p.decode.Stats()
		st.Decoded = ds.Processed
		st.DecodeDropped = ds.Dropped
		st.Rendered = p.render.Stats().Processed
		if p.pool != nil {
			st.PoolOverflow = p.pool.PoolStats().Overflow
		}
	}

	switch s.State() {
	case StateStopped:
		st.Elapsed = time.Duration(s.elapsed.Load())
	case StateRunning:
		st.Elapsed = time.Since(time.Unix(0, s.started.Load()))
	}
	return st
}

func (s *Service) buildPipeline() *pipeline {
	stageOpts := []StageOption{
		WithWorkers(s.cfg.DecodeWorkers),
		WithPoolCapacity(s.cfg.PoolQueueCapacity),
		WithWriteAttempts(s.cfg.WriteAttempts),
		WithPinnedThreads(s.cfg.PinThreads),
		WithStageObserver(s.opts.observer),
	}
	decodeOpts := withStageOptions(stageOpts, WithStageLogger(s.log.Named(StageDecode)))
	renderOpts := withStageOptions(stageOpts, WithStageLogger(s.log.Named(StageRender)))

	p := &pipeline{
		render: NewRenderStage(s.decoded, s.opts.sink, renderOpts...),
	}

	switch s.cfg.Strategy {
	case StrategyPool:
		ps := NewPoolDecodeStage(s.decoded, s.opts.decoder, decodeOpts...)
		p.input = ps
		p.decode = ps
		p.pool = ps
	default:
		p.input = NewQueueInput(s.decodable)
		p.decode = NewPollingDecodeStage(s.decodable, s.decoded, s.opts.decoder, decodeOpts...)
	}
	return p
}

func (s *Service) newProducer(id int, input InputHandler[Frame]) *producer {
	return &producer{
		id:       id,
		input:    input,
		source:   s.opts.source,
		limiter:  rate.NewLimiter(rate.Every(s.cfg.ProduceInterval), 1),
		duration: s.cfg.RunDuration,
		attempts: s.cfg.InputAttempts,
		backoff:  backoff.New(backoff.Jittered, s.cfg.RetryBackoff, s.cfg.WaitTimeout, 0.2),
		obs:      s.opts.observer,
		log:      s.log.Named(StageInput),
		produced: &s.produced,
		dropped:  &s.inputDropped,
	}
}

// withStageOptions returns base followed by extra in a new backing array.
func withStageOptions(base []StageOption, extra ...StageOption) []StageOption {
	return append(slices.Clone(base), extra...)
}
