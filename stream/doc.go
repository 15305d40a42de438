// Package stream wires bounded queues and worker pools into a simulated
// media ingest pipeline:
//
//	producers -> decodable queue -> decode stage -> decoded queue -> render stage -> Sink
//
// Producers stand in for network threads and push frames through an
// InputHandler. The decode stage turns raw frames into decoded ones using
// one of two strategies:
//
//   - PollingDecodeStage: K dedicated goroutines, each doing timed blocking
//     reads on the decodable queue and blocking writes on the decoded queue.
//   - PoolDecodeStage: an InputHandler that wraps every arriving frame in a
//     task and enqueues it on a pool.WorkerPool.
//
// RenderStage runs a single dedicated goroutine that forwards decoded frames
// to an injected Sink.
//
// Service owns both queues and every stage. Run starts producers, then the
// decode stage, then the render stage. Shutdown joins them in the same order
// so nothing in flight is lost: once it returns both queues are empty.
//
// # Stage Lifecycle
//
// Every stage is either stopped or running. Run moves it to running and
// returns ErrAlreadyRunning if it already is; Shutdown moves it back, drains
// the stage's input and joins its goroutines. Shutdown is idempotent and may
// be called concurrently.
//
// Decoders are assumed never to fail. A frame that cannot be written
// downstream after the configured number of attempts is dropped and counted.
package stream
