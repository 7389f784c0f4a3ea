// Package daemon is the background process behind `leadly daemon`: it runs
// the reminder scheduler and answers a small newline-delimited JSON
// protocol over a unix socket.
package daemon

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"leadly/internal/proc"
	"leadly/internal/version"
)

// Scanner runs reminder passes; remind.Scheduler satisfies it.
type Scanner interface {
	Start() error
	Stop()
	Scan() error
}

// Server is the long-running leadly daemon process
type Server struct {
	sockPath  string
	listener  net.Listener
	scheduler Scanner
	done      chan struct{}
	wg        sync.WaitGroup

	mu        sync.Mutex
	startedAt time.Time
	lastScan  time.Time
	lastError string
	scans     int
}

// SocketPath returns the daemon socket path
func SocketPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config", "leadly", "leadly.sock")
}

// PidPath returns the daemon PID file path
func PidPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config", "leadly", "daemon.pid")
}

// IsRunning checks if a daemon is already running, cleaning up a stale
// socket left by a crashed one.
func IsRunning() bool {
	sockPath := SocketPath()
	conn, err := net.Dial("unix", sockPath)
	if err != nil {
		os.Remove(sockPath)
		return false
	}
	conn.Close()
	return true
}

// RunningPID reads the PID file and verifies the process is alive and is
// actually a leadly binary. Returns 0 when no daemon runs.
func RunningPID() int {
	data, err := os.ReadFile(PidPath())
	if err != nil {
		return 0
	}
	info, err := proc.ParseLockInfo(data)
	if err != nil {
		return 0
	}
	if !proc.Exists(info.PID) || !proc.IsLeadlyProcess(info.PID) {
		return 0
	}
	return info.PID
}

// New creates a daemon bound to its socket. Refuses to start when another
// daemon already answers.
func New(scheduler Scanner) (*Server, error) {
	sockPath := SocketPath()

	if err := os.MkdirAll(filepath.Dir(sockPath), 0700); err != nil {
		return nil, fmt.Errorf("failed to create socket directory: %w", err)
	}

	if IsRunning() {
		return nil, fmt.Errorf("daemon already running")
	}
	os.Remove(sockPath)

	listener, err := net.Listen("unix", sockPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create socket: %w", err)
	}
	os.Chmod(sockPath, 0600)

	return &Server{
		sockPath:  sockPath,
		listener:  listener,
		scheduler: scheduler,
		done:      make(chan struct{}),
	}, nil
}

// Run starts the daemon and blocks until shutdown
func (s *Server) Run() error {
	pidContent := fmt.Sprintf("%d:%s", os.Getpid(), version.Version)
	if err := os.WriteFile(PidPath(), []byte(pidContent), 0600); err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}
	defer os.Remove(PidPath())

	s.mu.Lock()
	s.startedAt = time.Now()
	s.mu.Unlock()

	fmt.Printf("Daemon started (PID %d, socket %s)\n", os.Getpid(), s.sockPath)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if s.scheduler != nil {
		if err := s.scheduler.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		// First pass right away so a fresh daemon is useful immediately.
		s.runScan()
	}

	s.wg.Add(1)
	go s.acceptLoop()

	<-sigChan
	fmt.Println("\nShutting down...")

	s.listener.Close()
	close(s.done)
	s.wg.Wait()

	if s.scheduler != nil {
		s.scheduler.Stop()
	}

	os.Remove(s.sockPath)

	fmt.Println("Daemon stopped")
	return nil
}

// acceptLoop accepts client connections
func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.done:
				return // Normal shutdown
			default:
				fmt.Printf("Accept error: %v\n", err)
				continue
			}
		}

		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

// handleConn serves one client connection
func (s *Server) handleConn(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	reader := bufio.NewReader(conn)
	encoder := json.NewEncoder(conn)

	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			return // Client disconnected
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			encoder.Encode(Response{Type: RespError, Error: "invalid request"})
			continue
		}

		resp := s.handleRequest(&req)
		resp.ID = req.ID
		encoder.Encode(resp)
	}
}

// handleRequest processes a single request
func (s *Server) handleRequest(req *Request) Response {
	switch req.Type {
	case ReqPing:
		return Response{Type: RespPong}

	case ReqStatus:
		s.mu.Lock()
		status := &Status{
			PID:       os.Getpid(),
			Version:   version.Version,
			StartedAt: s.startedAt,
			LastScan:  s.lastScan,
			LastError: s.lastError,
			Scans:     s.scans,
		}
		s.mu.Unlock()
		return Response{Type: RespStatus, Status: status}

	case ReqScan:
		if s.scheduler == nil {
			return Response{Type: RespError, Error: "no scheduler running"}
		}
		go s.runScan()
		return Response{Type: RespOK}

	case ReqShutdown:
		go func() {
			time.Sleep(100 * time.Millisecond)
			syscall.Kill(os.Getpid(), syscall.SIGTERM)
		}()
		return Response{Type: RespOK}

	default:
		return Response{Type: RespError, Error: "unknown request type: " + req.Type}
	}
}

func (s *Server) runScan() {
	err := s.scheduler.Scan()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastScan = time.Now()
	s.scans++
	if err != nil {
		s.lastError = err.Error()
	} else {
		s.lastError = ""
	}
}
