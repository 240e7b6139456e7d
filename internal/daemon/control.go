package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/hojoonlee/pilltick/internal/ack"
	"github.com/hojoonlee/pilltick/internal/errors"
	"github.com/hojoonlee/pilltick/internal/logging"
)

// ControlSocketPath returns the daemon's control socket path.
func ControlSocketPath() string {
	return filepath.Join(xdg.StateHome, AppName, "control.sock")
}

// ControlServer answers take and snooze requests from the CLI over a local
// socket. The daemon owns the store and the acknowledgment session; other
// pilltick processes reach the firing alarm through here.
type ControlServer struct {
	flow *alarmFlow
	path string
	srv  *http.Server
}

// NewControlServer creates a control server for the given flow.
func NewControlServer(flow *alarmFlow, path string) *ControlServer {
	return &ControlServer{flow: flow, path: path}
}

// Start listens on the socket and serves in the background. A stale socket
// left by a crashed daemon is replaced.
func (s *ControlServer) Start() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}

	ln, err := net.Listen("unix", s.path)
	if err != nil {
		return err
	}

	s.srv = &http.Server{Handler: s.Handler()}
	go func() {
		if err := s.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			logging.Error("control server stopped", logging.KeyError, err)
		}
	}()

	logging.Info("control server listening", "socket", s.path)
	return nil
}

// Handler returns the control route table.
func (s *ControlServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /alarm", s.handleAlarmStatus)
	mux.HandleFunc("POST /alarm/take", s.handleTake)
	mux.HandleFunc("POST /alarm/snooze", s.handleSnooze)
	mux.HandleFunc("GET /metrics", s.handleMetrics)
	return mux
}

// Stop shuts the server down and removes the socket.
func (s *ControlServer) Stop() {
	if s.srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		s.srv.Shutdown(ctx)
	}
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		logging.Warn("failed to remove control socket", logging.KeyError, err)
	}
}

// takeRequest is the take wire shape.
type takeRequest struct {
	EvidencePath string `json:"evidence_path,omitempty"`
}

// controlResponse is the single response shape for alarm control routes.
type controlResponse struct {
	Active bool   `json:"active,omitempty"`
	Group  string `json:"group,omitempty"`
	State  string `json:"state,omitempty"`
	Delay  string `json:"delay,omitempty"`
	Error  string `json:"error,omitempty"`
}

func (s *ControlServer) handleAlarmStatus(w http.ResponseWriter, r *http.Request) {
	group, state, active := s.flow.Status()
	writeControl(w, http.StatusOK, controlResponse{
		Active: active,
		Group:  group,
		State:  string(state),
	})
}

func (s *ControlServer) handleTake(w http.ResponseWriter, r *http.Request) {
	var req takeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		writeControl(w, http.StatusBadRequest, controlResponse{Error: "malformed take request"})
		return
	}

	if err := s.flow.Take(r.Context(), req.EvidencePath); err != nil {
		writeControl(w, controlStatus(err), controlResponse{Error: err.Error()})
		return
	}
	writeControl(w, http.StatusOK, controlResponse{State: string(ack.StateAcknowledged)})
}

func (s *ControlServer) handleSnooze(w http.ResponseWriter, r *http.Request) {
	delay, err := s.flow.Snooze()
	if err != nil {
		writeControl(w, controlStatus(err), controlResponse{Error: err.Error()})
		return
	}
	writeControl(w, http.StatusOK, controlResponse{
		State: string(ack.StateSnoozed),
		Delay: delay.String(),
	})
}

func (s *ControlServer) handleMetrics(w http.ResponseWriter, r *http.Request) {
	data, err := GlobalMetrics.JSON()
	if err != nil {
		writeControl(w, http.StatusInternalServerError, controlResponse{Error: err.Error()})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

// controlStatus maps a flow error to the response status.
func controlStatus(err error) int {
	switch {
	case errors.Is(err, errors.ErrNoActiveAlarm),
		errors.Is(err, errors.ErrSnoozeLimitReached):
		return http.StatusConflict
	case errors.IsVerificationError(err),
		errors.Is(err, errors.ErrVerifyTimeout):
		return http.StatusUnprocessableEntity
	case errors.IsHardwareError(err):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeControl(w http.ResponseWriter, status int, body controlResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Warn("failed to write control response", logging.KeyError, err)
	}
}

// AlarmStatus is the client-side view of the firing alarm.
type AlarmStatus struct {
	Active bool
	Group  string
	State  ack.State
}

// ControlClient drives a running daemon's control socket.
type ControlClient struct {
	http *http.Client
}

// NewControlClient creates a client for the default socket path.
func NewControlClient() *ControlClient {
	return NewControlClientForSocket(ControlSocketPath())
}

// NewControlClientForSocket creates a client for a specific socket path.
func NewControlClientForSocket(path string) *ControlClient {
	return &ControlClient{
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
					var d net.Dialer
					return d.DialContext(ctx, "unix", path)
				},
			},
		},
	}
}

// Take acknowledges the firing alarm, optionally with an evidence image the
// daemon can verify.
func (c *ControlClient) Take(ctx context.Context, evidencePath string) error {
	_, err := c.do(ctx, http.MethodPost, "/alarm/take", &takeRequest{EvidencePath: evidencePath})
	return err
}

// Snooze defers the firing alarm and returns the applied delay.
func (c *ControlClient) Snooze(ctx context.Context) (time.Duration, error) {
	resp, err := c.do(ctx, http.MethodPost, "/alarm/snooze", nil)
	if err != nil {
		return 0, err
	}
	delay, perr := time.ParseDuration(resp.Delay)
	if perr != nil {
		return 0, perr
	}
	return delay, nil
}

// Alarm reports whether an alarm is firing and where its session stands.
func (c *ControlClient) Alarm(ctx context.Context) (*AlarmStatus, error) {
	resp, err := c.do(ctx, http.MethodGet, "/alarm", nil)
	if err != nil {
		return nil, err
	}
	return &AlarmStatus{
		Active: resp.Active,
		Group:  resp.Group,
		State:  ack.State(resp.State),
	}, nil
}

func (c *ControlClient) do(ctx context.Context, method, route string, body *takeRequest) (*controlResponse, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, "http://pilltick"+route, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.NewConfigError(
			"the daemon is not reachable",
			"start it with 'pilltick daemon start'",
			err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var out controlResponse
	if len(data) > 0 {
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, errors.New("malformed control response")
		}
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return &out, controlError(resp.StatusCode, out.Error)
	}
	return &out, nil
}

// controlError maps a control failure back to the sentinel the daemon
// reported, so CLI hints work across the socket.
func controlError(status int, msg string) error {
	switch msg {
	case errors.ErrNoActiveAlarm.Error():
		return errors.ErrNoActiveAlarm
	case errors.ErrSnoozeLimitReached.Error():
		return errors.ErrSnoozeLimitReached
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return errors.New(msg)
}
