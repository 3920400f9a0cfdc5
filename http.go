package packbit

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// httpServer exposes the archiver over HTTP: one-shot compress and
// decompress endpoints, archive CRUD, stats, and a websocket stream that
// packs (or unpacks) each binary frame it receives.
type httpServer struct {
	srv  *http.Server
	a    *Archiver
	cfg  HTTPConfig
	addr string
	log  *slog.Logger
}

func newHTTPServer(a *Archiver, cfg HTTPConfig) *httpServer {
	return &httpServer{
		a:   a,
		cfg: cfg,
		log: slog.With("component", "packbit-http"),
	}
}

func (s *httpServer) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/compress", s.handleCompress)
	mux.HandleFunc("/v1/decompress", s.handleDecompress)
	mux.HandleFunc("/v1/archives", s.handleArchiveList)
	mux.HandleFunc("/v1/archives/", s.handleArchive)
	mux.HandleFunc("/v1/stats", s.handleStats)
	mux.HandleFunc("/v1/stream", s.handleStream)
	return mux
}

func startHTTPServer(a *Archiver, cfg HTTPConfig) (*httpServer, error) {
	s := newHTTPServer(a, cfg)

	listener, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return nil, err
	}
	s.addr = listener.Addr().String()

	s.srv = &http.Server{
		Handler:      s.routes(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	go func() {
		if err := s.srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("server stopped", "error", err)
		}
	}()
	s.log.Info("listening", "addr", s.addr)
	return s, nil
}

func (s *httpServer) Close() error {
	if s == nil || s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

// Addr returns the bound listen address.
func (s *httpServer) Addr() string {
	return s.addr
}

func (s *httpServer) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, err)
		return nil, false
	}
	return body, true
}

func (s *httpServer) handleCompress(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	packed, codec, err := s.a.packer.Pack(body)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("X-Packbit-Codec", codec.String())
	_, _ = w.Write(packed)
}

func (s *httpServer) handleDecompress(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	data, err := s.a.Unpack(body)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = w.Write(data)
}

func (s *httpServer) handleArchiveList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	keys, err := s.a.List(r.Context(), r.URL.Query().Get("prefix"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"keys": keys})
}

func (s *httpServer) handleArchive(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, "/v1/archives/")
	if key == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodPut, http.MethodPost:
		body, ok := s.readBody(w, r)
		if !ok {
			return
		}
		info, err := s.a.Store(r.Context(), key, body)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err)
			return
		}
		writeJSON(w, http.StatusCreated, info)

	case http.MethodGet:
		data, err := s.a.Load(r.Context(), key)
		if errors.Is(err, ErrArchiveNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(data)

	case http.MethodDelete:
		err := s.a.Delete(r.Context(), key)
		if errors.Is(err, ErrArchiveNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *httpServer) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.a.Stats())
}

var streamUpgrader = websocket.Upgrader{
	ReadBufferSize:  32 * 1024,
	WriteBufferSize: 32 * 1024,
}

// handleStream upgrades to a websocket and processes each binary frame:
// mode=pack (default) compresses, mode=unpack restores. The transformed
// frame is written back in order.
func (s *httpServer) handleStream(w http.ResponseWriter, r *http.Request) {
	unpack := r.URL.Query().Get("mode") == "unpack"

	conn, err := streamUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	for {
		msgType, frame, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Warn("websocket read failed", "error", err)
			}
			return
		}
		if msgType != websocket.BinaryMessage {
			continue
		}

		var out []byte
		if unpack {
			out, err = s.a.Unpack(frame)
		} else {
			out, err = s.a.Pack(frame)
		}
		if err != nil {
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseUnsupportedData, err.Error()),
				time.Now().Add(time.Second))
			return
		}
		if err := conn.WriteMessage(websocket.BinaryMessage, out); err != nil {
			s.log.Warn("websocket write failed", "error", err)
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
