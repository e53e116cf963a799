package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path"
	"strings"

	"eliechat/internal/apitoken"
	"eliechat/internal/app"
	"eliechat/internal/ratelimit"
	"eliechat/internal/util"
	"eliechat/pkg/domain"
	"eliechat/pkg/queue"
	"eliechat/pkg/storage"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App            *app.App
	Tokens         *apitoken.Manager
	Limiter        *ratelimit.FixedWindowLimiter
	TrustedProxies *util.TrustedProxies
	Objects        storage.ObjectStore
	Queue          *queue.RedisJobQueue
	MaxUploadBytes int64
}

// Server exposes the conversation and ingestion HTTP API.
type Server struct {
	app            *app.App
	tokens         *apitoken.Manager
	limiter        *ratelimit.FixedWindowLimiter
	trustedProxies *util.TrustedProxies
	objects        storage.ObjectStore
	queue          *queue.RedisJobQueue
	maxUploadBytes int64
	mux            *http.ServeMux
}

// New constructs the server with routes configured.
func New(cfg Config) *Server {
	maxUploadBytes := cfg.MaxUploadBytes
	if maxUploadBytes <= 0 {
		maxUploadBytes = 64 << 20
	}
	s := &Server{
		app:            cfg.App,
		tokens:         cfg.Tokens,
		limiter:        cfg.Limiter,
		trustedProxies: cfg.TrustedProxies,
		objects:        cfg.Objects,
		queue:          cfg.Queue,
		maxUploadBytes: maxUploadBytes,
		mux:            http.NewServeMux(),
	}
	s.routes()
	return s
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog(util.WithSecurityHeaders(util.WithCORS(s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.Handle("/welcome", s.protected(s.handleWelcome))

	s.mux.Handle("/conversations", s.protected(s.handleConversations))
	s.mux.Handle("/conversations/", s.protected(s.handleConversationByID))
	s.mux.Handle("/messages/", s.protected(s.handleMessageReaction))
	s.mux.Handle("/reactions", s.protected(s.handleReactionTotals))

	s.mux.Handle("/config", s.protected(s.handleConfig))

	s.mux.Handle("/uploads", s.protected(s.handleUpload))
	s.mux.Handle("/uploads/", s.protected(s.handleUploadStatus))
	s.mux.Handle("/files", s.protected(s.handleFiles))
	s.mux.Handle("/files/", s.protected(s.handleFileByID))

	s.mux.Handle("/assistants", s.protected(s.handleAssistants))
	s.mux.Handle("/assistants/", s.protected(s.handleAssistantByID))
	s.mux.Handle("/assistants/bind", s.protected(s.handleBindAssistant))
	s.mux.Handle("/vector-stores", s.protected(s.handleVectorStores))
	s.mux.Handle("/vector-stores/", s.protected(s.handleVectorStoreByID))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// protected enforces rate limiting and bearer-token auth.
func (s *Server) protected(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil {
			if !s.limiter.Allow(util.ClientIP(r, s.trustedProxies)) {
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
		}
		if s.tokens != nil {
			token, ok := apitoken.BearerToken(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if _, err := s.tokens.VerifySubject(token); err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
		}
		next(w, r)
	})
}

func (s *Server) handleWelcome(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	msg, ok := s.app.Welcome(r.Context())
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": msg})
}

func (s *Server) handleConversations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		conversations, err := s.app.ListConversations(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"items": conversations,
			"count": len(conversations),
		})
	case http.MethodPost:
		var req struct {
			Title string `json:"title"`
		}
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		conversation, err := s.app.CreateConversation(r.Context(), req.Title)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusCreated, conversation)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleConversationByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/conversations/")
	parts := strings.SplitN(rest, "/", 2)
	id := parts[0]
	if id == "" {
		notFound(w, "conversation not found")
		return
	}
	if len(parts) == 2 {
		switch parts[1] {
		case "messages":
			s.handleConversationMessages(w, r, id)
		default:
			notFound(w, "not found")
		}
		return
	}

	switch r.Method {
	case http.MethodGet:
		conversation, err := s.app.GetConversation(r.Context(), id)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, conversation)
	case http.MethodPatch:
		var req struct {
			Title string `json:"title"`
		}
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if err := s.app.RenameConversation(r.Context(), id, req.Title); err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
	case http.MethodDelete:
		if err := s.app.DeleteConversation(r.Context(), id); err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleConversationMessages(w http.ResponseWriter, r *http.Request, conversationID string) {
	switch r.Method {
	case http.MethodGet:
		messages, err := s.app.ListMessages(r.Context(), conversationID)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"items": messages,
			"count": len(messages),
		})
	case http.MethodPost:
		var req struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if strings.TrimSpace(req.Text) == "" {
			writeError(w, http.StatusBadRequest, "text is required")
			return
		}
		reply, err := s.app.SendMessage(r.Context(), conversationID, req.Text)
		if errors.Is(err, app.ErrMissingAssistantBinding) {
			// The prompt message is already persisted; hand it back so the
			// client can render the transcript as-is.
			writeJSON(w, http.StatusConflict, reply)
			return
		}
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, reply)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleMessageReaction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/messages/")
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" {
		notFound(w, "not found")
		return
	}
	var (
		message domain.Message
		err     error
	)
	switch parts[1] {
	case "like":
		message, err = s.app.LikeMessage(r.Context(), parts[0])
	case "dislike":
		message, err = s.app.DislikeMessage(r.Context(), parts[0])
	default:
		notFound(w, "not found")
		return
	}
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, message)
}

func (s *Server) handleReactionTotals(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	totals, err := s.app.ReactionTotals(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, totals)
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		cfg, found, err := s.app.APIConfig(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if !found {
			notFound(w, "configuration not set")
			return
		}
		writeJSON(w, http.StatusOK, cfg)
	case http.MethodPut:
		var cfg domain.APIConfig
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&cfg); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if err := s.app.SaveAPIConfig(r.Context(), cfg); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if s.objects == nil || s.queue == nil {
		writeError(w, http.StatusServiceUnavailable, "ingestion not configured")
		return
	}
	if s.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form data")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required (field: file)")
		return
	}
	defer file.Close()

	fileName := path.Base(header.Filename)
	if fileName == "" || fileName == "." || fileName == "/" {
		fileName = "uploaded_file"
	}
	conversationID := r.FormValue("conversationId")

	objectKey := "uploads/" + util.NewID() + "/" + fileName
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if err := s.objects.Put(r.Context(), objectKey, file, header.Size, contentType); err != nil {
		writeError(w, http.StatusInternalServerError, "stage upload failed")
		return
	}
	job, err := s.queue.Enqueue(r.Context(), objectKey, fileName, conversationID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "enqueue failed")
		return
	}
	writeJSON(w, http.StatusAccepted, job)
}

func (s *Server) handleUploadStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	if s.queue == nil {
		writeError(w, http.StatusServiceUnavailable, "ingestion not configured")
		return
	}
	jobID := strings.TrimPrefix(r.URL.Path, "/uploads/")
	job, found, err := s.queue.GetJob(r.Context(), jobID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !found {
		notFound(w, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleFiles(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		files, err := s.app.ListIngestedFiles(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"items": files,
			"count": len(files),
		})
	case http.MethodDelete:
		if err := s.app.PurgeIngestedFiles(r.Context()); err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "purged"})
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleFileByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/files/")
	if err := s.app.DeleteIngestedFile(r.Context(), id); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleAssistants(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		assistants, err := s.app.ListAssistants(r.Context())
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"items": assistants,
			"count": len(assistants),
		})
	case http.MethodPost:
		var req struct {
			Name         string `json:"name"`
			Instructions string `json:"instructions"`
			Model        string `json:"model"`
			Tool         string `json:"tool"`
		}
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		created, err := s.app.CreateAssistant(r.Context(), req.Name, req.Instructions, req.Model, req.Tool)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleAssistantByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/assistants/")
	if r.Method != http.MethodDelete {
		methodNotAllowed(w)
		return
	}
	if err := s.app.DeleteAssistant(r.Context(), id); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleBindAssistant(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if err := s.app.BindAssistantToVectorStore(r.Context()); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "bound"})
}

func (s *Server) handleVectorStores(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		stores, err := s.app.ListVectorStores(r.Context())
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"items": stores,
			"count": len(stores),
		})
	case http.MethodPost:
		var req struct {
			Name string `json:"name"`
		}
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		created, err := s.app.CreateVectorStore(r.Context(), req.Name)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleVectorStoreByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/vector-stores/")
	if err := s.app.DeleteVectorStore(r.Context(), id); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func notFound(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusNotFound, msg)
}

// writeAppError maps orchestrator errors onto HTTP statuses. Precondition
// failures get distinct codes so clients can react to each.
func writeAppError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrConversationNotFound),
		errors.Is(err, app.ErrMessageNotFound),
		errors.Is(err, app.ErrIngestedFileNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, app.ErrOffline):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, app.ErrMissingConfiguration):
		writeError(w, http.StatusPreconditionFailed, err.Error())
	case errors.Is(err, app.ErrMissingAssistantBinding):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, app.ErrInvalidPDF):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrRunTimeout):
		writeError(w, http.StatusGatewayTimeout, err.Error())
	default:
		writeError(w, http.StatusBadGateway, "trouble processing your request")
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
