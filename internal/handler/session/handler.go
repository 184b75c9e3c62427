package session

import (
	"archive/zip"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/livepaste/backend/internal/middleware"
	sessionModel "github.com/livepaste/backend/internal/model/session"
	"github.com/livepaste/backend/internal/realtime"
	sessionService "github.com/livepaste/backend/internal/service/session"
	"github.com/livepaste/backend/internal/service/storage"
	"github.com/livepaste/backend/pkg/utils"
)

const (
	uploadsURLPrefix = "/static/uploads"
	maxUploadBytes   = 64 << 20
)

// Handler exposes the session REST surface and the realtime channel.
type Handler struct {
	registry *sessionService.Registry
	files    *storage.FileStore
	hub      *realtime.Hub
}

// New creates the session handler.
func New(registry *sessionService.Registry, files *storage.FileStore, hub *realtime.Hub) *Handler {
	return &Handler{registry: registry, files: files, hub: hub}
}

// RegisterRoutes mounts the session routes. Create and end are
// owner-restricted and go through the auth middleware.
func (h *Handler) RegisterRoutes(r chi.Router, requireAuth func(http.Handler) http.Handler) {
	r.With(requireAuth).Post("/sessions", h.handleCreate)
	r.Post("/sessions/{passphrase}/join", h.handleJoin)
	r.Post("/sessions/{passphrase}/upload", h.handleUpload)
	r.Get("/sessions/{passphrase}/files", h.handleListFiles)
	r.Get("/sessions/{passphrase}/files/download", h.handleDownload)
	r.Get("/sessions/{passphrase}", h.handleGet)
	r.With(requireAuth).Post("/sessions/{passphrase}/end", h.handleEnd)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.Principal(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "missing authorization")
		return
	}

	var payload struct {
		Passphrase string `json:"passphrase"`
	}
	if r.Body != nil {
		// Body is optional; an empty or absent body means auto-generate.
		_ = json.NewDecoder(r.Body).Decode(&payload)
	}

	passphrase := strings.TrimSpace(payload.Passphrase)
	if passphrase == "" {
		passphrase = generatePassphrase()
	}

	s, err := h.registry.Create(passphrase, principal)
	if err != nil {
		if errors.Is(err, sessionService.ErrSessionExists) {
			utils.RespondError(w, http.StatusConflict, "session exists")
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, "create failed")
		return
	}
	h.persist()

	utils.RespondJSON(w, http.StatusCreated, map[string]string{"passphrase": s.Passphrase})
}

func (h *Handler) handleJoin(w http.ResponseWriter, r *http.Request) {
	s, ok := h.activeSession(r)
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"passphrase": s.Passphrase,
		"content":    s.Content,
		"files":      s.Files,
	})
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	s, ok := h.activeSession(r)
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	rec, err := h.storeAttachment(s.Passphrase, header.Filename, contentType, data)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}

	h.broadcastEvent(s.Passphrase, realtime.FileEvent{
		Type:        "file",
		Filename:    rec.Filename,
		URL:         rec.URL,
		Size:        rec.Size,
		ContentType: rec.ContentType,
	})

	utils.RespondJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleListFiles(w http.ResponseWriter, r *http.Request) {
	s, ok := h.activeSession(r)
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{"files": s.Files})
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	s, ok := h.activeSession(r)
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return
	}

	var requested []string
	if raw := r.URL.Query().Get("files"); raw != "" {
		for _, name := range strings.Split(raw, ",") {
			if name != "" {
				requested = append(requested, name)
			}
		}
	} else {
		for _, rec := range s.Files {
			requested = append(requested, rec.Filename)
		}
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=files_%s.zip", s.Passphrase))

	zw := zip.NewWriter(w)
	defer zw.Close()

	for _, name := range requested {
		path, exists := h.files.Path(s.Passphrase, name)
		if !exists {
			// Records can outlive their bytes; skip silently.
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		entry, err := zw.Create(name)
		if err != nil {
			return
		}
		if _, err := entry.Write(data); err != nil {
			return
		}
	}
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	s, ok := h.activeSession(r)
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return
	}

	utils.RespondJSON(w, http.StatusOK, s)
}

func (h *Handler) handleEnd(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.Principal(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "missing authorization")
		return
	}

	passphrase := chi.URLParam(r, "passphrase")
	if err := h.registry.End(passphrase, principal); err != nil {
		switch {
		case errors.Is(err, sessionService.ErrSessionNotFound):
			utils.RespondError(w, http.StatusNotFound, "session not found")
		case errors.Is(err, sessionService.ErrNotOwner):
			utils.RespondError(w, http.StatusForbidden, "only owner can end session")
		default:
			utils.RespondError(w, http.StatusInternalServerError, "end failed")
		}
		return
	}

	h.broadcastEvent(passphrase, realtime.SessionEndedEvent{Type: "session_ended"})
	if err := h.files.DeleteSessionFiles(passphrase); err != nil {
		log.Printf("[session] failed to delete files for %s: %v", passphrase, err)
	}
	h.persist()

	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ended"})
}

// activeSession resolves the passphrase route param to a live session. Ended
// sessions are invisible here.
func (h *Handler) activeSession(r *http.Request) (sessionModel.Session, bool) {
	passphrase := chi.URLParam(r, "passphrase")
	s, ok := h.registry.Get(passphrase)
	if !ok || s.Ended {
		return sessionModel.Session{}, false
	}
	return s, true
}

// storeAttachment writes the bytes, appends the file record and persists.
// Shared by the HTTP upload path and the websocket file/image branch.
func (h *Handler) storeAttachment(passphrase, filename, contentType string, data []byte) (sessionModel.FileRecord, error) {
	if _, err := h.files.SaveForSession(passphrase, filename, data); err != nil {
		return sessionModel.FileRecord{}, err
	}

	rec := sessionModel.FileRecord{
		Filename:    filename,
		URL:         fmt.Sprintf("%s/%s/%s", uploadsURLPrefix, passphrase, filename),
		Size:        int64(len(data)),
		ContentType: contentType,
		UploadedAt:  time.Now().UTC(),
	}
	if err := h.registry.AppendFile(passphrase, rec); err != nil {
		return sessionModel.FileRecord{}, err
	}
	h.persist()
	return rec, nil
}

func (h *Handler) broadcastEvent(passphrase string, event any) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[session] failed to encode event: %v", err)
		return
	}
	h.hub.Broadcast(passphrase, data)
}

func (h *Handler) persist() {
	if err := h.registry.Persist(); err != nil {
		log.Printf("[session] persist failed: %v", err)
	}
}

// generatePassphrase returns 16 hex characters of randomness, enough to be
// shareable by hand while staying unguessable.
func generatePassphrase() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return hex.EncodeToString(buf)
}
