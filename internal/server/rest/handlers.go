package rest

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/logging"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/dmitrijs2005/filevault/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// tokenHeader carries the opaque session token on authenticated requests.
const tokenHeader = "X-Token"

// Handler exposes the public HTTP API over the service layer.
type Handler struct {
	users  *services.UserService
	files  *services.FileService
	gate   *services.AccessGate
	app    *services.AppService
	logger logging.Logger
}

func NewHandler(users *services.UserService, files *services.FileService, gate *services.AccessGate, app *services.AppService, logger logging.Logger) *Handler {
	return &Handler{users: users, files: files, gate: gate, app: app, logger: logger}
}

// Routes builds the router. All routes are public at the router level;
// per-request authorization happens inside the handlers because content
// retrieval accepts anonymous callers for public nodes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/status", h.getStatus)
	r.Get("/stats", h.getStats)

	r.Post("/users", h.postUsers)
	r.Get("/connect", h.getConnect)
	r.Get("/disconnect", h.getDisconnect)
	r.Get("/users/me", h.getMe)

	r.Post("/files", h.postFiles)
	r.Get("/files", h.getFilesIndex)
	r.Get("/files/{id}", h.getFile)
	r.Put("/files/{id}/publish", h.putPublish(true))
	r.Put("/files/{id}/unpublish", h.putPublish(false))
	r.Get("/files/{id}/data", h.getFileData)

	return r
}

// authorize resolves the session token of a request to a user id.
func (h *Handler) authorize(r *http.Request) (uuid.UUID, error) {
	return h.gate.Authorize(r.Context(), r.Header.Get(tokenHeader))
}

func (h *Handler) getStatus(w http.ResponseWriter, r *http.Request) {
	redisAlive, dbAlive := h.app.Status(r.Context())
	writeJSON(w, http.StatusOK, map[string]bool{"redis": redisAlive, "db": dbAlive})
}

func (h *Handler) getStats(w http.ResponseWriter, r *http.Request) {
	userCount, fileCount, err := h.app.Stats(r.Context())
	if err != nil {
		h.logger.Error(r.Context(), "stats query failed", "error", err.Error())
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"users": userCount, "files": fileCount})
}

func (h *Handler) postUsers(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, common.NewValidationError("Missing email"))
		return
	}

	user, err := h.users.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, renderUser(user))
}

func (h *Handler) getConnect(w http.ResponseWriter, r *http.Request) {
	email, password, ok := r.BasicAuth()
	if !ok {
		writeError(w, common.ErrUnauthorized)
		return
	}

	token, err := h.users.Login(r.Context(), email, password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (h *Handler) getDisconnect(w http.ResponseWriter, r *http.Request) {
	if _, err := h.authorize(r); err != nil {
		writeError(w, err)
		return
	}

	if err := h.users.Logout(r.Context(), r.Header.Get(tokenHeader)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getMe(w http.ResponseWriter, r *http.Request) {
	userID, err := h.authorize(r)
	if err != nil {
		writeError(w, err)
		return
	}

	user, err := h.users.Me(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, renderUser(user))
}

func (h *Handler) postFiles(w http.ResponseWriter, r *http.Request) {
	userID, err := h.authorize(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req struct {
		Name     string     `json:"name"`
		Kind     string     `json:"type"`
		ParentID wireParent `json:"parentId"`
		IsPublic bool       `json:"isPublic"`
		Data     string     `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, common.NewValidationError("Missing name"))
		return
	}

	var data []byte
	if req.Data != "" {
		data, err = base64.StdEncoding.DecodeString(req.Data)
		if err != nil {
			writeError(w, common.NewValidationError("Missing data"))
			return
		}
	}

	node, err := h.files.Create(r.Context(), userID, services.CreateInput{
		Name:     req.Name,
		Kind:     req.Kind,
		ParentID: string(req.ParentID),
		IsPublic: req.IsPublic,
		Data:     data,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, renderFile(node))
}

func (h *Handler) getFilesIndex(w http.ResponseWriter, r *http.Request) {
	userID, err := h.authorize(r)
	if err != nil {
		writeError(w, err)
		return
	}

	page := 0
	if s := r.URL.Query().Get("page"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			page = n
		}
	}

	nodes, err := h.files.List(r.Context(), userID, r.URL.Query().Get("parentId"), page)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, renderFiles(nodes))
}

func (h *Handler) getFile(w http.ResponseWriter, r *http.Request) {
	userID, err := h.authorize(r)
	if err != nil {
		writeError(w, err)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, common.ErrNotFound)
		return
	}

	node, err := h.files.Get(r.Context(), userID, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, renderFile(node))
}

func (h *Handler) putPublish(public bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := h.authorize(r)
		if err != nil {
			writeError(w, err)
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, common.ErrNotFound)
			return
		}

		node, err := h.files.SetPublic(r.Context(), userID, id, public)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, renderFile(node))
	}
}

func (h *Handler) getFileData(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, common.ErrNotFound)
		return
	}

	// a present selector must name a configured width; anything else,
	// including 0, is rejected instead of falling back to the original
	width := 0
	if s := r.URL.Query().Get("size"); s != "" {
		width, err = strconv.Atoi(s)
		if err != nil || !slices.Contains(models.ThumbnailWidths, width) {
			writeError(w, common.NewValidationError("Invalid size"))
			return
		}
	}

	node, _, err := h.gate.AuthorizeContent(r.Context(), r.Header.Get(tokenHeader), id)
	if err != nil {
		writeError(w, err)
		return
	}

	rc, err := h.files.Content(r.Context(), node, width)
	if err != nil {
		writeError(w, err)
		return
	}
	defer rc.Close()

	ctype := mime.TypeByExtension(filepath.Ext(node.Name))
	if ctype == "" {
		ctype = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ctype)

	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn(r.Context(), "content stream interrupted", "fileId", id.String(), "error", err.Error())
	}
}
