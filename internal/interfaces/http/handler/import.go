package handler

import (
	"io"
	"mime/multipart"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	csvimport "github.com/czachandrew/tru-server/internal/infrastructure/import"
	"github.com/czachandrew/tru-server/internal/interfaces/http/dto"
)

const (
	// Maximum file size for imports (10MB)
	maxImportFileSize = 10 * 1024 * 1024

	// validRowCleanupInterval controls how often orphaned validated rows
	// are swept out of memory.
	validRowCleanupInterval = 5 * time.Minute
)

// openCSVUpload extracts the uploaded CSV from the multipart form and
// enforces size and content-type limits. On failure it writes the error
// response and returns ok=false.
func openCSVUpload(h *BaseHandler, c *gin.Context) (multipart.File, *multipart.FileHeader, bool) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		h.BadRequest(c, "file is required")
		return nil, nil, false
	}

	if header.Size > maxImportFileSize {
		file.Close()
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeValidation, "file exceeds maximum size of 10MB")
		return nil, nil, false
	}

	switch header.Header.Get("Content-Type") {
	case "", "text/csv", "application/octet-stream", "text/plain", "application/vnd.ms-excel":
	default:
		file.Close()
		h.Error(c, http.StatusUnsupportedMediaType, dto.ErrCodeValidation, "file must be a CSV file")
		return nil, nil, false
	}

	return file, header, true
}

// writeValidationError maps CSV structural errors to client responses.
func writeValidationError(h *BaseHandler, c *gin.Context, err error) {
	switch err {
	case csvimport.ErrEmptyFile:
		h.BadRequest(c, "CSV file is empty")
	case csvimport.ErrInvalidEncoding:
		h.BadRequest(c, "CSV file has invalid encoding, must be UTF-8")
	case csvimport.ErrMissingHeader:
		h.BadRequest(c, "CSV file is missing header row")
	default:
		h.InternalError(c, "failed to validate file: "+err.Error())
	}
}

// collectValidRows re-reads the uploaded file and returns the rows that
// passed validation. The processor consumes the reader during validation,
// so the file is rewound and parsed a second time, skipping rows present
// in the error index. The optional onRow callback sees each valid row.
func collectValidRows(file multipart.File, result *csvimport.ValidationResult, onRow func(*csvimport.Row)) ([]*csvimport.Row, error) {
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	parser, err := csvimport.NewCSVParser(file)
	if err != nil {
		return nil, err
	}
	if err := parser.ParseHeader(); err != nil {
		return nil, err
	}

	errorRows := make(map[int]bool, len(result.Errors))
	for _, e := range result.Errors {
		errorRows[e.Row] = true
	}

	var validRows []*csvimport.Row
	for {
		row, err := parser.ReadRow()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		if row.IsEmpty() || errorRows[row.LineNumber] {
			continue
		}
		validRows = append(validRows, row)
		if onRow != nil {
			onRow(row)
		}
	}

	return validRows, nil
}

// validRowCache holds validated rows between the validate and import
// calls. Entries live as long as their session does; a background sweep
// drops rows whose session has expired out of the store.
type validRowCache struct {
	mu       sync.RWMutex
	rows     map[uuid.UUID][]*csvimport.Row
	sessions csvimport.SessionStore
	done     chan struct{}
}

func newValidRowCache(sessions csvimport.SessionStore) *validRowCache {
	cache := &validRowCache{
		rows:     make(map[uuid.UUID][]*csvimport.Row),
		sessions: sessions,
		done:     make(chan struct{}),
	}
	go cache.sweep()
	return cache
}

func (vc *validRowCache) sweep() {
	ticker := time.NewTicker(validRowCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			vc.mu.Lock()
			for sessionID := range vc.rows {
				session, _ := vc.sessions.Get(sessionID)
				if session == nil {
					delete(vc.rows, sessionID)
				}
			}
			vc.mu.Unlock()
		case <-vc.done:
			return
		}
	}
}

func (vc *validRowCache) put(sessionID uuid.UUID, rows []*csvimport.Row) {
	vc.mu.Lock()
	vc.rows[sessionID] = rows
	vc.mu.Unlock()
}

func (vc *validRowCache) get(sessionID uuid.UUID) []*csvimport.Row {
	vc.mu.RLock()
	defer vc.mu.RUnlock()
	return vc.rows[sessionID]
}

func (vc *validRowCache) remove(sessionID uuid.UUID) {
	vc.mu.Lock()
	delete(vc.rows, sessionID)
	vc.mu.Unlock()
}

// Stop terminates the background sweep goroutine.
func (vc *validRowCache) Stop() {
	close(vc.done)
}

// ImportSessionHandler exposes import session lookups. Both entity import
// handlers share the same session store, so a single endpoint serves both.
type ImportSessionHandler struct {
	BaseHandler
	sessionStore csvimport.SessionStore
}

// NewImportSessionHandler creates a new ImportSessionHandler
func NewImportSessionHandler(sessionStore csvimport.SessionStore) *ImportSessionHandler {
	return &ImportSessionHandler{sessionStore: sessionStore}
}

// GetSession godoc
//
//	@Summary		Get import session
//	@Description	Retrieves the status and details of an import session
//	@Tags			import
//	@ID				getImportSession
//	@Produce		json
//	@Param			id	path		string	true	"Session ID (UUID)"
//	@Success		200	{object}	APIResponse[csvimport.ImportSession]
//	@Failure		400	{object}	dto.ErrorResponse
//	@Failure		401	{object}	dto.ErrorResponse
//	@Failure		404	{object}	dto.ErrorResponse
//	@Failure		500	{object}	dto.ErrorResponse
//	@Security		BearerAuth
//	@Router			/import/sessions/{id} [get]
func (h *ImportSessionHandler) GetSession(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid session ID")
		return
	}

	session, err := h.sessionStore.Get(sessionID)
	if err != nil {
		h.InternalError(c, "failed to retrieve session")
		return
	}
	if session == nil {
		h.NotFound(c, "Import session not found or expired")
		return
	}

	// Sessions are only visible to the user that created them.
	userID, err := getUserID(c)
	if err != nil || session.UserID != userID {
		h.NotFound(c, "Import session not found or expired")
		return
	}

	h.Success(c, session)
}

// RegisterRoutes registers import session routes
func (h *ImportSessionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/import/sessions/:id", h.GetSession)
}
