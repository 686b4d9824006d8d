package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/meltforce/liftlog/internal/importer"
	"github.com/meltforce/liftlog/internal/storage"
)

// maxBackupBytes bounds an uploaded backup, compressed or not.
const maxBackupBytes = 64 << 20

func (s *Server) backupsEnabled(w http.ResponseWriter) bool {
	if s.backups == nil {
		writeError(w, http.StatusNotImplemented, "backups not enabled")
		return false
	}
	return true
}

// handleImport applies an uploaded backup. Query: mode=merge|replace,
// dry_run=true. The X-Backup-Name header names the source in the import log.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if !s.backupsEnabled(w) {
		return
	}
	mode, err := storage.ParseImportMode(r.URL.Query().Get("mode"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	dryRun := false
	if raw := r.URL.Query().Get("dry_run"); raw != "" {
		if dryRun, err = strconv.ParseBool(raw); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid dry_run %q", raw))
			return
		}
	}
	source := r.Header.Get("X-Backup-Name")
	if source == "" {
		source = "api"
	}

	imp := importer.New(s.backups, s.log, dryRun)
	imp.Now = s.now
	result, err := imp.Import(r.Context(), source, http.MaxBytesReader(w, r.Body, maxBackupBytes), mode)
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, err.Error())
		case errors.Is(err, importer.ErrInvalidBackup), errors.Is(err, importer.ErrUnsupportedVersion):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			s.serverError(w, "import", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleImportLogs(w http.ResponseWriter, r *http.Request) {
	if !s.backupsEnabled(w) {
		return
	}
	limit, ok := intParam(w, r, "limit", 50)
	if !ok {
		return
	}
	logs, err := s.backups.QueryImportLogs(r.Context(), limit)
	if err != nil {
		s.serverError(w, "import logs", err)
		return
	}
	if logs == nil {
		logs = []storage.ImportLog{}
	}
	writeJSON(w, http.StatusOK, logs)
}

// handleExport streams the whole store in the app's backup format.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if !s.backupsEnabled(w) {
		return
	}
	data, err := s.backups.ExportBackup(r.Context(), s.now())
	if err != nil {
		s.serverError(w, "export", err)
		return
	}
	name := fmt.Sprintf("liftlog-%s.json", s.now().Format("2006-01-02"))
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	writeJSON(w, http.StatusOK, data)
}
