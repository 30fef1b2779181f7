package web

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"plansheet-cli/internal/catalog"
	"plansheet-cli/internal/model"
	"plansheet-cli/internal/store"
)

func (s *Server) section(w http.ResponseWriter, r *http.Request) (catalog.Section, string, bool) {
	sec, ok := s.catalog.Lookup(chi.URLParam(r, "sectionKey"))
	if !ok {
		writeError(w, http.StatusNotFound, "Unknown table")
		return catalog.Section{}, "", false
	}
	return sec, chi.URLParam(r, "projectId"), true
}

func (s *Server) handleSection(w http.ResponseWriter, r *http.Request) {
	sec, project, ok := s.section(w, r)
	if !ok {
		return
	}
	stored, err := s.rows.List(r.Context(), project, sec.Key)
	if err != nil {
		s.log.Error("list rows", "section", sec.Key, "err", err)
		writeError(w, http.StatusInternalServerError, "Unable to load rows")
		return
	}
	rows := make([]model.RowRecord, 0, len(stored))
	for _, st := range stored {
		rows = append(rows, toRecord(sec, st.ID, st.Values))
	}
	if len(rows) == 0 {
		for _, tmpl := range sec.DefaultRows {
			rec := toRecord(sec, 0, tmpl)
			rec[model.IDField] = model.Null()
			rows = append(rows, rec)
		}
	}
	writeJSON(w, http.StatusOK, model.SectionPayload{
		Fields:    sec.FieldSpecs(),
		Rows:      rows,
		Singleton: sec.Singleton,
		Table:     sec.Key,
	})
}

// toRecord converts stored text back into typed JSON values.
func toRecord(sec catalog.Section, id int64, values map[string]string) model.RowRecord {
	rec := model.RowRecord{model.IDField: model.Int(id)}
	for _, f := range sec.Fields {
		v, ok := values[f.Name]
		if !ok || v == "" {
			rec[f.Name] = model.Null()
			continue
		}
		if strings.Contains(strings.ToLower(f.Type), "integer") {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				rec[f.Name] = model.Int(n)
				continue
			}
		}
		rec[f.Name] = model.String(v)
	}
	return rec
}

type saveResponse struct {
	Success bool            `json:"success"`
	Row     model.RowRecord `json:"row,omitempty"`
	ID      int64           `json:"id,omitempty"`
}

type errorsResponse struct {
	Success bool                `json:"success"`
	Errors  map[string][]string `json:"errors"`
}

func (s *Server) readRow(w http.ResponseWriter, r *http.Request, sec catalog.Section) (map[string]string, bool) {
	values, err := decodeValues(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorsResponse{Errors: map[string][]string{"__all__": {err.Error()}}})
		return nil, false
	}
	clean, errs := cleanRow(sec, values)
	if errs != nil {
		writeJSON(w, http.StatusBadRequest, errorsResponse{Errors: errs})
		return nil, false
	}
	return clean, true
}

func (s *Server) handleRowCreate(w http.ResponseWriter, r *http.Request) {
	sec, project, ok := s.section(w, r)
	if !ok {
		return
	}
	values, ok := s.readRow(w, r, sec)
	if !ok {
		return
	}
	ctx := r.Context()
	var (
		saved store.StoredRow
		err   error
	)
	if sec.Singleton {
		saved, err = s.upsertSingleton(ctx, project, sec.Key, values)
	} else {
		saved, err = s.rows.Insert(ctx, project, sec.Key, values)
	}
	if err != nil {
		s.log.Error("save row", "section", sec.Key, "err", err)
		writeError(w, http.StatusInternalServerError, "Unable to save row")
		return
	}
	writeJSON(w, http.StatusOK, saveResponse{Success: true, Row: toRecord(sec, saved.ID, saved.Values), ID: saved.ID})
}

// upsertSingleton keeps a singleton section at one record.
func (s *Server) upsertSingleton(ctx context.Context, project, key string, values map[string]string) (store.StoredRow, error) {
	existing, ok, err := s.rows.First(ctx, project, key)
	if err != nil {
		return store.StoredRow{}, err
	}
	if ok {
		return s.rows.Update(ctx, project, key, existing.ID, values)
	}
	return s.rows.Insert(ctx, project, key, values)
}

func (s *Server) handleRowUpdate(w http.ResponseWriter, r *http.Request) {
	sec, project, ok := s.section(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	id, hasID, ok := rowID(w, r)
	if !ok {
		return
	}
	if !sec.Singleton {
		if !hasID {
			writeError(w, http.StatusBadRequest, "Row id required")
			return
		}
		if _, err := s.rows.Get(ctx, project, sec.Key, id); err != nil {
			s.rowLookupFailed(w, sec.Key, err)
			return
		}
	}
	values, ok := s.readRow(w, r, sec)
	if !ok {
		return
	}
	var (
		saved store.StoredRow
		err   error
	)
	if sec.Singleton {
		saved, err = s.upsertSingleton(ctx, project, sec.Key, values)
	} else {
		saved, err = s.rows.Update(ctx, project, sec.Key, id, values)
	}
	if err != nil {
		s.rowLookupFailed(w, sec.Key, err)
		return
	}
	writeJSON(w, http.StatusOK, saveResponse{Success: true, Row: toRecord(sec, saved.ID, saved.Values), ID: saved.ID})
}

func (s *Server) handleRowDelete(w http.ResponseWriter, r *http.Request) {
	sec, project, ok := s.section(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	id, hasID, ok := rowID(w, r)
	if !ok {
		return
	}
	if sec.Singleton {
		existing, found, err := s.rows.First(ctx, project, sec.Key)
		if err != nil {
			s.rowLookupFailed(w, sec.Key, err)
			return
		}
		if found {
			if err := s.rows.Delete(ctx, project, sec.Key, existing.ID); err != nil {
				s.rowLookupFailed(w, sec.Key, err)
				return
			}
		}
		writeJSON(w, http.StatusOK, saveResponse{Success: true})
		return
	}
	if !hasID {
		writeError(w, http.StatusBadRequest, "Row id required")
		return
	}
	if err := s.rows.Delete(ctx, project, sec.Key, id); err != nil {
		s.rowLookupFailed(w, sec.Key, err)
		return
	}
	writeJSON(w, http.StatusOK, saveResponse{Success: true})
}

func rowID(w http.ResponseWriter, r *http.Request) (int64, bool, bool) {
	raw := chi.URLParam(r, "rowId")
	if raw == "" {
		return 0, false, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusNotFound, "Row not found")
		return 0, false, false
	}
	return id, true, true
}

func (s *Server) rowLookupFailed(w http.ResponseWriter, section string, err error) {
	if errors.Is(err, store.ErrRowNotFound) {
		writeError(w, http.StatusNotFound, "Row not found")
		return
	}
	s.log.Error("row store", "section", section, "err", err)
	writeError(w, http.StatusInternalServerError, "Unable to save row")
}
