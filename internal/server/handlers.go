package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/koustreak/clientbook/internal/clients"
	"github.com/koustreak/clientbook/internal/errs"
)

type createClientRequest struct {
	Name    string   `json:"name"`
	Surname string   `json:"surname"`
	Email   string   `json:"email"`
	Phones  []string `json:"phones"`
}

type addPhoneRequest struct {
	Number string `json:"number"`
}

func (s *Server) healthz(rw http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health.Ping(r.Context()); err != nil {
			writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusServiceUnavailable)
			return
		}
	}
	writeData(rw, map[string]string{"status": "ok"}, http.StatusOK)
}

func (s *Server) createClient(rw http.ResponseWriter, r *http.Request) {
	var req createClientRequest
	if err := decode(r, &req); err != nil {
		writeError(rw, r, err)
		return
	}

	id, err := s.store.AddClient(r.Context(), req.Name, req.Surname, req.Email, req.Phones)
	if err != nil {
		writeError(rw, r, err)
		return
	}
	rw.Header().Set("Location", "/clients/"+strconv.FormatInt(id, 10))
	writeData(rw, idResponse{ID: id}, http.StatusCreated)
}

func (s *Server) listClients(rw http.ResponseWriter, r *http.Request) {
	records, err := s.store.ListClients(r.Context())
	if err != nil {
		writeError(rw, r, err)
		return
	}
	writeData(rw, records, http.StatusOK)
}

func (s *Server) findClient(rw http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	id, err := s.store.FindClient(r.Context(), clients.Criteria{
		Name:    q.Get("name"),
		Surname: q.Get("surname"),
		Email:   q.Get("email"),
		Phone:   q.Get("phone"),
		Mode:    clients.ParseMatchMode(q.Get("mode")),
	})
	if err != nil {
		writeError(rw, r, err)
		return
	}
	writeData(rw, idResponse{ID: id}, http.StatusOK)
}

func (s *Server) getClient(rw http.ResponseWriter, r *http.Request) {
	id, err := clientID(r)
	if err != nil {
		writeError(rw, r, err)
		return
	}

	c, err := s.store.GetClient(r.Context(), id)
	if err != nil {
		writeError(rw, r, err)
		return
	}
	phones, err := s.store.GetPhones(r.Context(), id)
	if err != nil {
		writeError(rw, r, err)
		return
	}
	writeData(rw, clients.ClientRecord{Client: *c, Phones: phones}, http.StatusOK)
}

func (s *Server) updateClient(rw http.ResponseWriter, r *http.Request) {
	id, err := clientID(r)
	if err != nil {
		writeError(rw, r, err)
		return
	}

	var upd clients.ClientUpdate
	if err := decode(r, &upd); err != nil {
		writeError(rw, r, err)
		return
	}
	if err := s.store.UpdateClient(r.Context(), id, upd); err != nil {
		writeError(rw, r, err)
		return
	}
	writeData(rw, idResponse{ID: id}, http.StatusOK)
}

func (s *Server) deleteClient(rw http.ResponseWriter, r *http.Request) {
	id, err := clientID(r)
	if err != nil {
		writeError(rw, r, err)
		return
	}

	if err := s.store.DeleteClient(r.Context(), id); err != nil {
		writeError(rw, r, err)
		return
	}
	writeData(rw, idResponse{ID: id}, http.StatusOK)
}

func (s *Server) listPhones(rw http.ResponseWriter, r *http.Request) {
	id, err := clientID(r)
	if err != nil {
		writeError(rw, r, err)
		return
	}

	if _, err := s.store.GetClient(r.Context(), id); err != nil {
		writeError(rw, r, err)
		return
	}
	phones, err := s.store.GetPhones(r.Context(), id)
	if err != nil {
		writeError(rw, r, err)
		return
	}
	writeData(rw, phones, http.StatusOK)
}

func (s *Server) addPhone(rw http.ResponseWriter, r *http.Request) {
	id, err := clientID(r)
	if err != nil {
		writeError(rw, r, err)
		return
	}

	var req addPhoneRequest
	if err := decode(r, &req); err != nil {
		writeError(rw, r, err)
		return
	}
	phoneID, err := s.store.AddPhone(r.Context(), id, req.Number)
	if err != nil {
		writeError(rw, r, err)
		return
	}
	writeData(rw, idResponse{ID: phoneID}, http.StatusCreated)
}

func (s *Server) deletePhone(rw http.ResponseWriter, r *http.Request) {
	id, err := clientID(r)
	if err != nil {
		writeError(rw, r, err)
		return
	}

	number, err := phoneNumber(r)
	if err != nil {
		writeError(rw, r, err)
		return
	}

	if err := s.store.DeletePhone(r.Context(), id, number); err != nil {
		writeError(rw, r, err)
		return
	}
	writeData(rw, idResponse{ID: id}, http.StatusOK)
}

// --- helpers ---

// phoneNumber returns the unescaped {number} segment. chi matches on the raw
// path, so a %2B sent for a leading + arrives still encoded.
func phoneNumber(r *http.Request) (string, error) {
	raw := chi.URLParam(r, "number")
	number, err := url.PathUnescape(raw)
	if err != nil {
		return "", errs.Wrap(errs.ErrKindInvalidInput, "invalid phone number in path", err)
	}
	return number, nil
}

func clientID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errs.Newf(errs.ErrKindInvalidInput, "invalid client id %q", raw)
	}
	return id, nil
}

func decode(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errs.Wrap(errs.ErrKindInvalidInput, "malformed request body", err)
	}
	return nil
}
