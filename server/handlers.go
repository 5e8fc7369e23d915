package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/pastoralsj/registro/server/auth"
	"github.com/pastoralsj/registro/server/auth/key"
	"github.com/pastoralsj/registro/server/cep"
	"github.com/pastoralsj/registro/server/export"
	"github.com/pastoralsj/registro/server/models"
	"github.com/pastoralsj/registro/server/store"
	"github.com/pastoralsj/registro/version"
)

type credentialsPayload struct {
	Login     string      `json:"login"`
	BirthDate models.Date `json:"birth_date"`
}

type sessionPayload struct {
	Token  string         `json:"token"`
	Member *models.Member `json:"member"`
}

func healthCheckHandler(rw http.ResponseWriter, r *http.Request) {
	writeResponse(rw, ResponsePayload{
		Success: true,
		Data:    map[string]string{"version": fmt.Sprintf("v%s", version.Version)},
	}, http.StatusOK)
}

func jwksHandler(rw http.ResponseWriter, r *http.Request) {
	keyPairJWK, err := authKeyPair.JWK()
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	writeResponse(rw, ResponsePayload{Success: true, Data: key.ExportJWKAsJWKS(keyPairJWK)}, http.StatusOK)
}

func logInHandler(rw http.ResponseWriter, r *http.Request) {
	data := credentialsPayload{}
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusBadRequest)
		return
	}

	token, member, err := authService.Login(r.Context(), data.Login, data.BirthDate)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusUnauthorized)
		return

	case errors.Is(err, auth.ErrDataIntegrity):
		faultLog.Append("login", "duplicate credential match for login %q", models.NormalizeLogin(data.Login))
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusConflict)
		return

	case err != nil:
		storeErrorResponse(rw, "login", err)
		return
	}

	writeResponse(rw, ResponsePayload{
		Success: true,
		Data:    sessionPayload{Token: token, Member: member},
	}, http.StatusOK)
}

// logOutHandler exists so the client flow maps 1:1; sessions are
// stateless tokens, discarding one is the whole logout.
func logOutHandler(rw http.ResponseWriter, r *http.Request) {
	writeResponse(rw, ResponsePayload{Success: true}, http.StatusOK)
}

// createMemberHandler serves both unauthenticated registration (role
// forced to AGENTE, session established right away) and a
// coordinator's "add new" (payload role kept, no session returned).
func createMemberHandler(rw http.ResponseWriter, r *http.Request) {
	member := models.Member{}
	if err := json.NewDecoder(r.Body).Decode(&member); err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusBadRequest)
		return
	}

	decodedJWT := requestJWT(r)
	if decodedJWT.ErrorMsg == "" && decodedJWT.Claims.IsCoordinator() {
		insertMemberForCoordinator(rw, r, member)
		return
	}

	token, registered, err := authService.Register(r.Context(), &member)

	validationErr := &auth.ValidationError{}
	switch {
	case errors.As(err, &validationErr):
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}, Fields: validationErr.Fields}, http.StatusBadRequest)
		return

	case errors.Is(err, auth.ErrLoginInUse):
		writeResponse(rw, ResponsePayload{
			Errors: []string{err.Error()},
			Fields: map[string]string{"login": "Login já está em uso"},
		}, http.StatusConflict)
		return

	case err != nil:
		storeErrorResponse(rw, "register", err)
		return
	}

	writeResponse(rw, ResponsePayload{
		Success: true,
		Data:    sessionPayload{Token: token, Member: registered},
	}, http.StatusCreated)
}

func insertMemberForCoordinator(rw http.ResponseWriter, r *http.Request, member models.Member) {
	member.ID = 0
	member.Sanitize()

	if fieldErrors := models.ValidateMember(member); len(fieldErrors) > 0 {
		writeResponse(rw, ResponsePayload{Errors: []string{"registro inválido"}, Fields: fieldErrors}, http.StatusBadRequest)
		return
	}

	if err := registryStore.Insert(r.Context(), &member); err != nil {
		if errors.Is(err, store.ErrConstraintViolation) {
			writeResponse(rw, ResponsePayload{
				Errors: []string{auth.ErrLoginInUse.Error()},
				Fields: map[string]string{"login": "Login já está em uso"},
			}, http.StatusConflict)
			return
		}

		storeErrorResponse(rw, "create", err)
		return
	}

	writeResponse(rw, ResponsePayload{Success: true, Data: member}, http.StatusCreated)
}

func listMembersHandler(rw http.ResponseWriter, r *http.Request) {
	members, err := registryStore.ListAll(r.Context(), r.URL.Query().Get("order_by"))
	if err != nil {
		storeErrorResponse(rw, "list", err)
		return
	}

	writeResponse(rw, ResponsePayload{Success: true, Data: members}, http.StatusOK)
}

func findMemberHandler(rw http.ResponseWriter, r *http.Request) {
	id, _ := parseID(mux.Vars(r)["uid"])

	member, err := store.GetOne(r.Context(), registryStore, store.Filter{ID: &id})
	if err != nil {
		storeErrorResponse(rw, "find", err)
		return
	}

	writeResponse(rw, ResponsePayload{Success: true, Data: member}, http.StatusOK)
}

// updateMemberHandler is a full-record upsert. On success the record is
// re-read from the store, except when the session edited its own
// record - then the local copy is adopted to avoid a redundant round
// trip.
func updateMemberHandler(rw http.ResponseWriter, r *http.Request) {
	id, _ := parseID(mux.Vars(r)["uid"])
	decodedJWT := requestJWT(r)

	member := models.Member{}
	if err := json.NewDecoder(r.Body).Decode(&member); err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusBadRequest)
		return
	}

	member.ID = id

	// An agent editing themselves cannot change their own role.
	if !decodedJWT.Claims.IsCoordinator() {
		member.Role = decodedJWT.Claims.Role
	}

	member.Sanitize()
	if fieldErrors := models.ValidateMember(member); len(fieldErrors) > 0 {
		writeResponse(rw, ResponsePayload{Errors: []string{"registro inválido"}, Fields: fieldErrors}, http.StatusBadRequest)
		return
	}

	if err := registryStore.Upsert(r.Context(), &member); err != nil {
		if errors.Is(err, store.ErrConstraintViolation) {
			writeResponse(rw, ResponsePayload{
				Errors: []string{auth.ErrLoginInUse.Error()},
				Fields: map[string]string{"login": "Login já está em uso"},
			}, http.StatusConflict)
			return
		}

		storeErrorResponse(rw, "update", err)
		return
	}

	capabilities := auth.NewCapabilities(decodedJWT.Claims)
	if capabilities.MemberID == id {
		writeResponse(rw, ResponsePayload{Success: true, Data: member}, http.StatusOK)
		return
	}

	reloaded, err := store.GetOne(r.Context(), registryStore, store.Filter{ID: &id})
	if err != nil {
		storeErrorResponse(rw, "update", err)
		return
	}

	writeResponse(rw, ResponsePayload{Success: true, Data: reloaded}, http.StatusOK)
}

func deleteMemberHandler(rw http.ResponseWriter, r *http.Request) {
	id, _ := parseID(mux.Vars(r)["uid"])

	if err := registryStore.Delete(r.Context(), id); err != nil {
		storeErrorResponse(rw, "delete", err)
		return
	}

	writeResponse(rw, ResponsePayload{Success: true}, http.StatusOK)
}

// cepLookupHandler resolves a postal code. An incomplete code is a
// no-op, not an error. Not-found returns a field error plus cleared
// address fields; a transport failure leaves whatever the form holds.
func cepLookupHandler(rw http.ResponseWriter, r *http.Request) {
	address, err := cepClient.Lookup(r.Context(), mux.Vars(r)["code"])

	switch {
	case errors.Is(err, cep.ErrSkip):
		writeResponse(rw, ResponsePayload{Success: true}, http.StatusOK)
		return

	case errors.Is(err, cep.ErrNotFound):
		writeResponse(rw, ResponsePayload{
			Errors: []string{"CEP não encontrado"},
			Fields: map[string]string{"cep": "CEP não encontrado"},
			Data:   cep.Address{},
		}, http.StatusNotFound)
		return

	case err != nil:
		faultLog.Append("cep", "%v", err)
		writeResponse(rw, ResponsePayload{
			Errors: []string{"falha na consulta do CEP; tente novamente"},
		}, http.StatusBadGateway)
		return
	}

	writeResponse(rw, ResponsePayload{Success: true, Data: address}, http.StatusOK)
}

func exportCSVHandler(rw http.ResponseWriter, r *http.Request) {
	members, err := registryStore.ListAll(r.Context(), "full_name")
	if err != nil {
		storeErrorResponse(rw, "export-csv", err)
		return
	}

	buf := bytes.Buffer{}
	if err := export.WriteCSV(&buf, members); err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	rw.Header().Set("Content-Type", "text/csv; charset=utf-8")
	rw.Header().Set("Content-Disposition", `attachment; filename="registro.csv"`)
	rw.Write(buf.Bytes())
}

func memberSheetHandler(rw http.ResponseWriter, r *http.Request) {
	id, _ := parseID(mux.Vars(r)["uid"])

	member, err := store.GetOne(r.Context(), registryStore, store.Filter{ID: &id})
	if err != nil {
		storeErrorResponse(rw, "export-pdf", err)
		return
	}

	buf := bytes.Buffer{}
	if err := export.WriteMemberSheet(&buf, *member); err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	rw.Header().Set("Content-Type", "application/pdf")
	rw.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="ficha-%d.pdf"`, member.ID))
	rw.Write(buf.Bytes())
}

func sectorReportHandler(rw http.ResponseWriter, r *http.Request) {
	members, err := registryStore.ListAll(r.Context(), "sector")
	if err != nil {
		storeErrorResponse(rw, "report", err)
		return
	}

	buf := bytes.Buffer{}
	if err := export.WriteSectorChart(&buf, members); err != nil {
		if errors.Is(err, export.ErrNoData) {
			writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusNotFound)
			return
		}

		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	rw.Header().Set("Content-Type", "image/png")
	rw.Write(buf.Bytes())
}

func downloadLogsHandler(rw http.ResponseWriter, r *http.Request) {
	rw.Header().Set("Content-Type", "text/plain; charset=utf-8")
	rw.Header().Set("Content-Disposition", `attachment; filename="registro-diagnostico.log"`)
	faultLog.WriteTo(rw)
}
