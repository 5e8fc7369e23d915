package server

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/pkg/errors"
	"github.com/pastoralsj/registro/server/auth"
	"github.com/pastoralsj/registro/server/store"
	"github.com/pastoralsj/registro/utils"
)

type RequestContextKey string

type DecodedJWT struct {
	Claims   *auth.RegistroTokenClaims
	ErrorMsg string
}

type ResponsePayload struct {
	Errors  []string          `json:"errors,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
	Success bool              `json:"success"`
	Data    interface{}       `json:"data,omitempty"`
}

// ---------------------------------------------------------------------------------//
// Handler Helper functions
// --------------------------------------------------------------------------------//

func writeResponse(rw http.ResponseWriter, payLoad ResponsePayload, statusCode int) {
	if statusCode >= http.StatusInternalServerError {
		logg.Error(payLoad.Errors)
	} else if statusCode >= http.StatusBadRequest {
		logg.Info(payLoad.Errors)
	}

	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(statusCode)
	json.NewEncoder(rw).Encode(payLoad)
}

// storeErrorResponse classifies a gateway failure, appends it to the
// diagnostic log under the given context tag and writes the single
// user-visible error. NotFound/SchemaMismatch from a misconfigured
// service point the operator at the configure flow.
func storeErrorResponse(rw http.ResponseWriter, tag string, err error) {
	faultLog.Append(tag, "%v", err)

	switch {
	case errors.Is(err, store.ErrNotFound):
		writeResponse(rw, ResponsePayload{Errors: []string{"registro não encontrado"}}, http.StatusNotFound)

	case errors.Is(err, store.ErrUnauthorized):
		writeResponse(rw, ResponsePayload{
			Errors: []string{"o serviço recusou a chave de acesso; execute 'registro configure'"},
		}, http.StatusBadGateway)

	case errors.Is(err, store.ErrSchemaMismatch):
		writeResponse(rw, ResponsePayload{
			Errors: []string{"configuração do serviço inválida; execute 'registro configure'"},
		}, http.StatusServiceUnavailable)

	case errors.Is(err, store.ErrConstraintViolation):
		writeResponse(rw, ResponsePayload{Errors: []string{"registro conflita com um já existente"}}, http.StatusConflict)

	default:
		writeResponse(rw, ResponsePayload{
			Errors: []string{"falha de comunicação com o serviço; tente novamente"},
		}, http.StatusBadGateway)
	}
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	return uint(id), err
}

// ---------------------------------------------------------------------------------//
// Middleware Helper functions
// --------------------------------------------------------------------------------//

func requestJWT(r *http.Request) DecodedJWT {
	decodedJWT, ok := r.Context().Value(RequestContextKey("decodedJWT")).(DecodedJWT)
	if !ok {
		return DecodedJWT{ErrorMsg: "no token provided"}
	}
	return decodedJWT
}

func decodeAndVerifyAuthHeader(ctx context.Context, authHeaderValue string) DecodedJWT {
	authHeaderList := strings.Split(authHeaderValue, "Bearer ")
	if len(authHeaderList) < 2 {
		return DecodedJWT{ErrorMsg: "no token provided"}
	}

	tokenClaims, err := auth.DecodeJWT(authHeaderList[1], authKeyPair)
	if err != nil {
		return DecodedJWT{ErrorMsg: "invalid token provided"}
	}

	// validate that the member record still exists
	id, err := parseID(tokenClaims.Subject)
	if err != nil {
		return DecodedJWT{ErrorMsg: "invalid token provided"}
	}

	if _, err = store.GetOne(ctx, registryStore, store.Filter{ID: &id}); err != nil {
		return DecodedJWT{ErrorMsg: "invalid token provided"}
	}

	return DecodedJWT{Claims: tokenClaims}
}

// ---------------------------------------------------------------------------------//
// Server Helper functions
// --------------------------------------------------------------------------------//

func serve(server *http.Server) {
	logg.Infof("Registro server is listening on port%v", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Fatal(err)
	}
}

func cleanup(scheduler *gocron.Scheduler, server *http.Server) {
	if scheduler != nil {
		scheduler.Stop()
	}

	ctxShutDown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctxShutDown); err != nil {
		logg.Fatalf("Registro server shutdown failed:%+s", err)
	}

	logg.Infof("Registro server stopped properly")
}

// configDirectory retrieves the directory for configs, the embedded db
// and backup staging. Or logs an error message and then calls os.Exit
// if it's unable to.
func configDirectory(devMode bool) string {
	configFolderName := "registro"
	rootDir, err := os.UserHomeDir()
	fatalOnError(err)

	// Use 'dev' folder in current directory for dev mode
	if devMode {
		configFolderName = "dev"
		rootDir, err = os.Getwd()
		fatalOnError(err)
	}

	configDir := filepath.Join(rootDir, configFolderName)

	err = utils.CreateDirIfNotExist(configDir)
	fatalOnError(err)

	return configDir
}

func fatalOnError(err error) {
	if err != nil {
		logg.Fatal(err)
	}
}
