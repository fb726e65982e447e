package student

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/leg100/roster/internal"
	rosterhttp "github.com/leg100/roster/internal/http"
	"github.com/leg100/roster/internal/http/decode"
)

type (
	api struct {
		*Service
	}

	// MessageResponse acknowledges a successful write.
	MessageResponse struct {
		Message string `json:"message"`
	}

	routeParams struct {
		ID string `schema:"id,required"`
	}
)

func (a *api) addHandlers(r *mux.Router) {
	r.HandleFunc("/students/{id}", a.createStudent).Methods("POST")
	r.HandleFunc("/students/{id}", a.getStudent).Methods("GET")
	r.HandleFunc("/students/{id}", a.updateStudent).Methods("PUT")
	r.HandleFunc("/students/{id}", a.deleteStudent).Methods("DELETE")
}

func (a *api) createStudent(w http.ResponseWriter, r *http.Request) {
	var params routeParams
	if err := decode.Route(&params, r); err != nil {
		a.error(w, err)
		return
	}
	var opts Options
	if err := decode.JSON(&opts, r); err != nil {
		a.error(w, err)
		return
	}
	if err := a.Create(r.Context(), params.ID, opts); err != nil {
		a.error(w, err)
		return
	}
	rosterhttp.JSON(w, http.StatusOK, &MessageResponse{
		Message: fmt.Sprintf("Student %s created successfully", params.ID),
	})
}

func (a *api) getStudent(w http.ResponseWriter, r *http.Request) {
	var params routeParams
	if err := decode.Route(&params, r); err != nil {
		a.error(w, err)
		return
	}
	student, err := a.Get(r.Context(), params.ID)
	if err != nil {
		a.error(w, err)
		return
	}
	rosterhttp.JSON(w, http.StatusOK, student)
}

func (a *api) updateStudent(w http.ResponseWriter, r *http.Request) {
	var params routeParams
	if err := decode.Route(&params, r); err != nil {
		a.error(w, err)
		return
	}
	var opts Options
	if err := decode.JSON(&opts, r); err != nil {
		a.error(w, err)
		return
	}
	if err := a.Update(r.Context(), params.ID, opts); err != nil {
		a.error(w, err)
		return
	}
	rosterhttp.JSON(w, http.StatusOK, &MessageResponse{
		Message: fmt.Sprintf("Student %s updated successfully", params.ID),
	})
}

func (a *api) deleteStudent(w http.ResponseWriter, r *http.Request) {
	var params routeParams
	if err := decode.Route(&params, r); err != nil {
		a.error(w, err)
		return
	}
	if err := a.Delete(r.Context(), params.ID); err != nil {
		a.error(w, err)
		return
	}
	rosterhttp.JSON(w, http.StatusOK, &MessageResponse{
		Message: fmt.Sprintf("Student %s deleted successfully", params.ID),
	})
}

func (a *api) error(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, internal.ErrResourceNotFound):
		rosterhttp.Error(w, err, rosterhttp.WithDetail("Student not found"))
	case errors.Is(err, internal.ErrResourceAlreadyExists):
		rosterhttp.Error(w, err, rosterhttp.WithDetail("Student already exists"))
	default:
		rosterhttp.Error(w, err)
	}
}
