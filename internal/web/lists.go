package web

import (
	"net/http"

	"github.com/Joseda-hg/listkeeper/internal/model"
)

const listNotFound = "List not found."

func (s *Server) listLists(w http.ResponseWriter, r *http.Request) {
	filter, page, err := queryFromRequest(r)
	if err != nil {
		s.fail(w, r, err, listNotFound)
		return
	}
	lists, err := s.store.ListLists(r.Context(), identity(r).OwnerID, filter, page)
	if err != nil {
		s.fail(w, r, err, listNotFound)
		return
	}
	renderPage(s, w, r, lists)
}

func (s *Server) getList(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.fail(w, r, err, listNotFound)
		return
	}
	list, err := s.store.GetList(r.Context(), identity(r).OwnerID, id)
	if err != nil {
		s.fail(w, r, err, listNotFound)
		return
	}
	s.render(w, r, http.StatusOK, list)
}

func (s *Server) createList(w http.ResponseWriter, r *http.Request) {
	var input model.ListInput
	if err := decodeJSON(w, r, &input); err != nil {
		s.fail(w, r, err, listNotFound)
		return
	}
	list, err := s.store.CreateList(r.Context(), identity(r).OwnerID, input)
	if err != nil {
		s.fail(w, r, err, listNotFound)
		return
	}
	s.succeed(w, r, http.StatusCreated, "List created successfully.", list)
}

func (s *Server) updateList(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.fail(w, r, err, listNotFound)
		return
	}
	var input model.ListInput
	if err := decodeJSON(w, r, &input); err != nil {
		s.fail(w, r, err, listNotFound)
		return
	}
	list, err := s.store.UpdateList(r.Context(), identity(r).OwnerID, id, input)
	if err != nil {
		s.fail(w, r, err, listNotFound)
		return
	}
	s.succeed(w, r, http.StatusOK, "List updated successfully.", list)
}

func (s *Server) deleteList(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.fail(w, r, err, listNotFound)
		return
	}
	if err := s.store.DeleteList(r.Context(), identity(r).OwnerID, id); err != nil {
		s.fail(w, r, err, listNotFound)
		return
	}
	s.succeed(w, r, http.StatusOK, "List deleted successfully.", nil)
}

// listTasksForList lazy-loads the tasks of one list.
func (s *Server) listTasksForList(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.fail(w, r, err, listNotFound)
		return
	}
	filter, page, err := queryFromRequest(r)
	if err != nil {
		s.fail(w, r, err, listNotFound)
		return
	}
	tasks, err := s.store.ListTasks(r.Context(), identity(r).OwnerID, id, filter, page)
	if err != nil {
		s.fail(w, r, err, listNotFound)
		return
	}
	renderPage(s, w, r, tasks)
}
