package web

import (
	"net/http"

	"github.com/Joseda-hg/listkeeper/internal/model"
)

const taskNotFound = "Task not found."

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	filter, page, err := queryFromRequest(r)
	if err != nil {
		s.fail(w, r, err, taskNotFound)
		return
	}
	tasks, err := s.store.ListTasks(r.Context(), identity(r).OwnerID, 0, filter, page)
	if err != nil {
		s.fail(w, r, err, taskNotFound)
		return
	}
	renderPage(s, w, r, tasks)
}

func (s *Server) getTask(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.fail(w, r, err, taskNotFound)
		return
	}
	task, err := s.store.GetTask(r.Context(), identity(r).OwnerID, id)
	if err != nil {
		s.fail(w, r, err, taskNotFound)
		return
	}
	s.render(w, r, http.StatusOK, task)
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	var input model.TaskInput
	if err := decodeJSON(w, r, &input); err != nil {
		s.fail(w, r, err, taskNotFound)
		return
	}
	task, err := s.store.CreateTask(r.Context(), identity(r).OwnerID, input)
	if err != nil {
		s.fail(w, r, err, taskNotFound)
		return
	}
	s.succeed(w, r, http.StatusCreated, "Task created successfully.", task)
}

func (s *Server) updateTask(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.fail(w, r, err, taskNotFound)
		return
	}
	var input model.TaskInput
	if err := decodeJSON(w, r, &input); err != nil {
		s.fail(w, r, err, taskNotFound)
		return
	}
	task, err := s.store.UpdateTask(r.Context(), identity(r).OwnerID, id, input)
	if err != nil {
		s.fail(w, r, err, taskNotFound)
		return
	}
	s.succeed(w, r, http.StatusOK, "Task updated successfully.", task)
}

func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.fail(w, r, err, taskNotFound)
		return
	}
	if err := s.store.DeleteTask(r.Context(), identity(r).OwnerID, id); err != nil {
		s.fail(w, r, err, taskNotFound)
		return
	}
	s.succeed(w, r, http.StatusOK, "Task deleted successfully.", nil)
}

func (s *Server) taskHistory(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.fail(w, r, err, taskNotFound)
		return
	}
	history, err := s.store.ListHistory(r.Context(), identity(r).OwnerID, id)
	if err != nil {
		s.fail(w, r, err, taskNotFound)
		return
	}
	if history == nil {
		history = []model.HistoryEntry{}
	}
	s.render(w, r, http.StatusOK, history)
}
