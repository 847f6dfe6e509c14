package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	log "github.com/sirupsen/logrus"
	"xwkbot/battery"
	"xwkbot/calibration"
	"xwkbot/command"
	"xwkbot/twowheeled"
)

type Drive interface {
	command.Target
	State(ctx context.Context) (twowheeled.State, error)
}

type BatterySource interface {
	Status() battery.Status
}

type Server struct {
	drive   Drive
	battery BatterySource
	store   calibration.Store
}

func New(drive Drive, b BatterySource, store calibration.Store) *Server {
	return &Server{drive: drive, battery: b, store: store}
}

type StatusResponse struct {
	Battery battery.Status   `json:"battery"`
	Motion  twowheeled.State `json:"motion"`
}

type DriveRequest struct {
	Left  twowheeled.Command `json:"left"`
	Right twowheeled.Command `json:"right"`
}

func (d *DriveRequest) Bind(r *http.Request) error {
	for _, c := range []twowheeled.Command{d.Left, d.Right} {
		if c.Speed < 0 || c.Speed > 100 {
			return errors.New("speed must be within 0..100")
		}
		if c.Direction == twowheeled.Stop && c.Speed > 0 {
			return twowheeled.ErrDirectionRequired
		}
	}
	return nil
}

type AlignmentPayload struct {
	Trim int `json:"trim"`
}

func (a *AlignmentPayload) Bind(r *http.Request) error {
	if a.Trim < twowheeled.TRIM_MIN || a.Trim > twowheeled.TRIM_MAX {
		return errors.New("trim must be within -100..100")
	}
	return nil
}

type CommandPayload struct {
	command.Command
}

func (c *CommandPayload) Bind(r *http.Request) error {
	return c.Validate()
}

// Routes is meant to be mounted under /api.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Get("/status", s.Status)
	r.Post("/drive", s.Drive)
	r.Post("/stop", s.Stop)
	r.Post("/command", s.Command)
	r.Get("/alignment", s.Alignment)
	r.Put("/alignment", s.SetAlignment)
	return r
}

func (s *Server) Status(w http.ResponseWriter, r *http.Request) {
	state, err := s.drive.State(r.Context())
	if err != nil {
		render.Render(w, r, ErrUnavailable(err))
		return
	}
	render.JSON(w, r, StatusResponse{Battery: s.battery.Status(), Motion: state})
}

func (s *Server) Drive(w http.ResponseWriter, r *http.Request) {
	data := &DriveRequest{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	if err := s.drive.Submit(r.Context(), data.Left, data.Right); err != nil {
		s.renderDriveError(w, r, err)
		return
	}
	s.Status(w, r)
}

func (s *Server) Stop(w http.ResponseWriter, r *http.Request) {
	if err := s.drive.Stop(r.Context()); err != nil {
		s.renderDriveError(w, r, err)
		return
	}
	s.Status(w, r)
}

func (s *Server) Command(w http.ResponseWriter, r *http.Request) {
	data := &CommandPayload{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	if err := data.Apply(r.Context(), s.drive); err != nil {
		s.renderDriveError(w, r, err)
		return
	}
	s.Status(w, r)
}

func (s *Server) Alignment(w http.ResponseWriter, r *http.Request) {
	state, err := s.drive.State(r.Context())
	if err != nil {
		render.Render(w, r, ErrUnavailable(err))
		return
	}
	render.JSON(w, r, AlignmentPayload{Trim: state.Trim})
}

// SetAlignment applies the trim to the running drive and persists it.
func (s *Server) SetAlignment(w http.ResponseWriter, r *http.Request) {
	data := &AlignmentPayload{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	trim, err := s.drive.SetTrim(r.Context(), data.Trim)
	if err != nil {
		s.renderDriveError(w, r, err)
		return
	}
	s.store.Set(calibration.CONFIG_KEY, trim)
	if err := s.store.Save(); err != nil {
		log.Print("Could not save alignment: ", err)
		render.Render(w, r, ErrRender(err))
		return
	}
	render.JSON(w, r, AlignmentPayload{Trim: trim})
}

func (s *Server) renderDriveError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, twowheeled.ErrDirectionRequired) {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	if errors.Is(err, twowheeled.ErrRunnerStopped) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		render.Render(w, r, ErrUnavailable(err))
		return
	}
	render.Render(w, r, ErrRender(err))
}
