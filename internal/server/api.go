package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"karaoke-player/internal/manager"
	"karaoke-player/internal/playlist"
)

// Controller runs commands and status reports, as the server would.
type Controller interface {
	ExecuteCommand(command string) error
	GetStatus() error
}

// StatusSource tells what the player is doing.
type StatusSource interface {
	PlayingID() int
	Timing() int
	IsPaused() bool
	InTransition() bool
}

// API handles HTTP control endpoints.
type API struct {
	controller Controller
	status     StatusSource
	log        logrus.FieldLogger
}

// NewAPI creates a new API handler.
func NewAPI(controller Controller, status StatusSource, log logrus.FieldLogger) *API {
	return &API{
		controller: controller,
		status:     status,
		log:        log.WithField("component", "api"),
	}
}

// Health reports that the player is up.
func (a *API) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Status returns the current player status without notifying the server.
func (a *API) Status(c *gin.Context) {
	c.JSON(http.StatusOK, newStatusResponse(playlist.Status{
		PlaylistEntryID: a.status.PlayingID(),
		Timing:          a.status.Timing(),
		Paused:          a.status.IsPaused(),
		InTransition:    a.status.InTransition(),
	}))
}

// Command executes a player command (pause, play, skip).
func (a *API) Command(c *gin.Context) {
	command := c.Param("name")
	a.log.Infof("Command request: %s", command)

	if err := a.controller.ExecuteCommand(command); err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, manager.ErrUnknownCommand) {
			code = http.StatusBadRequest
		}
		c.JSON(code, CommandResponse{
			Status:  "error",
			Command: command,
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, CommandResponse{
		Status:  "ok",
		Command: command,
	})
}

// ReportStatus sends the player status to the server.
func (a *API) ReportStatus(c *gin.Context) {
	if err := a.controller.GetStatus(); err != nil {
		a.log.Errorf("Status report failed: %v", err)
		c.JSON(http.StatusBadGateway, CommandResponse{
			Status:  "error",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, CommandResponse{Status: "reported"})
}
