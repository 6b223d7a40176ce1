package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Uranury/sensornet/sinks"
)

// NewRouter wires the station's routes. hub may be nil, in which case /ws is
// not served.
func NewRouter(st *Station, hub *sinks.Hub) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/sensors", func(c *gin.Context) {
		c.JSON(http.StatusOK, st.Status())
	})

	r.POST("/sensors/:id/measure", func(c *gin.Context) {
		data, err := st.Measure(c.Param("id"))
		switch {
		case errors.Is(err, ErrSensorNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		case err != nil:
			// the value was still recorded
			st.logger.Errorw("measurement had failing observers", "sensor", c.Param("id"), "error", err)
		}
		c.JSON(http.StatusOK, data)
	})

	if hub != nil {
		r.GET("/ws", hub.ServeWS)
	}
	return r
}
