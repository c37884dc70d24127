package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dkeye/Relay/internal/app"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/dkeye/Relay/internal/protocol"
)

// Handlers serves read-only views of the registry.
type Handlers struct {
	Registry *app.Registry
}

type StatsResponse struct {
	Connections uint64 `json:"connections"`
	Clients     int    `json:"clients"`
	Servers     int    `json:"servers"`
}

func (h *Handlers) ListServers(c *gin.Context) {
	servers := h.Registry.ServerInfos()
	if servers == nil {
		servers = []domain.ServerInfo{}
	}
	c.JSON(http.StatusOK, servers)
}

func (h *Handlers) ServerLog(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid server id"})
		return
	}
	srv, ok := h.Registry.Server(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown server"})
		return
	}

	page := srv.LastPage()
	if raw, ok := c.GetQuery("page"); ok {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page"})
			return
		}
		page = n
	}

	c.JSON(http.StatusOK, protocol.ServerLogPage{
		ServerID: srv.ID(),
		PageNo:   page,
		Messages: srv.GetPage(page),
	})
}

func (h *Handlers) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, StatsResponse{
		Connections: h.Registry.Connections(),
		Clients:     h.Registry.ClientCount(),
		Servers:     h.Registry.ServerCount(),
	})
}
