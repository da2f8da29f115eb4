package broker

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dzlab/searchcore/wire"
)

// Handler wraps a Broker in a gin HTTP handler decoding/encoding the
// FLAT_NORMALIZED(+COMPRESSED) wire format over the request body.
type Handler struct {
	Broker *Broker
}

// RegisterRoutes wires the client-facing endpoint onto router.
func (h *Handler) RegisterRoutes(router gin.IRouter) {
	router.POST("/search", h.handleSearch)
}

func (h *Handler) handleSearch(c *gin.Context) {
	format := wire.FlatNormalized
	if c.GetHeader("Content-Encoding") == "lz4" {
		format = wire.FlatNormalizedCompressed
	}

	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	var req wire.BrokerRequest
	if err := wire.Decode(body, format, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.Broker.Search(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	out, err := wire.Encode(resp, format)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to encode response"})
		return
	}
	if format == wire.FlatNormalizedCompressed {
		c.Header("Content-Encoding", "lz4")
	}
	c.Data(http.StatusOK, "application/json", out)
}
