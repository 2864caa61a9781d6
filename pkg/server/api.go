package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/cadsweep/cadsweep/pkg/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Largest accepted request body
const MaxBodySize int64 = 1 << 20

type API struct {
	Gin    *gin.Engine
	Studio *Studio
}

// Serve a studio behind the part studio routes of the CAD API
func NewAPI(studio *Studio, credentials models.Credentials) *API {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestID())
	router.Use(jsonLogs())
	router.Use(maxBodySize(MaxBodySize))

	scoped := router.Group(
		fmt.Sprintf("/api/%s/partstudios/d/:did/w/:wid/e/:eid", models.APIVersion),
		BasicAuth(credentials),
		documentScope(studio),
	)

	scoped.GET("/variables", func(c *gin.Context) {
		c.JSON(200, studio.Variables())
	})

	scoped.POST("/variables", func(c *gin.Context) {
		var variables models.Variables
		if err := c.ShouldBindJSON(&variables); err != nil {
			c.JSON(400, models.ErrorResponse{
				Error: fmt.Sprintf("invalid JSON request body: %s", err.Error()),
			})
			return
		}
		studio.SetVariables(variables)
		c.Set("variables", len(variables))
		c.JSON(200, variables)
	})

	for _, format := range models.ExportFormats {
		scoped.GET("/"+string(format), export(studio, format))
	}

	return &API{router, studio}
}

func (a *API) Run(addr string) error {
	log.Info().Str("address", addr).Msg("starting part studio stub")
	return a.Gin.Run(addr)
}

func export(studio *Studio, format models.ExportFormat) gin.HandlerFunc {
	return func(c *gin.Context) {
		if status := studio.forcedStatus(format); status != 0 {
			c.JSON(status, models.ErrorResponse{Error: fmt.Sprintf("%s export failed", format.Label())})
			return
		}

		var partIDs []string
		if ids := c.Query("partIds"); ids != "" {
			partIDs = strings.Split(ids, ",")
		}

		body, err := studio.Render(format, partIDs)
		if err != nil {
			c.JSON(400, models.ErrorResponse{Error: err.Error()})
			return
		}
		c.Data(200, "application/octet-stream", body)
	}
}

func documentScope(studio *Studio) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !studio.Serves(c.Param("did"), c.Param("wid"), c.Param("eid")) {
			c.AbortWithStatusJSON(404, models.ErrorResponse{Error: "document not found"})
		}
	}
}

func maxBodySize(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	}
}

func jsonLogs() gin.HandlerFunc {
	return gin.LoggerWithFormatter(
		func(params gin.LogFormatterParams) string {
			line := log.Info().
				Any("request_id", params.Keys["request_id"]).
				Int("status", params.StatusCode).
				Str("method", params.Method).
				Str("path", params.Path).
				Str("client_ip", params.ClientIP).
				Dur("response_time", params.Latency)

			if accessKey, ok := params.Keys["access_key"].(string); ok {
				line = line.Str("access_key", accessKey)
			}

			if reason, ok := params.Keys["reason"].(string); ok {
				line = line.Str("reason", reason)
			}

			if variables, ok := params.Keys["variables"].(int); ok {
				line = line.Int("variables", variables)
			}
			line.Send()
			return ""
		},
	)
}

func requestID() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		rid := uuid.New().String()
		ctx.Set("request_id", rid)
		ctx.Header("X-Request-ID", rid)
	}
}
